package task

import "testing"

func drain(ch <-chan *Task) []*Task {
	var out []*Task
	for t := range ch {
		out = append(out, t)
	}
	return out
}

func TestChunkSplitsEvenlyWithRemainderOnLast(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}
	i := 0
	next := func() (string, bool) {
		if i >= len(items) {
			return "", false
		}
		item := items[i]
		i++
		return item, true
	}

	out := make(chan *Task, 10)
	var ids IDGenerator
	Chunk(next, ChunkSpec{TotalSize: 7, ChunkCount: 3, Action: ActionMD5, Digest: "x"}, &ids, out)
	close(out)

	tasks := drain(out)
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(tasks))
	}
	wantLens := []int{2, 2, 3}
	var total int
	for i, tk := range tasks {
		if len(tk.Buffer) != wantLens[i] {
			t.Errorf("task %d has %d items, want %d", i, len(tk.Buffer), wantLens[i])
		}
		total += len(tk.Buffer)
	}
	if total != 7 {
		t.Errorf("total items = %d, want 7", total)
	}

	// Concatenation reproduces the original sequence.
	var flat []string
	for _, tk := range tasks {
		flat = append(flat, tk.Buffer...)
	}
	for i, item := range items {
		if flat[i] != item {
			t.Errorf("flat[%d] = %q, want %q", i, flat[i], item)
		}
	}
}

func TestChunkCountZeroTreatedAsOne(t *testing.T) {
	i := 0
	next := func() (string, bool) {
		if i >= 3 {
			return "", false
		}
		i++
		return "x", true
	}
	out := make(chan *Task, 10)
	var ids IDGenerator
	Chunk(next, ChunkSpec{TotalSize: 3, ChunkCount: 0, Action: ActionMD5, Digest: "d"}, &ids, out)
	close(out)

	tasks := drain(out)
	if len(tasks) != 1 || len(tasks[0].Buffer) != 3 {
		t.Fatalf("got %v, want one task with 3 items", tasks)
	}
}

func TestChunkCountExceedingTotalSizeClamped(t *testing.T) {
	i := 0
	next := func() (string, bool) {
		if i >= 2 {
			return "", false
		}
		i++
		return "x", true
	}
	out := make(chan *Task, 10)
	var ids IDGenerator
	Chunk(next, ChunkSpec{TotalSize: 2, ChunkCount: 10, Action: ActionMD5, Digest: "d"}, &ids, out)
	close(out)

	tasks := drain(out)
	for _, tk := range tasks {
		if len(tk.Buffer) == 0 {
			t.Fatalf("got empty task: %+v", tk)
		}
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2 (clamped to total_size)", len(tasks))
	}
}

func TestChunkMaxChunkSizeRaisesChunkCount(t *testing.T) {
	i := 0
	next := func() (string, bool) {
		if i >= 10 {
			return "", false
		}
		i++
		return "x", true
	}
	out := make(chan *Task, 10)
	var ids IDGenerator
	Chunk(next, ChunkSpec{TotalSize: 10, ChunkCount: 1, MaxChunkSize: 3, Action: ActionMD5, Digest: "d"}, &ids, out)
	close(out)

	tasks := drain(out)
	for _, tk := range tasks[:len(tasks)-1] {
		if len(tk.Buffer) > 3 {
			t.Errorf("task has %d items, want <= 3 (max_chunk_size)", len(tk.Buffer))
		}
	}
}

func TestZeroTotalSizeProducesNoTasks(t *testing.T) {
	next := func() (string, bool) { return "", false }
	out := make(chan *Task, 1)
	var ids IDGenerator
	Chunk(next, ChunkSpec{TotalSize: 0, ChunkCount: 1, Action: ActionMD5, Digest: "d"}, &ids, out)
	close(out)
	if tasks := drain(out); len(tasks) != 0 {
		t.Fatalf("got %d tasks, want 0", len(tasks))
	}
}

func TestRangeSourceCoversWithoutGaps(t *testing.T) {
	src := RangeSource(0, 25, 10)
	var ranges []string
	for {
		item, ok := src()
		if !ok {
			break
		}
		ranges = append(ranges, item)
	}
	want := []string{"0-10", "10-20", "20-25"}
	if len(ranges) != len(want) {
		t.Fatalf("got %v, want %v", ranges, want)
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("ranges[%d] = %q, want %q", i, ranges[i], want[i])
		}
	}
}
