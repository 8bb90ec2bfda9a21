package coordinator

import (
	"testing"

	"github.com/hashforge/cluster/internal/task"
)

func TestRegistryRoundRobinHonorsCapacity(t *testing.T) {
	r := NewRegistry(16)
	w1 := &Worker{Addr: "w1", Cores: 1}
	w2 := &Worker{Addr: "w2", Cores: 3}
	r.AddWorker(w1)
	r.AddWorker(w2)

	counts := map[string]int{}
	for i := 0; i < 8; i++ {
		w, ok := r.NextSlot(i)
		if !ok {
			t.Fatalf("NextSlot(%d) returned not-ok", i)
		}
		counts[w.Addr]++
	}

	if counts["w1"] != 2 || counts["w2"] != 6 {
		t.Fatalf("got %v, want w1=2 w2=6", counts)
	}
}

func TestRegistryReassignsOnDisconnect(t *testing.T) {
	r := NewRegistry(16)
	w := &Worker{Addr: "w", Cores: 1}
	r.AddWorker(w)

	t1 := &task.Task{ID: 1}
	t2 := &task.Task{ID: 2}
	r.MarkInFlight(w, t1)
	r.MarkInFlight(w, t2)

	reassigned := r.RemoveWorker(w)
	if len(reassigned) != 2 {
		t.Fatalf("got %d reassigned tasks, want 2", len(reassigned))
	}
	if r.ConnectedSlots() != 0 {
		t.Fatalf("got %d connected slots, want 0", r.ConnectedSlots())
	}

	var drained []*task.Task
	for i := 0; i < 2; i++ {
		tk, ok := r.Dequeue()
		if !ok {
			t.Fatalf("Dequeue() returned not-ok on iteration %d", i)
		}
		drained = append(drained, tk)
	}
	if drained[0].ID != 1 || drained[1].ID != 2 {
		t.Fatalf("pending order = %v, want [1, 2]", drained)
	}
}

func TestRegistryReassignedTasksJumpAheadOfPending(t *testing.T) {
	r := NewRegistry(16)
	w := &Worker{Addr: "w", Cores: 1}
	r.AddWorker(w)

	fresh := &task.Task{ID: 10}
	r.Enqueue(fresh)

	orphan := &task.Task{ID: 20}
	r.MarkInFlight(w, orphan)
	reassigned := r.RemoveWorker(w)
	if len(reassigned) != 1 || reassigned[0].ID != 20 {
		t.Fatalf("got %v reassigned, want [task 20]", reassigned)
	}

	first, ok := r.Dequeue()
	if !ok || first.ID != 20 {
		t.Fatalf("Dequeue() = %v, ok=%v, want reassigned task 20 first", first, ok)
	}
	second, ok := r.Dequeue()
	if !ok || second.ID != 10 {
		t.Fatalf("Dequeue() = %v, ok=%v, want fresh task 10 second", second, ok)
	}
}

func TestRegistryDequeueUnblocksOnClose(t *testing.T) {
	r := NewRegistry(16)
	done := make(chan bool, 1)
	go func() {
		_, ok := r.Dequeue()
		done <- ok
	}()
	r.Close()
	if ok := <-done; ok {
		t.Fatal("expected Dequeue to return ok=false after Close")
	}
}

func TestRegistryFinishMovesTaskToFinished(t *testing.T) {
	r := NewRegistry(16)
	r.SetTotal(1)
	w := &Worker{Addr: "w", Cores: 1}
	r.AddWorker(w)

	tk := &task.Task{ID: 5}
	r.MarkInFlight(w, tk)

	got, complete := r.Finish(w, 5)
	if got == nil || got.ID != 5 {
		t.Fatalf("Finish() returned %v, want task 5", got)
	}
	if !complete {
		t.Fatal("expected run to be complete after the only task finishes")
	}
	if len(w.InFlight) != 0 {
		t.Fatalf("worker still has %d in-flight tasks", len(w.InFlight))
	}
}

func TestRegistryNextSlotUnblocksOnClose(t *testing.T) {
	r := NewRegistry(16)
	done := make(chan bool, 1)
	go func() {
		_, ok := r.NextSlot(0)
		done <- ok
	}()
	r.Close()
	if ok := <-done; ok {
		t.Fatal("expected NextSlot to return ok=false after Close")
	}
}
