package task

import "strconv"

// Source produces candidate items one at a time; ok is false once the
// sequence is exhausted. Callers typically wrap a range expander (a
// closure counting up from a start offset) or a fixed slice.
type Source func() (item string, ok bool)

// ChunkSpec parameterizes one chunking run (spec.md §4.3).
type ChunkSpec struct {
	TotalSize    int64
	ChunkCount   int
	MaxChunkSize int64 // 0 disables the cap
	Action       Action
	Digest       string
}

// normalizeChunkCount applies spec.md §4.3's clamping rules in order:
// non-positive chunk_count becomes 1, a max_chunk_size cap can raise
// it, and a chunk_count exceeding total_size is clamped down so every
// task stays non-empty.
func normalizeChunkCount(spec ChunkSpec) int {
	count := spec.ChunkCount
	if count <= 0 {
		count = 1
	}
	if spec.MaxChunkSize > 0 && spec.TotalSize/int64(count) > spec.MaxChunkSize {
		count = int(spec.TotalSize / spec.MaxChunkSize)
		if count <= 0 {
			count = 1
		}
	}
	if spec.TotalSize > 0 && int64(count) > spec.TotalSize {
		count = int(spec.TotalSize)
	}
	return count
}

// Chunk partitions the items produced by next into a sequence of Tasks
// per spec.md §4.3: the first chunkCount-1 tasks carry base items each,
// the last absorbs the remainder. Chunks are pushed onto out as they
// are assembled — out is the lazy/streaming half of the contract
// (spec.md §9); Chunk itself runs to completion and should be called
// from its own goroutine when out is unbuffered or bounded.
func Chunk(next Source, spec ChunkSpec, ids *IDGenerator, out chan<- *Task) {
	if spec.TotalSize <= 0 {
		return
	}

	chunkCount := normalizeChunkCount(spec)
	base := spec.TotalSize / int64(chunkCount)
	remainder := spec.TotalSize % int64(chunkCount)

	for i := 0; i < chunkCount; i++ {
		target := base
		if i == chunkCount-1 {
			target += remainder
		}

		buffer := make([]string, 0, target)
		for int64(len(buffer)) < target {
			item, ok := next()
			if !ok {
				break
			}
			buffer = append(buffer, item)
		}
		if len(buffer) == 0 {
			continue
		}

		out <- &Task{
			ID:     ids.Next(),
			Action: spec.Action,
			Digest: spec.Digest,
			Buffer: buffer,
		}
	}
}

// RangeSource returns a Source that yields successive half-open numeric
// ranges ["start-end") of width stride, covering [start, end), each
// rendered as a single "a-b" buffer item. Used when the candidate key
// space is too large to enumerate eagerly: one Source call produces one
// stride-wide range string (a task's buffer holds one or more of them),
// and the worker (internal/worker) is the side
// that actually expands a range into concrete candidates.
func RangeSource(start, end, stride int64) Source {
	cursor := start
	return func() (string, bool) {
		if cursor >= end {
			return "", false
		}
		next := cursor + stride
		if next > end {
			next = end
		}
		item := formatRange(cursor, next)
		cursor = next
		return item, true
	}
}

func formatRange(start, end int64) string {
	return strconv.FormatInt(start, 10) + "-" + strconv.FormatInt(end, 10)
}
