package coordinator

import (
	"sync"

	"github.com/hashforge/cluster/internal/task"
	"github.com/hashforge/cluster/internal/wire"
)

// Worker is one accepted, handshaked connection and its declared
// capacity. The registry is the only thing allowed to mutate InFlight;
// everything else is read-only after handshake.
type Worker struct {
	Conn     *wire.Conn
	Addr     string
	Cores    uint32
	InFlight []*task.Task
}

// Registry is the coordinator's single logical data structure: the
// slot vector, the per-worker in-flight lists, the pending deque, and
// the finished count — all guarded by one mutex with a condition
// variable signaled on every state change the dispatch loop can act on
// (spec.md §5, §9 "Shared mutable state").
type Registry struct {
	mu   sync.Mutex
	cond *sync.Cond

	slots   []*Worker
	workers map[*Worker]struct{}

	// pending holds never-yet-dispatched and reassigned tasks awaiting
	// a slot. It is a plain slice used as a deque rather than a channel
	// so reassignment can prepend to the head (spec.md §4.3:
	// disconnect-orphaned tasks are retried ahead of fresh, never-
	// attempted work, not appended behind it).
	pending  []*task.Task
	finished []*task.Task
	total    int
	closed   bool
}

// NewRegistry creates a Registry. pendingCapacity is used only to
// preallocate the pending deque's backing array.
func NewRegistry(pendingCapacity int) *Registry {
	r := &Registry{
		workers: make(map[*Worker]struct{}),
		pending: make([]*task.Task, 0, pendingCapacity),
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// SetTotal records the total task count for a run, computed once
// chunking completes.
func (r *Registry) SetTotal(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = total
}

// AddWorker registers a newly handshaked connection and appends Cores
// copies of it to the slot vector.
func (r *Registry) AddWorker(w *Worker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workers[w] = struct{}{}
	for i := uint32(0); i < w.Cores; i++ {
		r.slots = append(r.slots, w)
	}
	r.cond.Broadcast()
}

// RemoveWorker drops every slot referring to w and moves its in-flight
// tasks back onto the head of the pending deque, in order, ahead of
// any task that was already waiting (spec.md §4.3: a disconnect-
// orphaned task is retried before never-attempted work). Returns the
// tasks reassigned.
func (r *Registry) RemoveWorker(w *Worker) []*task.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	reassigned := w.InFlight
	w.InFlight = nil
	delete(r.workers, w)

	kept := r.slots[:0]
	for _, s := range r.slots {
		if s != w {
			kept = append(kept, s)
		}
	}
	r.slots = kept

	if len(reassigned) > 0 {
		r.pending = append(append([]*task.Task{}, reassigned...), r.pending...)
		r.cond.Broadcast()
	}
	return reassigned
}

// Enqueue appends t to the tail of the pending deque. Used by the
// chunk producer to feed never-yet-attempted work.
func (r *Registry) Enqueue(t *task.Task) {
	r.mu.Lock()
	r.pending = append(r.pending, t)
	r.cond.Broadcast()
	r.mu.Unlock()
}

// Requeue prepends t to the head of the pending deque. Used when a
// send to a worker fails outright (distinct from a disconnect, but the
// same rationale applies: a task already attempted once is retried
// before fresh work, not behind it).
func (r *Registry) Requeue(t *task.Task) {
	r.mu.Lock()
	r.pending = append([]*task.Task{t}, r.pending...)
	r.cond.Broadcast()
	r.mu.Unlock()
}

// Dequeue blocks until the pending deque is non-empty or the registry
// is closed, then pops and returns the task at its head. Reassigned
// tasks prepended by RemoveWorker are always popped before the fresh
// tasks appended by Enqueue, since both share one underlying slice.
func (r *Registry) Dequeue() (*task.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.pending) == 0 && !r.closed {
		r.cond.Wait()
	}
	if len(r.pending) == 0 {
		return nil, false
	}
	t := r.pending[0]
	r.pending = r.pending[1:]
	return t, true
}

// NextSlot blocks until the slot vector is non-empty or the registry
// is closed, then returns the worker at position i mod |slots|. i
// should be a monotonically increasing counter the caller only
// advances after a task is actually sent (spec.md §4.3).
func (r *Registry) NextSlot(i int) (*Worker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.slots) == 0 && !r.closed {
		r.cond.Wait()
	}
	if r.closed {
		return nil, false
	}
	return r.slots[i%len(r.slots)], true
}

// Close wakes every goroutine blocked in NextSlot with ok=false. Used
// to unwind the dispatch loop on a FOUND-triggered cancellation or
// operator shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	r.cond.Broadcast()
	r.mu.Unlock()
}

// MarkInFlight appends t to w's in-flight list. Call after a
// successful send.
func (r *Registry) MarkInFlight(w *Worker, t *task.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w.InFlight = append(w.InFlight, t)
}

// Finish locates taskID in w's in-flight list, removes it, and appends
// it to the finished list. Returns the task and whether the run is now
// complete.
func (r *Registry) Finish(w *Worker, taskID uint64) (*task.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, t := range w.InFlight {
		if t.ID == taskID {
			w.InFlight = append(w.InFlight[:i], w.InFlight[i+1:]...)
			r.finished = append(r.finished, t)
			r.cond.Broadcast()
			return t, len(r.finished) >= r.total
		}
	}
	return nil, false
}

// FinishedCount returns the current finished-task count.
func (r *Registry) FinishedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.finished)
}

// FinishedTasks returns a snapshot of the finished list, used for the
// running hash-rate computation.
func (r *Registry) FinishedTasks() []*task.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*task.Task, len(r.finished))
	copy(out, r.finished)
	return out
}

// ConnectedSlots returns the current slot-vector length.
func (r *Registry) ConnectedSlots() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// PendingCount returns the current pending-deque length.
func (r *Registry) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
