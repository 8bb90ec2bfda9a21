package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/hashforge/cluster/internal/observability"
	"github.com/hashforge/cluster/internal/task"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("coordinator")

// Result is the outcome of a run: either a preimage was found, or every
// task reported DONE.
type Result struct {
	Found     bool
	Candidate string
	TaskID    uint64
	Elapsed   time.Duration
	HashRate  float64
}

// Orchestrator owns the registry and the dispatch loop. It implements
// the three-callback shape spec.md §9 recommends (on_connect,
// on_message, on_disconnect), exposed here as plain methods the
// server's accept/receive loops call directly.
type Orchestrator struct {
	Registry *Registry
	Metrics  *observability.Metrics
	Log      *observability.Logger

	ids       task.IDGenerator
	startTime time.Time

	result chan Result

	spanMu sync.Mutex
	spans  map[uint64]trace.Span
}

// NewOrchestrator creates an Orchestrator backed by a fresh Registry.
func NewOrchestrator(pendingCapacity int, metrics *observability.Metrics, log *observability.Logger) *Orchestrator {
	return &Orchestrator{
		Registry: NewRegistry(pendingCapacity),
		Metrics:  metrics,
		Log:      log,
		result:   make(chan Result, 1),
		spans:    make(map[uint64]trace.Span),
	}
}

// startSpan opens a span covering a task from dispatch to completion
// (SPEC_FULL §4.3) and stashes it keyed by task id; endSpan closes it
// when the matching FOUND/DONE arrives. A task reassigned after a
// disconnect keeps its original span rather than starting a new one.
func (o *Orchestrator) startSpan(ctx context.Context, t *task.Task, worker string) {
	o.spanMu.Lock()
	_, exists := o.spans[t.ID]
	o.spanMu.Unlock()
	if exists {
		return
	}
	_, span := tracer.Start(ctx, "dispatch_task", trace.WithAttributes(
		attribute.Int64("task.id", int64(t.ID)),
		attribute.String("task.worker", worker),
		attribute.Int("task.items", len(t.Buffer)),
	))
	o.spanMu.Lock()
	o.spans[t.ID] = span
	o.spanMu.Unlock()
}

func (o *Orchestrator) endSpan(taskID uint64) {
	o.spanMu.Lock()
	span, ok := o.spans[taskID]
	if ok {
		delete(o.spans, taskID)
	}
	o.spanMu.Unlock()
	if ok {
		span.End()
	}
}

// Dispatch runs the chunker for spec and then the dispatch loop,
// blocking until either a FOUND arrives (which cancels the remaining
// run, per SPEC_FULL §9's resolution of the open question) or every
// task reports DONE. Returns the run's Result.
func (o *Orchestrator) Dispatch(ctx context.Context, candidates task.Source, spec task.ChunkSpec) Result {
	o.startTime = time.Now()

	tasks, total, fingerprint := o.chunkAll(candidates, spec)
	o.Registry.SetTotal(total)
	if o.Metrics != nil {
		o.Metrics.PendingTasks.Set(float64(total))
	}
	if o.Log != nil {
		o.Log.RunStarted(total, fingerprint)
	}

	go func() {
		for _, t := range tasks {
			o.Registry.Enqueue(t)
		}
	}()

	if total == 0 {
		return Result{Elapsed: time.Since(o.startTime)}
	}

	go o.dispatchLoop(ctx)

	select {
	case r := <-o.result:
		return r
	case <-ctx.Done():
		o.Registry.Close()
		return Result{Elapsed: time.Since(o.startTime)}
	}
}

// chunkAll materializes the full task sequence (so the run fingerprint
// can be computed up front) and returns it alongside its count and
// Merkle-root fingerprint (SPEC_FULL §4.5).
func (o *Orchestrator) chunkAll(candidates task.Source, spec task.ChunkSpec) ([]*task.Task, int, string) {
	out := make(chan *task.Task, 256)
	go func() {
		task.Chunk(candidates, spec, &o.ids, out)
		close(out)
	}()

	var tasks []*task.Task
	var fingerprints []string
	for t := range out {
		tasks = append(tasks, t)
		fingerprints = append(fingerprints, t.Fingerprint())
	}

	root, err := task.MerkleRoot(fingerprints)
	if err != nil && o.Log != nil {
		o.Log.Error(err, "failed to compute run fingerprint")
	}
	return tasks, len(tasks), root
}

// dispatchLoop is the coordinator's sole task-sending goroutine: it
// pulls from the pending deque and the slot vector and keeps the
// round-robin counter i (spec.md §4.3). It advances i only on a
// successful send, exactly as the original requires.
func (o *Orchestrator) dispatchLoop(ctx context.Context) {
	i := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w, ok := o.Registry.NextSlot(i)
		if !ok {
			return
		}

		t, ok := o.Registry.Dequeue()
		if !ok {
			return
		}

		if err := w.Conn.Send(t.EncodeMessage()...); err != nil {
			if o.Log != nil {
				o.Log.Error(err, "failed to send task, worker will be reassigned on disconnect")
			}
			o.Registry.Requeue(t)
			continue
		}
		o.Registry.MarkInFlight(w, t)
		o.startSpan(ctx, t, w.Addr)
		if o.Metrics != nil {
			o.Metrics.RecordDispatch()
		}
		if o.Log != nil {
			o.Log.TaskDispatched(t.ID, w.Addr, len(t.Buffer))
		}
		i++
	}
}

// OnConnect registers a handshaked worker's capacity.
func (o *Orchestrator) OnConnect(w *Worker) {
	o.Registry.AddWorker(w)
	if o.Metrics != nil {
		o.Metrics.RecordWorkerConnect(int(w.Cores))
	}
	if o.Log != nil {
		o.Log.WorkerConnected(w.Addr, w.Cores)
	}
}

// OnDisconnect removes w's slots and reassigns its in-flight work.
func (o *Orchestrator) OnDisconnect(w *Worker) {
	reassigned := o.Registry.RemoveWorker(w)
	if o.Metrics != nil {
		o.Metrics.RecordWorkerDisconnect(int(w.Cores))
		for range reassigned {
			o.Metrics.RecordReassign()
		}
	}
	if o.Log != nil {
		o.Log.WorkerDisconnected(w.Addr, len(reassigned))
		for _, t := range reassigned {
			o.Log.TaskReassigned(t.ID, w.Addr)
		}
	}
}

// OnMessage dispatches a FOUND or DONE report. fields is the frame's
// field list with the message tag already stripped.
func (o *Orchestrator) OnMessage(w *Worker, msgType string, fields [][]byte) {
	switch msgType {
	case "FOUND":
		taskID, candidate, err := task.DecodeFound(fields)
		if err != nil {
			if o.Log != nil {
				o.Log.Error(err, "malformed FOUND frame")
			}
			return
		}
		o.finish(w, taskID, false)
		o.reportFound(taskID, candidate)

	case "DONE":
		taskID, err := task.DecodeDone(fields)
		if err != nil {
			if o.Log != nil {
				o.Log.Error(err, "malformed DONE frame")
			}
			return
		}
		o.finish(w, taskID, true)
		if o.Log != nil {
			o.Log.TaskDone(taskID, w.Addr)
		}

	default:
		if o.Log != nil {
			o.Log.Warn("unknown message type: " + msgType)
		}
	}
}

// finish moves taskID to the finished list. reportCompletion is false
// for a FOUND, whose result reportFound delivers instead.
func (o *Orchestrator) finish(w *Worker, taskID uint64, reportCompletion bool) {
	_, complete := o.Registry.Finish(w, taskID)
	complete = complete && reportCompletion
	o.endSpan(taskID)
	if o.Metrics != nil {
		o.Metrics.RecordCompletion()
		o.Metrics.HashRate.Set(o.hashRate())
	}
	if complete {
		o.Registry.Close()
		if o.Log != nil {
			o.Log.RunFinished(false, "", time.Since(o.startTime), o.hashRate())
		}
		o.result <- Result{
			Found:    false,
			Elapsed:  time.Since(o.startTime),
			HashRate: o.hashRate(),
		}
	}
}

func (o *Orchestrator) reportFound(taskID uint64, candidate string) {
	o.Registry.Close()
	select {
	case o.result <- Result{
		Found:     true,
		Candidate: candidate,
		TaskID:    taskID,
		Elapsed:   time.Since(o.startTime),
		HashRate:  o.hashRate(),
	}:
	default:
	}
	if o.Log != nil {
		o.Log.RunFinished(true, candidate, time.Since(o.startTime), o.hashRate())
	}
}

// hashRate computes candidates-hashed-per-second over every finished
// task's expanded length (spec.md §4.3's aggregate throughput figure).
func (o *Orchestrator) hashRate() float64 {
	elapsed := time.Since(o.startTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	var total int64
	for _, t := range o.Registry.FinishedTasks() {
		n, err := task.ExpandedLength(t.Buffer)
		if err != nil {
			continue
		}
		total += n
	}
	return float64(total) / elapsed
}
