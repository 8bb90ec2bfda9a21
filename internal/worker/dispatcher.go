package worker

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/hashforge/cluster/internal/observability"
	"github.com/hashforge/cluster/internal/task"
	"github.com/hashforge/cluster/internal/wire"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("worker")

// Dispatcher runs the worker's receive loop and launches one goroutine
// per dispatched Task, mirroring TaskHandler.handle_task: a process-wide
// cores_used counter selects core cores_used mod N, modeled here as an
// atomic counter (spec.md §9 "Shared mutable state").
type Dispatcher struct {
	conn    *wire.Conn
	cores   uint32
	log     *observability.Logger
	metrics *observability.Metrics

	coresUsed atomic.Uint64
}

// NewDispatcher creates a Dispatcher bound to an already-handshaked
// connection. cores is the local logical core count used to assign the
// advisory core index reported in logs.
func NewDispatcher(conn *wire.Conn, cores uint32, log *observability.Logger, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{conn: conn, cores: cores, log: log, metrics: metrics}
}

// Run reads frames until the connection closes or a read error occurs.
// Every TASK frame is handed off to its own goroutine; Run itself never
// blocks on a task's compute.
func (d *Dispatcher) Run() error {
	for {
		_, fields, err := d.conn.Receive(-1)
		if err != nil {
			return err
		}
		if fields == nil {
			return nil // clean EOF
		}
		if len(fields) == 0 {
			continue
		}

		switch string(fields[0]) {
		case "TASK":
			t, err := task.DecodeMessage(fields[1:])
			if err != nil {
				if d.log != nil {
					d.log.Error(err, "malformed TASK frame, abandoning")
				}
				continue
			}
			d.dispatch(t)
		default:
			if d.log != nil {
				d.log.Warn("unknown message type: " + string(fields[0]))
			}
		}
	}
}

func (d *Dispatcher) dispatch(t *task.Task) {
	core := d.coresUsed.Add(1) % uint64(d.cores)
	go d.computeAndReport(core, t)
}

func (d *Dispatcher) computeAndReport(core uint64, t *task.Task) {
	_, span := tracer.Start(context.Background(), "compute_task", trace.WithAttributes(
		attribute.Int64("task.id", int64(t.ID)),
		attribute.Int64("task.core", int64(core)),
		attribute.Int("task.items", len(t.Buffer)),
	))
	defer span.End()

	if d.log != nil {
		d.log.Debug("processing task on core " + strconv.FormatUint(core, 10))
	}

	match, found, err := Compute(t)
	if err != nil {
		// spec.md §7 DECODE_ERROR / internal error policy: log and
		// abandon; the task is redelivered once the coordinator
		// notices this connection drop.
		if d.log != nil {
			d.log.Error(err, "task compute failed, abandoning")
		}
		return
	}

	var send [][]byte
	if found {
		send = task.EncodeFound(t.ID, match)
		if d.log != nil {
			d.log.Info("task " + strconv.FormatUint(t.ID, 10) + " found match: " + match)
		}
	} else {
		send = task.EncodeDone(t.ID)
		if d.log != nil {
			d.log.Debug("task " + strconv.FormatUint(t.ID, 10) + " exhausted, no match")
		}
	}

	if err := d.conn.Send(send...); err != nil && d.log != nil {
		d.log.Error(err, "failed to report task result")
	}
}
