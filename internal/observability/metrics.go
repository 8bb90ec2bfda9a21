package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus series exposed by the coordinator's
// operator HTTP surface (SPEC_FULL §4.3). The worker registers the same
// set but does not update any of them, so they stay at zero there.
type Metrics struct {
	PendingTasks       prometheus.Gauge
	InFlightTasks      prometheus.Gauge
	FinishedTasks      prometheus.Gauge
	ConnectedSlots     prometheus.Gauge
	DispatchesTotal    prometheus.Counter
	ReassignmentsTotal prometheus.Counter
	WorkersTotal       *prometheus.CounterVec
	HashRate           prometheus.Gauge
}

// NewMetrics creates and registers the run's Prometheus series.
func NewMetrics() *Metrics {
	return &Metrics{
		PendingTasks: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hashforge_pending_tasks",
			Help: "Tasks waiting in the pending queue",
		}),
		InFlightTasks: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hashforge_in_flight_tasks",
			Help: "Tasks currently assigned to a worker slot",
		}),
		FinishedTasks: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hashforge_finished_tasks",
			Help: "Tasks reported DONE or FOUND",
		}),
		ConnectedSlots: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hashforge_connected_slots",
			Help: "Capacity slots currently available across connected workers",
		}),
		DispatchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hashforge_dispatches_total",
			Help: "Tasks handed to a worker slot, including reassignments",
		}),
		ReassignmentsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hashforge_reassignments_total",
			Help: "In-flight tasks requeued after their worker disconnected",
		}),
		WorkersTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hashforge_workers_total",
			Help: "Worker connection lifecycle events",
		}, []string{"event"}),
		HashRate: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hashforge_hash_rate",
			Help: "Candidates hashed per second, updated on each completion report",
		}),
	}
}

// RecordDispatch increments the dispatch counter and moves one task
// from pending to in-flight.
func (m *Metrics) RecordDispatch() {
	m.DispatchesTotal.Inc()
	m.PendingTasks.Dec()
	m.InFlightTasks.Inc()
}

// RecordReassign increments the reassignment counter and moves one task
// from in-flight back to pending.
func (m *Metrics) RecordReassign() {
	m.ReassignmentsTotal.Inc()
	m.InFlightTasks.Dec()
	m.PendingTasks.Inc()
}

// RecordCompletion moves one task from in-flight to finished.
func (m *Metrics) RecordCompletion() {
	m.InFlightTasks.Dec()
	m.FinishedTasks.Inc()
}

// RecordWorkerConnect records a successful handshake and adds cores
// slots to the connected-slot gauge.
func (m *Metrics) RecordWorkerConnect(cores int) {
	m.WorkersTotal.WithLabelValues("connected").Inc()
	m.ConnectedSlots.Add(float64(cores))
}

// RecordWorkerDisconnect removes cores slots from the connected-slot
// gauge.
func (m *Metrics) RecordWorkerDisconnect(cores int) {
	m.WorkersTotal.WithLabelValues("disconnected").Inc()
	m.ConnectedSlots.Sub(float64(cores))
}

// Handler exposes the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
