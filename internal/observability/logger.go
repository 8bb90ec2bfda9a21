package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog for structured logging.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a new structured logger.
func NewLogger(service, version string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339

	logger := zerolog.New(output).With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Str("host", getHostname()).
		Logger()

	return &Logger{
		logger: logger,
	}
}

// WithRun adds a per-run correlation id to the logger.
func (l *Logger) WithRun(runID string) *Logger {
	return &Logger{
		logger: l.logger.With().Str("run_id", runID).Logger(),
	}
}

// WithWorker adds the remote address of a worker connection to the logger.
func (l *Logger) WithWorker(remoteAddr string) *Logger {
	return &Logger{
		logger: l.logger.With().Str("worker", remoteAddr).Logger(),
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

// Info logs an info message.
func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

// Error logs an error message.
func (l *Logger) Error(err error, msg string) {
	l.logger.Error().Err(err).Msg(msg)
}

// Fatal logs a fatal message and exits.
func (l *Logger) Fatal(err error, msg string) {
	l.logger.Fatal().Err(err).Msg(msg)
}

// WorkerConnected logs a successful handshake and the worker's declared
// core count.
func (l *Logger) WorkerConnected(remoteAddr string, cores uint32) {
	l.logger.Info().
		Str("worker", remoteAddr).
		Uint32("cores", cores).
		Msg("worker connected")
}

// WorkerDisconnected logs a worker dropping off, with any in-flight
// tasks it held (these get reassigned separately).
func (l *Logger) WorkerDisconnected(remoteAddr string, reassigned int) {
	l.logger.Warn().
		Str("worker", remoteAddr).
		Int("reassigned_tasks", reassigned).
		Msg("worker disconnected")
}

// TaskDispatched logs a task handed to a capacity slot.
func (l *Logger) TaskDispatched(taskID uint64, remoteAddr string, items int) {
	l.logger.Debug().
		Uint64("task_id", taskID).
		Str("worker", remoteAddr).
		Int("buffer_items", items).
		Msg("task dispatched")
}

// TaskReassigned logs a pending-queue requeue after a disconnect.
func (l *Logger) TaskReassigned(taskID uint64, fromAddr string) {
	l.logger.Info().
		Uint64("task_id", taskID).
		Str("from_worker", fromAddr).
		Msg("task reassigned")
}

// TaskFound logs a worker reporting a match.
func (l *Logger) TaskFound(taskID uint64, remoteAddr, candidate string) {
	l.logger.Info().
		Uint64("task_id", taskID).
		Str("worker", remoteAddr).
		Str("candidate", candidate).
		Msg("preimage found")
}

// TaskDone logs a worker reporting exhaustion without a match.
func (l *Logger) TaskDone(taskID uint64, remoteAddr string) {
	l.logger.Debug().
		Uint64("task_id", taskID).
		Str("worker", remoteAddr).
		Msg("task exhausted")
}

// RunStarted logs the beginning of dispatch for a chunked key space.
func (l *Logger) RunStarted(totalTasks int, fingerprint string) {
	l.logger.Info().
		Int("total_tasks", totalTasks).
		Str("fingerprint", fingerprint).
		Msg("run dispatch started")
}

// RunFinished logs the end of a run, successful or not.
func (l *Logger) RunFinished(found bool, candidate string, elapsed time.Duration, hashesPerSecond float64) {
	l.logger.Info().
		Bool("found", found).
		Str("candidate", candidate).
		Float64("elapsed_seconds", elapsed.Seconds()).
		Float64("hashes_per_second", hashesPerSecond).
		Msg("run finished")
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
