// Command coordinator runs the cluster coordinator: it partitions a
// key space into Tasks, dispatches them to connected workers, and
// reports the first FOUND preimage or confirms the space is exhausted.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/hashforge/cluster/internal/config"
	"github.com/hashforge/cluster/internal/coordinator"
	"github.com/hashforge/cluster/internal/observability"
	"github.com/hashforge/cluster/internal/task"
)

// rangeItemCount returns the number of stride-wide range strings
// RangeSource(start, end, stride) will produce.
func rangeItemCount(start, end, stride int64) int64 {
	if end <= start || stride <= 0 {
		return 0
	}
	n := (end - start) / stride
	if (end-start)%stride != 0 {
		n++
	}
	return n
}

func main() {
	cfg := config.DefaultCoordinatorConfig()

	listenAddr := flag.String("listen", cfg.ListenAddr, "TCP address to accept worker connections on")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "HTTP address for /metrics and /healthz")
	connectRate := flag.Float64("connect-rate", cfg.ConnectRate, "max new worker connections accepted per second")
	connectBurst := flag.Int("connect-burst", cfg.ConnectBurst, "burst size for the connection rate limiter")
	action := flag.String("action", cfg.Action, "hash function: MD5 or SHA256")
	digest := flag.String("digest", "", "target digest, lowercase hex (required)")
	rangeStart := flag.Int64("range-start", 0, "first candidate in the numeric key space (inclusive)")
	rangeEnd := flag.Int64("range-end", 0, "last candidate in the numeric key space (exclusive, required)")
	stride := flag.Int64("stride", cfg.Stride, "candidates per produced range string before chunking")
	chunkCount := flag.Int("chunk-count", cfg.ChunkCount, "number of tasks to partition the run into")
	maxChunkSize := flag.Int64("max-chunk-size", 0, "cap on candidates per task; raises chunk-count if exceeded (0 disables)")
	wait := flag.Bool("wait-for-enter", true, "wait for an Enter keypress before dispatching")
	flag.Parse()

	cfg.ListenAddr = *listenAddr
	cfg.MetricsAddr = *metricsAddr
	cfg.ConnectRate = *connectRate
	cfg.ConnectBurst = *connectBurst
	cfg.Action = strings.ToUpper(*action)
	cfg.Digest = strings.ToLower(*digest)
	cfg.RangeStart = *rangeStart
	cfg.RangeEnd = *rangeEnd
	cfg.Stride = *stride
	cfg.ChunkCount = *chunkCount
	cfg.MaxChunkSize = *maxChunkSize

	if cfg.Digest == "" {
		fmt.Fprintln(os.Stderr, "coordinator: -digest is required")
		os.Exit(1)
	}
	if cfg.RangeEnd <= cfg.RangeStart {
		fmt.Fprintln(os.Stderr, "coordinator: -range-end must be greater than -range-start")
		os.Exit(1)
	}
	var actionKind task.Action
	switch cfg.Action {
	case "MD5":
		actionKind = task.ActionMD5
	case "SHA256":
		actionKind = task.ActionSHA256
	default:
		fmt.Fprintf(os.Stderr, "coordinator: unknown action %q (want MD5 or SHA256)\n", cfg.Action)
		os.Exit(1)
	}

	runID := uuid.New().String()
	log := observability.NewLogger("coordinator", "1.0.0", os.Stdout).WithRun(runID)
	metrics := observability.NewMetrics()
	health := observability.NewHealthChecker("1.0.0")

	if shutdown, err := observability.InitTracing(context.Background(), "coordinator"); err == nil {
		defer shutdown(context.Background())
	} else {
		log.Error(err, "tracing init failed, continuing without it")
	}

	orch := coordinator.NewOrchestrator(1024, metrics, log)
	health.RegisterCheck("registry", func(ctx context.Context) observability.ComponentHealth {
		return observability.RegistryCheck(orch.Registry.ConnectedSlots())(ctx)
	})

	srv := coordinator.NewServer(cfg, orch, log, metrics, health)
	if err := srv.Bind(); err != nil {
		log.Fatal(err, "coordinator failed to start")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe(ctx) }()

	if *wait {
		fmt.Println("Workers may now connect. Press Enter to begin dispatching tasks.")
		bufio.NewReader(os.Stdin).ReadString('\n')
	}

	candidates := task.RangeSource(cfg.RangeStart, cfg.RangeEnd, cfg.Stride)
	spec := task.ChunkSpec{
		// TotalSize counts the range-string items the Source produces,
		// not the raw candidate count it is stride-grouped from.
		TotalSize:    rangeItemCount(cfg.RangeStart, cfg.RangeEnd, cfg.Stride),
		ChunkCount:   cfg.ChunkCount,
		MaxChunkSize: cfg.MaxChunkSize,
		Action:       actionKind,
		Digest:       cfg.Digest,
	}

	result := orch.Dispatch(ctx, candidates, spec)

	if result.Found {
		fmt.Printf("FOUND: %s (task %d, %.0f hashes/sec, %s elapsed)\n", result.Candidate, result.TaskID, result.HashRate, result.Elapsed)
	} else {
		fmt.Printf("DONE: key space exhausted, no match (%.0f hashes/sec, %s elapsed)\n", result.HashRate, result.Elapsed)
	}

	cancel()
	<-serveErr
}
