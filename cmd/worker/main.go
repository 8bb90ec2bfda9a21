// Command worker connects to a coordinator and computes dispatched
// Tasks across the local logical cores until the connection closes.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashforge/cluster/internal/config"
	"github.com/hashforge/cluster/internal/observability"
	"github.com/hashforge/cluster/internal/worker"
)

func main() {
	cfg := config.DefaultWorkerConfig()

	coordinatorAddr := flag.String("coordinator", cfg.CoordinatorAddr, "coordinator TCP address to connect to")
	cores := flag.Int("cores", cfg.Cores, "logical cores to declare and compute across (0 = runtime.NumCPU())")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "HTTP address for /metrics and /healthz")
	reconnectDelay := flag.Duration("reconnect-delay", 2*time.Second, "delay before retrying a dropped connection")
	flag.Parse()

	cfg.CoordinatorAddr = *coordinatorAddr
	if *cores > 0 {
		cfg.Cores = *cores
	}
	cfg.MetricsAddr = *metricsAddr

	log := observability.NewLogger("worker", "1.0.0", os.Stdout).WithWorker(cfg.CoordinatorAddr)
	metrics := observability.NewMetrics()
	health := observability.NewHealthChecker("1.0.0")
	health.RegisterCheck("coordinator", observability.ListenerCheck(cfg.CoordinatorAddr, true))

	if shutdown, err := observability.InitTracing(context.Background(), "worker"); err == nil {
		defer shutdown(context.Background())
	} else {
		log.Error(err, "tracing init failed, continuing without it")
	}

	go serveObservability(cfg.MetricsAddr, metrics, health, log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	stop := make(chan struct{})
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		close(stop)
	}()

	for {
		select {
		case <-stop:
			return
		default:
		}

		d, err := worker.Dial(cfg.CoordinatorAddr, uint32(cfg.Cores), log, metrics)
		if err != nil {
			log.Error(err, "failed to connect to coordinator, retrying")
			sleepOrStop(*reconnectDelay, stop)
			continue
		}

		log.Info(fmt.Sprintf("connected to %s declaring %d cores", cfg.CoordinatorAddr, cfg.Cores))
		if err := d.Run(); err != nil {
			log.Error(err, "lost connection to coordinator, retrying")
		}
		sleepOrStop(*reconnectDelay, stop)
	}
}

func sleepOrStop(d time.Duration, stop <-chan struct{}) {
	select {
	case <-time.After(d):
	case <-stop:
	}
}

func serveObservability(addr string, metrics *observability.Metrics, health *observability.HealthChecker, log *observability.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/healthz", health.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error(err, "worker observability surface failed")
	}
}
