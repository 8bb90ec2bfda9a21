package coordinator

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/hashforge/cluster/internal/config"
	"github.com/hashforge/cluster/internal/handshake"
	"github.com/hashforge/cluster/internal/observability"
	"github.com/hashforge/cluster/internal/ratelimit"
	"github.com/hashforge/cluster/internal/wire"
)

// Server owns the worker-facing TCP listener and the operator-facing
// HTTP surface. It wires accepted connections through the handshake
// and into an Orchestrator, mirroring the original's
// SocketServer.__connection_manager / __handle_client split: one
// goroutine accepts, one goroutine per connection runs its receive
// loop.
type Server struct {
	cfg   *config.CoordinatorConfig
	orch  *Orchestrator
	log   *observability.Logger
	limit *ratelimit.TokenBucket

	listener net.Listener
	httpSrv  *http.Server
}

// NewServer builds a Server. Call ListenAndServe to start accepting.
func NewServer(cfg *config.CoordinatorConfig, orch *Orchestrator, log *observability.Logger, metrics *observability.Metrics, health *observability.HealthChecker) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/healthz", health.Handler())

	return &Server{
		cfg:   cfg,
		orch:  orch,
		log:   log,
		limit: ratelimit.NewTokenBucket(cfg.ConnectRate, cfg.ConnectBurst),
		httpSrv: &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: mux,
		},
	}
}

// Bind opens the worker-facing TCP listener. Callers should check its
// error before treating the server as up; ListenAndServe calls it
// automatically if it hasn't run yet. Returns a BIND_FAILURE error
// (spec.md §7) on failure.
func (s *Server) Bind() error {
	if s.listener != nil {
		return nil
	}
	ln, err := listenTCPWithBacklog(s.cfg.ListenAddr, s.cfg.Backlog)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.cfg.ListenAddr, err)
	}
	s.listener = ln
	fmt.Printf("Server listening on %s\n", s.cfg.ListenAddr)
	return nil
}

// ListenAndServe binds the worker listener and the operator HTTP
// surface, then runs the accept loop until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Bind(); err != nil {
		return err
	}

	go func() {
		if s.cfg.MetricsAddr == "" {
			return // operator HTTP surface disabled
		}
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.log != nil {
				s.log.Error(err, "operator HTTP surface failed")
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.httpSrv.Close()
		s.listener.Close()
	}()

	return s.acceptLoop(ctx)
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.limit.Wait(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	wc := wire.New(conn)
	addr := conn.RemoteAddr().String()

	cores, err := handshake.ServerHandshake(wc)
	if err != nil {
		if s.log != nil {
			s.log.Error(err, "handshake failed, closing "+addr)
		}
		conn.Close()
		return
	}
	if cores == 0 {
		// spec.md §8: a worker declaring zero cores contributes no
		// slots and is not registered.
		conn.Close()
		return
	}

	w := &Worker{Conn: wc, Addr: addr, Cores: cores}
	s.orch.OnConnect(w)
	defer s.orch.OnDisconnect(w)

	for {
		_, fields, err := wc.Receive(2)
		if err != nil {
			if s.log != nil {
				s.log.Error(err, "connection error, closing "+addr)
			}
			return
		}
		if fields == nil {
			return // clean EOF
		}
		if len(fields) < 2 {
			if s.log != nil {
				s.log.Warn("malformed message from " + addr)
			}
			continue
		}
		s.orch.OnMessage(w, string(fields[0]), fields[1:])
	}
}
