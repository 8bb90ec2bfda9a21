package worker

import (
	"fmt"
	"net"

	"github.com/hashforge/cluster/internal/handshake"
	"github.com/hashforge/cluster/internal/observability"
	"github.com/hashforge/cluster/internal/wire"
)

// Dial connects to the coordinator at addr, runs the worker side of
// the handshake declaring cores logical cores, and returns a
// Dispatcher ready to Run. log and metrics may be nil.
func Dial(addr string, cores uint32, log *observability.Logger, metrics *observability.Metrics) (*Dispatcher, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	wc := wire.New(conn)
	if err := handshake.ClientHandshake(wc, cores); err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake with %s: %w", addr, err)
	}

	return NewDispatcher(wc, cores, log, metrics), nil
}
