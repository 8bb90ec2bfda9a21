//go:build !linux

package coordinator

import "net"

// listenTCPWithBacklog falls back to net.Listen on non-Linux platforms.
// The backlog argument is ignored here: Go's net.Listen does not expose
// a portable way to pass it through to listen(2), so only the Linux
// build (listen_linux.go) actually honors spec.md §6's "listen backlog
// 1000" requirement.
func listenTCPWithBacklog(addr string, backlog int) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
