//go:build linux

package coordinator

import (
	"fmt"
	"net"
	"os"
	"syscall"
)

// listenTCPWithBacklog binds addr and calls listen(2) with an explicit
// backlog, unlike net.Listen, whose backlog comes from
// /proc/sys/net/core/somaxconn and ignores anything the caller passes.
// Grounded in original/server/socket_server.py's
// self.sock.listen(self.listen), which honors a caller-supplied backlog
// directly (spec.md §6: "listen backlog 1000").
func listenTCPWithBacklog(addr string, backlog int) (net.Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}

	ip4 := tcpAddr.IP.To4()
	ipv6 := tcpAddr.IP != nil && ip4 == nil

	domain := syscall.AF_INET
	if ipv6 {
		domain = syscall.AF_INET6
	}

	fd, err := syscall.Socket(domain, syscall.SOCK_STREAM, syscall.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	// Closed once handed to os.NewFile/net.FileListener, which dup it.
	defer syscall.Close(fd)

	if err := syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
		return nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}

	if ipv6 {
		var sa syscall.SockaddrInet6
		copy(sa.Addr[:], tcpAddr.IP.To16())
		sa.Port = tcpAddr.Port
		if err := syscall.Bind(fd, &sa); err != nil {
			return nil, fmt.Errorf("bind %s: %w", addr, err)
		}
	} else {
		var sa syscall.SockaddrInet4
		if ip4 == nil {
			ip4 = net.IPv4zero.To4()
		}
		copy(sa.Addr[:], ip4)
		sa.Port = tcpAddr.Port
		if err := syscall.Bind(fd, &sa); err != nil {
			return nil, fmt.Errorf("bind %s: %w", addr, err)
		}
	}

	if backlog <= 0 {
		backlog = 1000
	}
	if err := syscall.Listen(fd, backlog); err != nil {
		return nil, fmt.Errorf("listen backlog=%d: %w", backlog, err)
	}

	f := os.NewFile(uintptr(fd), "hashforge-coordinator-listener")
	defer f.Close()

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, fmt.Errorf("file listener: %w", err)
	}
	return ln, nil
}
