//go:build !unix

package tlsserver

import (
	"context"
	"net"
	"strconv"
)

// socket defers all work to net.ListenConfig; the backlog is the OS
// default on these platforms.
type socket struct {
	addr string
}

func newSocket(host string, port int) (*socket, error) {
	return &socket{addr: net.JoinHostPort(host, strconv.Itoa(port))}, nil
}

func (s *socket) bind() error { return nil }

func (s *socket) listen(_ int) (net.Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", s.addr)
	if err != nil {
		return nil, &BindError{Addr: s.addr, Err: err}
	}
	return ln, nil
}

func (s *socket) close() error { return nil }
