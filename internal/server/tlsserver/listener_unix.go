//go:build unix

package tlsserver

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// socket is a TCP socket driven through bind and listen explicitly so the
// backlog can be chosen.
type socket struct {
	addr string
	fd   int
	sa   unix.Sockaddr
}

func newSocket(host string, port int) (*socket, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, &SocketError{Op: "resolve " + addr, Err: err}
	}

	domain, sa := sockaddr(tcpAddr)
	fd, err := unix.Socket(domain, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, &SocketError{Op: "socket", Err: err}
	}
	unix.CloseOnExec(fd)

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, &SocketError{Op: "setsockopt SO_REUSEADDR", Err: err}
	}

	return &socket{addr: addr, fd: fd, sa: sa}, nil
}

func sockaddr(a *net.TCPAddr) (int, unix.Sockaddr) {
	if ip4 := a.IP.To4(); ip4 != nil || a.IP == nil {
		sa := &unix.SockaddrInet4{Port: a.Port}
		if ip4 != nil {
			copy(sa.Addr[:], ip4)
		}
		return unix.AF_INET, sa
	}
	sa := &unix.SockaddrInet6{Port: a.Port}
	copy(sa.Addr[:], a.IP.To16())
	return unix.AF_INET6, sa
}

func (s *socket) bind() error {
	if err := unix.Bind(s.fd, s.sa); err != nil {
		return &BindError{Addr: s.addr, Err: err}
	}
	return nil
}

// listen starts listening and hands the descriptor to the runtime poller.
// The socket must not be used afterwards.
func (s *socket) listen(backlog int) (net.Listener, error) {
	if err := unix.Listen(s.fd, backlog); err != nil {
		return nil, &ListenError{Addr: s.addr, Err: err}
	}

	f := os.NewFile(uintptr(s.fd), "tcp:"+s.addr)
	defer f.Close()
	s.fd = -1

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, &ListenError{Addr: s.addr, Err: fmt.Errorf("file listener: %w", err)}
	}
	return ln, nil
}

func (s *socket) close() error {
	if s.fd < 0 {
		return nil
	}
	err := unix.Close(s.fd)
	s.fd = -1
	return err
}
