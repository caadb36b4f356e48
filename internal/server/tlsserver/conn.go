package tlsserver

import (
	"crypto/tls"
	"net"
	"sync/atomic"
)

// Conn is an accepted client connection, optionally wrapped in TLS.
// It is owned by the accept goroutine until submitted to the pool and by
// the request task afterwards.
type Conn struct {
	id      string
	netConn net.Conn
	tlsConn *tls.Conn

	closed atomic.Bool
}

func newConn(id string, raw net.Conn, tc *tls.Conn) *Conn {
	c := &Conn{id: id, netConn: raw, tlsConn: tc}
	if tc != nil {
		c.netConn = tc
	}
	return c
}

// ID returns the request ID assigned on accept.
func (c *Conn) ID() string { return c.id }

// RemoteAddr returns the client address.
func (c *Conn) RemoteAddr() net.Addr { return c.netConn.RemoteAddr() }

// Read reads from the connection.
func (c *Conn) Read(p []byte) (int, error) { return c.netConn.Read(p) }

// Write writes to the connection.
func (c *Conn) Write(p []byte) (int, error) { return c.netConn.Write(p) }

// Close releases the connection. On TLS connections it first sends
// close_notify. It does not wait for the peer's close_notify. Only the
// first call has any effect.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.tlsConn != nil {
		_ = c.tlsConn.CloseWrite()
	}
	return c.netConn.Close()
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool { return c.closed.Load() }
