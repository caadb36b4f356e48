package connection

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// DefaultTimeout bounds a whole exchange when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// MaxReplySize caps how much of a reply is read.
const MaxReplySize = 1 << 20

// ErrEmptyReply is returned when the server closed the connection without
// writing anything. The stop command is answered this way.
var ErrEmptyReply = errors.New("connection: server closed without reply")

// Config configures a Client.
type Config struct {
	// Addr is host:port of the server.
	Addr string
	// TLSConfig enables TLS. A nil value dials plaintext.
	TLSConfig *tls.Config
	// Timeout bounds dial, write and read together.
	Timeout time.Duration
}

// Client talks to a tlsrest server.
type Client struct {
	cfg Config
}

// NewClient creates a client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{cfg: cfg}
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.cfg.Addr
}

// TLS reports whether the client dials with TLS.
func (c *Client) TLS() bool {
	return c.cfg.TLSConfig != nil
}

// Send writes requestLine and returns the parsed reply.
func (c *Client) Send(ctx context.Context, requestLine string) (*Reply, error) {
	raw, err := c.exchange(ctx, requestLine)
	if err != nil {
		return nil, err
	}
	return ParseReply(raw)
}

// Stop sends the remote stop command. The server answers by closing the
// connection, so ErrEmptyReply means success here.
func (c *Client) Stop(ctx context.Context) error {
	raw, err := c.exchange(ctx, StopRequest)
	if errors.Is(err, ErrEmptyReply) {
		return nil
	}
	if err != nil {
		return err
	}
	reply, err := ParseReply(raw)
	if err != nil {
		return err
	}
	return fmt.Errorf("connection: stop rejected: %s", reply.StatusLine())
}

// StopRequest is the request line of the remote stop command.
const StopRequest = "GET /stop HTTP/1.1"

func (c *Client) exchange(ctx context.Context, requestLine string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("connection: dial %s: %w", c.cfg.Addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := io.WriteString(conn, requestLine); err != nil {
		return nil, fmt.Errorf("connection: write: %w", err)
	}
	closeWrite(conn)

	data, err := io.ReadAll(io.LimitReader(conn, MaxReplySize))
	if len(data) == 0 {
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmptyReply, err)
		}
		return nil, ErrEmptyReply
	}
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("connection: read: %w", err)
	}
	return data, nil
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	if c.cfg.TLSConfig == nil {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", c.cfg.Addr)
	}
	d := tls.Dialer{Config: c.cfg.TLSConfig}
	return d.DialContext(ctx, "tcp", c.cfg.Addr)
}

// closeWrite signals end of request where the transport supports it.
// The server reads once, so a missing half-close is harmless.
func closeWrite(conn net.Conn) {
	type closeWriter interface{ CloseWrite() error }
	if cw, ok := conn.(closeWriter); ok {
		_ = cw.CloseWrite()
	}
}

// RequestLine completes shorthand input into a request line:
// "/add/2/3" becomes "GET /add/2/3 HTTP/1.1". A line that already names
// GET or POST keeps its verb; a protocol suffix is added when missing.
func RequestLine(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	verb, _, _ := strings.Cut(s, " ")
	switch strings.ToUpper(verb) {
	case "GET", "POST":
	default:
		s = "GET " + s
	}
	if !strings.Contains(strings.ToUpper(s), "HTTP/") {
		s += " HTTP/1.1"
	}
	return s
}
