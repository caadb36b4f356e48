package tlsserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/tlsrest/internal/core/parse"
	"github.com/yndnr/tlsrest/internal/core/service"
	"github.com/yndnr/tlsrest/internal/infra/shutdown"
	"github.com/yndnr/tlsrest/internal/server/workerpool"
	"github.com/yndnr/tlsrest/internal/storage/auditlog"
	"github.com/yndnr/tlsrest/internal/telemetry/logger"
	"github.com/yndnr/tlsrest/internal/telemetry/metric"
)

// State is the server lifecycle state.
type State int32

const (
	StateCreated State = iota
	StateBound
	StateListening
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateBound:
		return "bound"
	case StateListening:
		return "listening"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Default configuration values.
const (
	DefaultPort           = 8443
	DefaultBacklog        = 5
	DefaultWorkers        = 5
	DefaultReadBufferSize = 4096
)

// Config holds the server configuration.
type Config struct {
	// Host is the address to bind; empty means all interfaces.
	Host string
	// Port is the TCP port to bind.
	Port int
	// Backlog is the listen queue length (default: 5).
	Backlog int
	// Workers is the pool size (default: 5).
	Workers int
	// ReadBufferSize bounds the single read of a request (default: 4096).
	ReadBufferSize int
	// AcceptRate limits accepted connections per second. 0 disables it.
	AcceptRate float64
	// AcceptBurst is the limiter burst (default: 1 when AcceptRate is set).
	AcceptBurst int
	// TLSConfig enables TLS. A nil value serves plaintext.
	TLSConfig *tls.Config
	// Audit configures the audit log.
	Audit auditlog.Config
}

// DefaultConfig returns the default configuration with the audit log in dir.
func DefaultConfig(dir string) Config {
	return Config{
		Port:           DefaultPort,
		Backlog:        DefaultBacklog,
		Workers:        DefaultWorkers,
		ReadBufferSize: DefaultReadBufferSize,
		Audit:          auditlog.DefaultConfig(dir),
	}
}

// ShutdownTrigger starts a graceful shutdown of the process.
type ShutdownTrigger interface {
	Trigger(reason shutdown.Reason)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics attaches a metric registry.
func WithMetrics(r *metric.Registry) Option {
	return func(s *Server) {
		s.registry = r
	}
}

// WithDispatcher replaces the built-in command dispatcher.
func WithDispatcher(d service.Dispatcher) Option {
	return func(s *Server) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// WithTokenizer replaces the default request tokenizer.
func WithTokenizer(t parse.Tokenizer) Option {
	return func(s *Server) {
		if t != nil {
			s.tokenizer = t
		}
	}
}

// WithShutdownTrigger sets who is told about a remote stop request.
func WithShutdownTrigger(t ShutdownTrigger) Option {
	return func(s *Server) {
		s.trigger = t
	}
}

// Server accepts connections and serves them on a worker pool.
type Server struct {
	cfg        Config
	log        logger.Logger
	registry   *metric.Registry
	metrics    *metric.ServerMetrics
	dispatcher service.Dispatcher
	tokenizer  parse.Tokenizer
	trigger    ShutdownTrigger
	limiter    *rate.Limiter

	state         atomic.Int32
	stopRequested atomic.Bool

	mu        sync.Mutex
	ln        net.Listener
	pool      *workerpool.Pool
	audit     *auditlog.Writer
	cancelRun context.CancelFunc
	closeOnce sync.Once
	closeErr  error
	drained   chan struct{}
}

// New creates a server. It does not touch the network until Open.
func New(cfg Config, opts ...Option) *Server {
	applyDefaults(&cfg)

	s := &Server{
		cfg:        cfg,
		log:        logger.Default(),
		dispatcher: service.NewCommandDispatcher(),
		tokenizer:  parse.MustRegexTokenizer(parse.DefaultPattern),
		drained:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry != nil {
		s.metrics = s.registry.Server
	}
	if cfg.AcceptRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.AcceptRate), cfg.AcceptBurst)
	}
	return s
}

func applyDefaults(cfg *Config) {
	if cfg.Backlog <= 0 {
		cfg.Backlog = DefaultBacklog
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = DefaultReadBufferSize
	}
	if cfg.AcceptRate > 0 && cfg.AcceptBurst <= 0 {
		cfg.AcceptBurst = 1
	}
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Addr returns the listening address, or nil before Open succeeds.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// TLS reports whether connections are served over TLS.
func (s *Server) TLS() bool {
	return s.cfg.TLSConfig != nil
}

// StopRequested reports whether a client sent the remote stop command.
func (s *Server) StopRequested() bool {
	return s.stopRequested.Load()
}

// Open creates the listening socket and the audit log, and starts the
// worker pool. On failure everything acquired so far is released and the
// server returns to StateCreated.
func (s *Server) Open() error {
	if !s.state.CompareAndSwap(int32(StateCreated), int32(StateBound)) {
		return fmt.Errorf("tlsserver: open in state %s", s.State())
	}

	sock, err := newSocket(s.cfg.Host, s.cfg.Port)
	if err != nil {
		s.state.Store(int32(StateCreated))
		return err
	}
	if err := sock.bind(); err != nil {
		_ = sock.close()
		s.state.Store(int32(StateCreated))
		return err
	}

	ln, err := sock.listen(s.cfg.Backlog)
	if err != nil {
		_ = sock.close()
		s.state.Store(int32(StateCreated))
		return err
	}

	if err := s.attach(ln); err != nil {
		_ = ln.Close()
		s.state.Store(int32(StateCreated))
		return err
	}
	return nil
}

// attach opens the audit log and the worker pool around an existing
// listener and moves the server to StateListening.
func (s *Server) attach(ln net.Listener) error {
	auditCfg := s.cfg.Audit
	if auditCfg.Logger == nil {
		auditCfg.Logger = logger.Slog(s.log)
	}
	if auditCfg.Metrics == nil && s.registry != nil {
		auditCfg.Metrics = s.registry.Audit
	}
	audit, err := auditlog.Open(auditCfg)
	if err != nil {
		return &AuditError{Dir: auditCfg.Dir, Err: err}
	}

	poolOpts := []workerpool.Option{workerpool.WithLogger(logger.Slog(s.log))}
	if s.registry != nil {
		poolOpts = append(poolOpts, workerpool.WithMetrics(s.registry.Pool))
	}

	s.mu.Lock()
	s.ln = ln
	s.audit = audit
	s.pool = workerpool.New(s.cfg.Workers, poolOpts...)
	s.mu.Unlock()
	s.state.Store(int32(StateListening))

	s.log.Info("server listening",
		"address", ln.Addr().String(),
		"tls", s.TLS(),
		"workers", s.cfg.Workers,
		"backlog", s.cfg.Backlog,
		"audit_file", audit.Path(),
	)
	return nil
}

// Run accepts connections until ctx is cancelled or a remote stop request
// arrives, then closes the listener. It returns nil on cancellation and an
// *AcceptError when accepting fails otherwise. Run does not drain the
// pool; call Close for that.
func (s *Server) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateListening), int32(StateRunning)) {
		return fmt.Errorf("tlsserver: run in state %s", s.State())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	ln := s.ln
	s.cancelRun = cancel
	s.mu.Unlock()

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stopped:
		}
	}()

	addr := ln.Addr().String()
	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return s.acceptStopped()
			}
		}

		raw, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return s.acceptStopped()
			}
			if errors.Is(err, syscall.EINTR) {
				s.log.Warn("accept interrupted, retrying", "error", err)
				s.metrics.AcceptInterrupted()
				continue
			}
			_ = ln.Close()
			s.log.Error("accept failed", "address", addr, "error", err)
			return &AcceptError{Addr: addr, Err: err}
		}
		s.metrics.Accepted()

		c, ok := s.establish(raw)
		if !ok {
			continue
		}

		reqCtx := context.WithoutCancel(ctx)
		if err := s.pool.Submit(func() { s.serve(reqCtx, c) }); err != nil {
			s.log.Error("submit failed", "remote", c.RemoteAddr().String(), "error", err)
			_ = c.Close()
		}
	}
}

func (s *Server) acceptStopped() error {
	s.log.Info("accept loop stopped", "remote_stop", s.StopRequested())
	return nil
}

// establish assigns a request ID and performs the TLS handshake on the
// calling goroutine. A failed handshake closes the raw connection.
// Cancellation does not interrupt a handshake in progress.
func (s *Server) establish(raw net.Conn) (*Conn, bool) {
	id := ulid.Make().String()
	if s.cfg.TLSConfig == nil {
		return newConn(id, raw, nil), true
	}

	tc := tls.Server(raw, s.cfg.TLSConfig)
	start := time.Now()
	err := tc.Handshake()
	s.metrics.Handshake(time.Since(start), err)
	if err != nil {
		s.log.Warn("tls handshake failed",
			"conn", id,
			"remote", raw.RemoteAddr().String(),
			"error", err,
		)
		_ = raw.Close()
		return nil, false
	}
	return newConn(id, raw, tc), true
}

// requestStop records a remote stop request and starts shutdown.
func (s *Server) requestStop() {
	s.stopRequested.Store(true)
	if s.trigger != nil {
		s.trigger.Trigger(shutdown.ReasonRemoteStop)
	}

	s.mu.Lock()
	cancel := s.cancelRun
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Close closes the listener and stops the worker pool after draining
// queued requests, then closes the audit log. It waits for the drain until
// ctx is done and then returns ctx's error; the drain goes on in the
// background. It is safe to call more than once.
func (s *Server) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		ln, pool, audit := s.ln, s.pool, s.audit
		s.mu.Unlock()

		if ln != nil {
			_ = ln.Close()
		}
		go func() {
			defer close(s.drained)
			if pool != nil {
				pool.Stop()
			}
			if audit != nil {
				if err := audit.Close(); err != nil {
					s.closeErr = fmt.Errorf("close audit log: %w", err)
				}
			}
			s.state.Store(int32(StateStopped))
			s.log.Info("server stopped")
		}()
	})

	select {
	case <-s.drained:
		return s.closeErr
	case <-ctx.Done():
		s.log.Warn("server close abandoned, requests still running",
			"pending", s.pending(),
			"error", ctx.Err(),
		)
		return fmt.Errorf("tlsserver: drain workers: %w", ctx.Err())
	}
}

func (s *Server) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool == nil {
		return 0
	}
	return s.pool.Pending()
}
