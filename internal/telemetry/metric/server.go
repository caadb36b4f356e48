package metric

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
)

// Server exposes a Registry over HTTP at /metrics.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	logger     *slog.Logger
}

// Listen binds addr and returns a server ready to Serve. Binding happens
// here so that address errors surface at startup.
func Listen(addr string, r *Registry, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	return &Server{
		httpServer: &http.Server{Handler: mux},
		listener:   ln,
		logger:     logger,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// ServeAsync serves in a goroutine until Shutdown.
func (s *Server) ServeAsync() {
	go func() {
		s.logger.Info("metrics server listening", "addr", s.listener.Addr().String())
		if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server error", "error", err)
		}
	}()
}

// Shutdown gracefully stops the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
