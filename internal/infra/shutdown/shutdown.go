// Package shutdown provides graceful shutdown handling.
package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Reason records why shutdown started.
type Reason string

// Shutdown reasons.
const (
	ReasonNone       Reason = ""
	ReasonSignal     Reason = "signal"
	ReasonRemoteStop Reason = "remote-stop"
	ReasonFatal      Reason = "fatal"
)

// Controller handles graceful shutdown.
type Controller struct {
	timeout time.Duration
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	hooks   []func(context.Context) error
	reason  Reason
	stopped bool
	err     error
	done    chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used to report shutdown progress.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController creates a controller whose context derives from parent.
// timeout bounds the time given to shutdown hooks.
func NewController(parent context.Context, timeout time.Duration, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(parent)
	c := &Controller{
		timeout: timeout,
		logger:  slog.Default(),
		ctx:     ctx,
		cancel:  cancel,
		hooks:   make([]func(context.Context) error, 0),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Context returns the server root context. It is cancelled by Trigger.
func (c *Controller) Context() context.Context {
	return c.ctx
}

// Trigger starts shutdown. Only the first reason is kept; later calls are
// no-ops apart from logging.
func (c *Controller) Trigger(reason Reason) {
	c.mu.Lock()
	first := c.reason == ReasonNone
	if first {
		c.reason = reason
	}
	c.mu.Unlock()

	if first {
		c.logger.Info("shutdown triggered", "reason", string(reason))
	} else {
		c.logger.Debug("shutdown already triggered", "reason", string(reason))
	}
	c.cancel()
}

// Reason returns the reason passed to the first Trigger call.
func (c *Controller) Reason() Reason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// NotifySignals triggers shutdown on SIGINT. The returned function stops
// signal delivery and must be called when the controller is no longer
// needed.
func (c *Controller) NotifySignals() (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)

	quit := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			c.logger.Info("signal received", "signal", sig.String())
			c.Trigger(ReasonSignal)
		case <-quit:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(quit)
		})
	}
}

// OnShutdown registers a shutdown hook.
// Hooks are called in reverse order of registration.
func (c *Controller) OnShutdown(hook func(context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook)
}

// Shutdown cancels the root context if needed, then runs every hook in
// reverse order under a shared timeout. It runs at most once; later calls
// return the first result. Hook errors are joined.
func (c *Controller) Shutdown() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		<-c.done
		return c.err
	}
	c.stopped = true
	if c.reason == ReasonNone {
		c.reason = ReasonFatal
	}
	hooks := make([]func(context.Context) error, len(c.hooks))
	copy(hooks, c.hooks)
	c.mu.Unlock()

	c.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			c.logger.Error("shutdown hook failed", "error", err)
			errs = append(errs, err)
		}
	}

	c.err = errors.Join(errs...)
	close(c.done)
	return c.err
}

// Wait blocks until shutdown is triggered, then runs Shutdown.
func (c *Controller) Wait() error {
	<-c.ctx.Done()
	return c.Shutdown()
}

// Done returns a channel that closes when shutdown is complete.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}
