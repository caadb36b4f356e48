package tlsserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/tlsrest/internal/infra/shutdown"
	"github.com/yndnr/tlsrest/internal/telemetry/metric"
)

// scriptedListener replays a fixed sequence of Accept results, then
// blocks until closed.
type scriptedListener struct {
	mu      sync.Mutex
	steps   []func() (net.Conn, error)
	accepts int

	closeOnce sync.Once
	closed    chan struct{}
}

func newScriptedListener(steps ...func() (net.Conn, error)) *scriptedListener {
	return &scriptedListener{steps: steps, closed: make(chan struct{})}
}

func (l *scriptedListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	l.accepts++
	var step func() (net.Conn, error)
	if len(l.steps) > 0 {
		step, l.steps = l.steps[0], l.steps[1:]
	}
	l.mu.Unlock()

	if step != nil {
		return step()
	}
	<-l.closed
	return nil, net.ErrClosed
}

func (l *scriptedListener) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}

func (l *scriptedListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8443}
}

func (l *scriptedListener) isClosed() bool {
	select {
	case <-l.closed:
		return true
	default:
		return false
	}
}

func (l *scriptedListener) acceptCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accepts
}

// gaugeValue reads a single-series gauge from reg.
func gaugeValue(t *testing.T, reg *metric.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name && len(mf.GetMetric()) > 0 {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	return 0
}

func TestServer_AcceptErrors(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	acceptFailure := errors.New("accept: too many open files")
	ln := newScriptedListener(
		func() (net.Conn, error) {
			return nil, &net.OpError{Op: "accept", Net: "tcp", Err: os.NewSyscallError("accept", syscall.EINTR)}
		},
		func() (net.Conn, error) { return server, nil },
		func() (net.Conn, error) { return nil, acceptFailure },
	)

	reg := metric.NewRegistry()
	l, logs := testLogger(t)
	cfg := DefaultConfig(t.TempDir())
	cfg.Workers = 1
	srv := New(cfg, WithLogger(l), WithMetrics(reg))
	if err := srv.attach(ln); err != nil {
		t.Fatalf("attach() error = %v", err)
	}
	t.Cleanup(func() { _ = srv.Close(context.Background()) })

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(context.Background()) }()

	// The connection accepted after the retry is served.
	_ = client.SetDeadline(time.Now().Add(5 * time.Second))
	if _, err := io.WriteString(client, "GET /add/1/1 HTTP/1.1"); err != nil {
		t.Fatalf("write error = %v", err)
	}
	resp, _ := io.ReadAll(client)
	if !strings.Contains(string(resp), "1 + 1 = 2") {
		t.Errorf("response = %q", resp)
	}

	var err error
	select {
	case err = <-errCh:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after accept failure")
	}

	var acceptErr *AcceptError
	if !errors.As(err, &acceptErr) {
		t.Fatalf("Run() error = %v, want *AcceptError", err)
	}
	if !errors.Is(err, acceptFailure) {
		t.Errorf("Run() error does not wrap the accept failure: %v", err)
	}
	if got := ln.acceptCalls(); got != 3 {
		t.Errorf("Accept() called %d times, want 3", got)
	}
	if !ln.isClosed() {
		t.Error("listener not closed after accept failure")
	}
	if !strings.Contains(logs.String(), "accept interrupted, retrying") {
		t.Error("EINTR retry not logged")
	}

	const want = `
# HELP tlsrest_server_accept_interrupted_total Accept calls interrupted by a signal and retried
# TYPE tlsrest_server_accept_interrupted_total counter
tlsrest_server_accept_interrupted_total 1
`
	if err := testutil.GatherAndCompare(reg.Gatherer(), strings.NewReader(want), "tlsrest_server_accept_interrupted_total"); err != nil {
		t.Error(err)
	}
}

func TestServer_CloseHonoursDeadline(t *testing.T) {
	reg := metric.NewRegistry()
	ts := startServer(t, false, WithMetrics(reg))

	idle := ts.dial(t)
	t.Cleanup(func() { idle.Close() })

	waitFor(t, "busy worker", func() bool {
		return gaugeValue(t, reg, "tlsrest_pool_busy_workers") == 1
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := ts.Close(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Close() error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Close() took %s with a 200ms deadline", elapsed)
	}
	if ts.State() == StateStopped {
		t.Error("State() = stopped while a request is still running")
	}

	// Once the client goes away the drain completes.
	idle.Close()
	if err := ts.Close(context.Background()); err != nil {
		t.Errorf("Close() after drain error = %v", err)
	}
	if ts.State() != StateStopped {
		t.Errorf("State() = %s, want stopped", ts.State())
	}
}

func TestServer_ShutdownWithIdleClient(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	ctrl := shutdown.NewController(context.Background(), 200*time.Millisecond)
	reg := metric.NewRegistry()
	l, _ := testLogger(t)
	srv := New(cfg, WithLogger(l), WithMetrics(reg), WithShutdownTrigger(ctrl))
	if err := srv.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	ctrl.OnShutdown(srv.Close)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctrl.Context()) }()

	idle, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer idle.Close()
	waitFor(t, "busy worker", func() bool {
		return gaugeValue(t, reg, "tlsrest_pool_busy_workers") == 1
	})

	ctrl.Trigger(shutdown.ReasonSignal)

	done := make(chan error, 1)
	go func() { done <- ctrl.Shutdown() }()
	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Shutdown() error = %v, want deadline exceeded", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Shutdown() still blocked with an idle client")
	}
	select {
	case <-errCh:
	case <-time.After(3 * time.Second):
		t.Fatal("Run() did not return")
	}
}

func TestServer_ConcurrentOpen(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	srv := New(cfg)
	t.Cleanup(func() { _ = srv.Close(context.Background()) })

	const n = 4
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- srv.Open()
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		}
	}
	if ok != 1 {
		t.Errorf("%d Open() calls succeeded, want 1", ok)
	}
	if srv.State() != StateListening {
		t.Errorf("State() = %s, want listening", srv.State())
	}
}

func TestServer_VerbLabelsBounded(t *testing.T) {
	reg := metric.NewRegistry()
	ts := startServer(t, false, WithMetrics(reg))

	for i := 0; i < 20; i++ {
		ts.roundTrip(t, fmt.Sprintf("VERB%d /x/y HTTP/1.1", i))
	}
	ts.roundTrip(t, "GET /add/1/1 HTTP/1.1")

	waitFor(t, "audited requests", func() bool {
		return strings.Count(ts.auditLog(t), "/x/y") == 20
	})
	n, err := testutil.GatherAndCount(reg.Gatherer(), "tlsrest_server_requests_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if n != 2 {
		t.Errorf("requests_total series = %d, want 2", n)
	}
}
