package tlsroots

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/tlsrest/internal/infra/filewatch"
)

// DefaultDebounce is long enough that replacing the certificate and then
// the key causes a single reload.
const DefaultDebounce = 500 * time.Millisecond

// Reloader serves the newest valid key pair found at its paths. A pair
// that fails to load leaves the previous one in service.
type Reloader struct {
	certFile string
	keyFile  string
	logger   *slog.Logger
	debounce time.Duration

	cert    atomic.Pointer[tls.Certificate]
	reloads atomic.Int64

	mu    sync.Mutex
	watch *filewatch.Watcher
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*Reloader)

func WithLogger(logger *slog.Logger) ReloaderOption {
	return func(r *Reloader) { r.logger = logger }
}

func WithDebounce(d time.Duration) ReloaderOption {
	return func(r *Reloader) { r.debounce = d }
}

// NewReloader loads the pair once. Watching begins with Start.
func NewReloader(certFile, keyFile string, opts ...ReloaderOption) (*Reloader, error) {
	r := &Reloader{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   slog.Default(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Start watches both files. It is a no-op when already watching.
func (r *Reloader) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watch != nil {
		return nil
	}

	w, err := filewatch.Watch([]string{r.certFile, r.keyFile}, r.changed,
		filewatch.WithDebounce(r.debounce),
		filewatch.WithLogger(r.logger),
	)
	if err != nil {
		return fmt.Errorf("tlsroots: watch key pair: %w", err)
	}
	r.watch = w
	r.logger.Info("certificate reload enabled", "cert_file", r.certFile, "key_file", r.keyFile)
	return nil
}

// Stop ends watching. The last certificate stays in service.
func (r *Reloader) Stop() error {
	r.mu.Lock()
	w := r.watch
	r.watch = nil
	r.mu.Unlock()

	if w == nil {
		return nil
	}
	return w.Stop()
}

func (r *Reloader) changed(path string) {
	if err := r.Reload(); err != nil {
		r.logger.Error("certificate reload failed, keeping previous certificate",
			"changed", path,
			"error", err,
		)
	}
}

// Reload loads the pair now and swaps it in on success.
func (r *Reloader) Reload() error {
	cert, err := LoadKeyPair(r.certFile, r.keyFile)
	if err != nil {
		return err
	}
	r.cert.Store(cert)
	r.reloads.Add(1)

	r.logger.Info("certificate loaded",
		"subject", cert.Leaf.Subject.String(),
		"not_after", cert.Leaf.NotAfter,
	)
	return nil
}

// GetCertificate hands the current pair to the TLS stack.
func (r *Reloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return r.cert.Load(), nil
}

// ServerConfig returns a config that picks up every reload.
func (r *Reloader) ServerConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: r.GetCertificate,
		MinVersion:     MinVersion,
	}
}

// Reloads counts successful loads, the initial one included.
func (r *Reloader) Reloads() int {
	return int(r.reloads.Load())
}

// NotAfter is the expiry of the certificate in service.
func (r *Reloader) NotAfter() time.Time {
	return r.cert.Load().Leaf.NotAfter
}
