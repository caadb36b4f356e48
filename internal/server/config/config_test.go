// Package config defines the server configuration structure.
package config

import (
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.Backlog != DefaultBacklog {
		t.Errorf("Server.Backlog = %d, want %d", cfg.Server.Backlog, DefaultBacklog)
	}
	if cfg.Server.Workers != DefaultWorkers {
		t.Errorf("Server.Workers = %d, want %d", cfg.Server.Workers, DefaultWorkers)
	}
	if cfg.Server.ReadBuffer != DefaultReadBuffer {
		t.Errorf("Server.ReadBuffer = %d, want %d", cfg.Server.ReadBuffer, DefaultReadBuffer)
	}
	if cfg.Server.AcceptRate != 0 {
		t.Errorf("Server.AcceptRate = %v, want 0", cfg.Server.AcceptRate)
	}

	if !cfg.TLS.Enabled {
		t.Error("TLS should be enabled by default")
	}
	if cfg.TLS.CertFile != DefaultCertFile || cfg.TLS.KeyFile != DefaultKeyFile {
		t.Errorf("TLS files = %q/%q, want %q/%q", cfg.TLS.CertFile, cfg.TLS.KeyFile, DefaultCertFile, DefaultKeyFile)
	}

	if cfg.Audit.MaxSize != 1<<20 {
		t.Errorf("Audit.MaxSize = %d, want 1MiB", cfg.Audit.MaxSize)
	}
	if cfg.Audit.MaxRequestLines != 6 {
		t.Errorf("Audit.MaxRequestLines = %d, want 6", cfg.Audit.MaxRequestLines)
	}

	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Metrics.Addr != "" {
		t.Errorf("Metrics.Addr = %q, want disabled", cfg.Metrics.Addr)
	}

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) error = %v", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{"negative port", func(c *ServerConfig) { c.Server.Port = -1 }, "server.port"},
		{"port too large", func(c *ServerConfig) { c.Server.Port = 70000 }, "server.port"},
		{"zero backlog", func(c *ServerConfig) { c.Server.Backlog = 0 }, "server.backlog"},
		{"zero workers", func(c *ServerConfig) { c.Server.Workers = 0 }, "server.workers"},
		{"zero read buffer", func(c *ServerConfig) { c.Server.ReadBuffer = 0 }, "server.read_buffer"},
		{"negative accept rate", func(c *ServerConfig) { c.Server.AcceptRate = -1 }, "server.accept_rate"},
		{"negative accept burst", func(c *ServerConfig) { c.Server.AcceptBurst = -1 }, "server.accept_burst"},
		{"missing cert", func(c *ServerConfig) { c.TLS.CertFile = "" }, "tls.cert_file"},
		{"missing key", func(c *ServerConfig) { c.TLS.KeyFile = "" }, "tls.key_file"},
		{"missing audit dir", func(c *ServerConfig) { c.Audit.Dir = "" }, "audit.dir"},
		{"zero audit size", func(c *ServerConfig) { c.Audit.MaxSize = 0 }, "audit.max_size"},
		{"zero request lines", func(c *ServerConfig) { c.Audit.MaxRequestLines = 0 }, "audit.max_request_lines"},
		{"bad log level", func(c *ServerConfig) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *ServerConfig) { c.Log.Format = "xml" }, "log.format"},
		{"bad metrics addr", func(c *ServerConfig) { c.Metrics.Addr = "9090" }, "metrics.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if err == nil {
				t.Fatal("Verify() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_PlaintextNeedsNoCertificate(t *testing.T) {
	cfg := Default()
	cfg.TLS.Enabled = false
	cfg.TLS.CertFile = ""
	cfg.TLS.KeyFile = ""
	cfg.Server.Port = DefaultPlainPort

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestVerify_MetricsAddr(t *testing.T) {
	cfg := Default()
	cfg.Metrics.Addr = "127.0.0.1:9090"
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}
