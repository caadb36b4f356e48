// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/yndnr/tlsrest/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyTLS(&cfg.TLS); err != nil {
		return err
	}
	if err := verifyAudit(&cfg.Audit); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	if cfg.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Addr); err != nil {
			return fmt.Errorf("metrics.addr: %w", err)
		}
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", cfg.Port)
	}
	if cfg.Backlog < 1 {
		return errors.New("server.backlog must be at least 1")
	}
	if cfg.Workers < 1 {
		return errors.New("server.workers must be at least 1")
	}
	if cfg.ReadBuffer < 1 {
		return errors.New("server.read_buffer must be at least 1")
	}
	if cfg.AcceptRate < 0 {
		return errors.New("server.accept_rate must not be negative")
	}
	if cfg.AcceptBurst < 0 {
		return errors.New("server.accept_burst must not be negative")
	}
	return nil
}

func verifyTLS(cfg *TLSSection) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.CertFile == "" {
		return errors.New("tls.cert_file is required when tls is enabled")
	}
	if cfg.KeyFile == "" {
		return errors.New("tls.key_file is required when tls is enabled")
	}
	return nil
}

func verifyAudit(cfg *AuditSection) error {
	if cfg.Dir == "" {
		return errors.New("audit.dir is required")
	}
	if cfg.MaxSize < 1 {
		return errors.New("audit.max_size must be at least 1")
	}
	if cfg.MaxRequestLines < 1 {
		return errors.New("audit.max_request_lines must be at least 1")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(cfg.Format) {
	case logger.FormatJSON, logger.FormatText:
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
	return nil
}
