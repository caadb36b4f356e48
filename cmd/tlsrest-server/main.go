package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tlsrest/internal/infra/buildinfo"
	"github.com/yndnr/tlsrest/internal/infra/confloader"
	"github.com/yndnr/tlsrest/internal/infra/filewatch"
	"github.com/yndnr/tlsrest/internal/infra/shutdown"
	"github.com/yndnr/tlsrest/internal/infra/tlsroots"
	"github.com/yndnr/tlsrest/internal/server/config"
	"github.com/yndnr/tlsrest/internal/server/tlsserver"
	"github.com/yndnr/tlsrest/internal/telemetry/logger"
	"github.com/yndnr/tlsrest/internal/telemetry/metric"
)

// shutdownTimeout bounds the shutdown hooks. Requests still running when
// it expires are cut off by the process exit.
var shutdownTimeout = 30 * time.Second

func main() {
	err := newApp().Run(os.Args)
	code := exitCode(err)
	if err != nil && code != exitRemoteStop {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(code)
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "tlsrest-server",
		Usage:   "TLS-terminating request server with a rotating audit log",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration file",
				EnvVars: []string{"TLSREST_CONFIG"},
			},
			&cli.StringFlag{Name: "host", Usage: "bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "TCP port"},
			&cli.BoolFlag{Name: "plaintext", Usage: "serve without TLS (port defaults to 8080)"},
			&cli.StringFlag{Name: "cert", Usage: "PEM certificate file"},
			&cli.StringFlag{Name: "key", Usage: "PEM private key file"},
			&cli.StringFlag{Name: "audit-dir", Usage: "directory of the audit log"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "serve /metrics on this address"},
		},
		Action: func(c *cli.Context) error {
			return serve(c.Context, c.String("config"), flagValues(c))
		},
	}
}

// serve runs the server until SIGINT, a remote stop request or a fatal
// error. It returns errRemoteStop after a remote stop.
func serve(ctx context.Context, configFile string, flags map[string]any) error {
	cfg, loader, err := loadConfig(configFile, flags)
	if err != nil {
		return err
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slogLogger := logger.Slog(log)

	log.Info("starting tlsrest-server",
		"version", buildinfo.Get().Version,
		"commit", buildinfo.Get().Commit,
		"config", configFile,
	)

	ctrl := shutdown.NewController(ctx, shutdownTimeout, shutdown.WithLogger(slogLogger))
	stopSignals := ctrl.NotifySignals()
	defer stopSignals()

	// Hooks run in reverse registration order: the server closes first.
	registry := metric.NewRegistry()
	if cfg.Metrics.Addr != "" {
		ms, err := metric.Listen(cfg.Metrics.Addr, registry, slogLogger)
		if err != nil {
			return abort(ctrl, fmt.Errorf("metrics listen %s: %w", cfg.Metrics.Addr, err))
		}
		ms.ServeAsync()
		ctrl.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down metrics server")
			return ms.Shutdown(ctx)
		})
	}

	tlsConfig, err := initTLS(cfg, ctrl, log)
	if err != nil {
		return abort(ctrl, err)
	}

	if path := loader.FilePath(); path != "" {
		if err := watchConfig(path, loader, ctrl, log); err != nil {
			log.Warn("config watch disabled", "error", err)
		}
	}

	srv := tlsserver.New(serverConfig(cfg, tlsConfig),
		tlsserver.WithLogger(log),
		tlsserver.WithMetrics(registry),
		tlsserver.WithShutdownTrigger(ctrl),
	)
	if err := srv.Open(); err != nil {
		log.Error("server startup failed", "error", err)
		return abort(ctrl, err)
	}
	ctrl.OnShutdown(func(ctx context.Context) error {
		log.Info("closing server", "state", srv.State().String())
		return srv.Close(ctx)
	})

	log.Info("server started, press Ctrl+C to stop")
	runErr := srv.Run(ctrl.Context())
	if runErr != nil {
		ctrl.Trigger(shutdown.ReasonFatal)
	}
	shutdownErr := ctrl.Shutdown()

	switch {
	case runErr != nil:
		return runErr
	case ctrl.Reason() == shutdown.ReasonRemoteStop:
		if shutdownErr != nil {
			log.Warn("shutdown incomplete", "error", shutdownErr)
		}
		log.Info("server stopped by remote request")
		return errRemoteStop
	case shutdownErr != nil:
		return shutdownErr
	}
	log.Info("server stopped gracefully", "reason", string(ctrl.Reason()))
	return nil
}

// abort tears down what was started and returns err.
func abort(ctrl *shutdown.Controller, err error) error {
	ctrl.Trigger(shutdown.ReasonFatal)
	if serr := ctrl.Shutdown(); serr != nil {
		return errors.Join(err, serr)
	}
	return err
}

// initLogger initializes the structured logger and makes it the default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// initTLS loads the key pair. With tls.reload a Reloader swaps the
// certificate when the files change. It returns nil for plaintext.
func initTLS(cfg *config.ServerConfig, ctrl *shutdown.Controller, log logger.Logger) (*tls.Config, error) {
	if !cfg.TLS.Enabled {
		log.Warn("TLS disabled, serving plaintext")
		return nil, nil
	}

	if !cfg.TLS.Reload {
		tlsConfig, err := tlsroots.ServerConfig(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return nil, &tlsError{err: err}
		}
		return tlsConfig, nil
	}

	r, err := tlsroots.NewReloader(cfg.TLS.CertFile, cfg.TLS.KeyFile,
		tlsroots.WithLogger(logger.Slog(log)),
	)
	if err != nil {
		return nil, &tlsError{err: err}
	}
	if err := r.Start(); err != nil {
		log.Warn("certificate reload disabled", "error", err)
		return r.ServerConfig(), nil
	}
	ctrl.OnShutdown(func(context.Context) error {
		return r.Stop()
	})
	return r.ServerConfig(), nil
}

// watchConfig re-applies log.level when the config file changes. Other
// settings need a restart.
func watchConfig(path string, loader *confloader.Loader, ctrl *shutdown.Controller, log logger.Logger) error {
	cw, err := filewatch.Watch([]string{path}, func(string) {
		fresh, err := resolve(loader)
		if err != nil {
			log.Warn("reloaded config rejected", "error", err)
			return
		}
		if fresh.Log.Level != logger.CurrentLevel() {
			if err := logger.SetLevel(fresh.Log.Level); err != nil {
				log.Warn("log level not changed", "error", err)
			} else {
				log.Info("log level changed", "level", logger.CurrentLevel())
			}
		}
	}, filewatch.WithLogger(logger.Slog(log)))
	if err != nil {
		return err
	}

	ctrl.OnShutdown(func(context.Context) error {
		return cw.Stop()
	})
	return nil
}

// serverConfig maps the file configuration onto the server.
func serverConfig(cfg *config.ServerConfig, tlsConfig *tls.Config) tlsserver.Config {
	sc := tlsserver.DefaultConfig(cfg.Audit.Dir)
	sc.Host = cfg.Server.Host
	sc.Port = cfg.Server.Port
	sc.Backlog = cfg.Server.Backlog
	sc.Workers = cfg.Server.Workers
	sc.ReadBufferSize = cfg.Server.ReadBuffer
	sc.AcceptRate = cfg.Server.AcceptRate
	sc.AcceptBurst = cfg.Server.AcceptBurst
	sc.TLSConfig = tlsConfig
	sc.Audit.MaxFileSize = cfg.Audit.MaxSize
	sc.Audit.MaxRequestLines = cfg.Audit.MaxRequestLines
	return sc
}
