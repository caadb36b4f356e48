package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tlsrest/internal/infra/confloader"
	"github.com/yndnr/tlsrest/internal/server/config"
)

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"host":         "server.host",
	"port":         "server.port",
	"cert":         "tls.cert_file",
	"key":          "tls.key_file",
	"audit-dir":    "audit.dir",
	"log-level":    "log.level",
	"metrics-addr": "metrics.addr",
}

// flagValues returns the flags set on the command line as a value layer
// for the loader.
func flagValues(c *cli.Context) map[string]any {
	values := map[string]any{}
	for flag, key := range flagKeys {
		if c.IsSet(flag) {
			values[key] = c.Value(flag)
		}
	}
	if c.IsSet("plaintext") {
		values["tls.enabled"] = !c.Bool("plaintext")
	}
	return values
}

// loadConfig layers defaults, the optional file, TLSREST_ environment
// variables and the flag values, then validates the result.
func loadConfig(configFile string, flags map[string]any) (*config.ServerConfig, *confloader.Loader, error) {
	loader := confloader.NewLoader(
		confloader.WithConfigFile(configFile),
		confloader.WithValues(flags),
	)

	cfg, err := resolve(loader)
	if err != nil {
		return nil, nil, err
	}
	return cfg, loader, nil
}

// resolve runs one load. Without TLS and without an explicit port the
// server listens on the plaintext default.
func resolve(loader *confloader.Loader) (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if !cfg.TLS.Enabled && !loader.IsSet("server.port") {
		cfg.Server.Port = config.DefaultPlainPort
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
