package command

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tlsrest/internal/cli/config"
	"github.com/yndnr/tlsrest/internal/cli/connection"
	"github.com/yndnr/tlsrest/internal/cli/output"
	"github.com/yndnr/tlsrest/internal/infra/buildinfo"
	"github.com/yndnr/tlsrest/internal/infra/tlsroots"
)

const settingsKey = "settings"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "tlsrest-cli",
		Usage:   "Send requests to a tlsrest server",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			SendCommand(),
			StopCommand(),
			ShellCommand(),
		},
		Before: func(c *cli.Context) error {
			s, err := resolveSettings(c)
			if err != nil {
				return err
			}
			if c.App.Metadata == nil {
				c.App.Metadata = map[string]any{}
			}
			c.App.Metadata[settingsKey] = s
			return nil
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file",
			EnvVars: []string{"TLSREST_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "addr",
			Aliases: []string{"a"},
			Usage:   "server address host:port",
			EnvVars: []string{"TLSREST_ADDR"},
		},
		&cli.StringFlag{
			Name:  "ca",
			Usage: "PEM file with additional trusted certificates",
		},
		&cli.StringFlag{
			Name:  "server-name",
			Usage: "name verified against the server certificate (default: host of --addr)",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "skip server certificate verification",
		},
		&cli.BoolFlag{
			Name:  "plaintext",
			Usage: "dial without TLS",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: text, table, json, yaml",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "timeout for one request",
		},
	}
}

// Settings is the CLI configuration after flags are applied.
type Settings struct {
	config.CLIConfig
	Format output.Format
}

// resolveSettings loads the config file and overrides it with the flags
// that were set explicitly.
func resolveSettings(c *cli.Context) (*Settings, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	if c.IsSet("ca") {
		cfg.CAFile = c.String("ca")
	}
	if c.IsSet("server-name") {
		cfg.ServerName = c.String("server-name")
	}
	if c.IsSet("insecure") {
		cfg.Insecure = c.Bool("insecure")
	}
	if c.IsSet("plaintext") {
		cfg.Plaintext = c.Bool("plaintext")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Settings{CLIConfig: *cfg, Format: format}, nil
}

// GetSettings retrieves the resolved settings from context.
func GetSettings(c *cli.Context) *Settings {
	if s, ok := c.App.Metadata[settingsKey].(*Settings); ok {
		return s
	}
	return nil
}

// NewClient builds a connection client from the resolved settings.
func NewClient(s *Settings) (*connection.Client, error) {
	tlsConfig, err := clientTLSConfig(s)
	if err != nil {
		return nil, err
	}
	return connection.NewClient(connection.Config{
		Addr:      s.Addr,
		TLSConfig: tlsConfig,
		Timeout:   s.Timeout,
	}), nil
}

func clientTLSConfig(s *Settings) (*tls.Config, error) {
	if s.Plaintext {
		return nil, nil
	}

	opts := tlsroots.ClientOptions{
		ServerName: s.ServerName,
		Insecure:   s.Insecure,
	}
	if s.CAFile != "" {
		opts.CAFiles = []string{s.CAFile}
	}
	if opts.ServerName == "" {
		host, _, err := net.SplitHostPort(s.Addr)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", s.Addr, err)
		}
		opts.ServerName = host
	}

	cfg, err := tlsroots.ClientConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("load CA file: %w", err)
	}
	return cfg, nil
}

// ensureClient returns a client for the current invocation.
func ensureClient(c *cli.Context) (*connection.Client, *Settings, error) {
	s := GetSettings(c)
	if s == nil {
		return nil, nil, fmt.Errorf("settings not initialized")
	}
	client, err := NewClient(s)
	if err != nil {
		return nil, nil, err
	}
	return client, s, nil
}
