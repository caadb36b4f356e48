package config

import "time"

// CLIConfig is the configuration for tlsrest-cli.
type CLIConfig struct {
	// Addr is the server host:port.
	Addr string `koanf:"addr"`
	// CAFile is a PEM bundle trusted in addition to the system roots.
	CAFile string `koanf:"ca_file"`
	// ServerName overrides the name checked against the certificate.
	ServerName string `koanf:"server_name"`
	// Insecure skips certificate verification.
	Insecure bool `koanf:"insecure"`
	// Plaintext dials without TLS.
	Plaintext bool `koanf:"plaintext"`
	// Output is text, table, json or yaml.
	Output string `koanf:"output"`
	// Timeout bounds one request.
	Timeout time.Duration `koanf:"timeout"`
	// HistoryFile stores shell history. Empty disables it.
	HistoryFile string `koanf:"history_file"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Addr:        "localhost:8443",
		Output:      "text",
		Timeout:     10 * time.Second,
		HistoryFile: DefaultHistoryPath(),
	}
}
