// Package config defines the server configuration structure.
package config

// ServerConfig is the root configuration for tlsrest-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	TLS     TLSSection     `koanf:"tls"`
	Audit   AuditSection   `koanf:"audit"`
	Log     LogSection     `koanf:"log"`
	Metrics MetricsSection `koanf:"metrics"`
}

// ServerSection configures the listening socket and the worker pool.
type ServerSection struct {
	// Host is the bind address. Empty binds all interfaces.
	Host string `koanf:"host"`
	// Port is the TCP port.
	Port int `koanf:"port"`
	// Backlog is the listen queue length.
	Backlog int `koanf:"backlog"`
	// Workers is the number of request workers.
	Workers int `koanf:"workers"`
	// ReadBuffer is the maximum request size read from a connection.
	ReadBuffer int `koanf:"read_buffer"`
	// AcceptRate limits accepted connections per second. 0 disables it.
	AcceptRate float64 `koanf:"accept_rate"`
	// AcceptBurst is the accept limiter burst.
	AcceptBurst int `koanf:"accept_burst"`
}

// TLSSection configures TLS termination.
type TLSSection struct {
	Enabled  bool   `koanf:"enabled"`
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
	// Reload swaps the certificate when the files change on disk.
	Reload bool `koanf:"reload"`
}

// AuditSection configures the rotating audit log.
type AuditSection struct {
	Dir             string `koanf:"dir"`
	MaxSize         int64  `koanf:"max_size"`
	MaxRequestLines int    `koanf:"max_request_lines"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	// Addr is the listen address of /metrics. Empty disables it.
	Addr string `koanf:"addr"`
}
