// Package config defines the server configuration structure.
package config

// Default configuration values.
const (
	DefaultPort       = 8443
	DefaultPlainPort  = 8080
	DefaultBacklog    = 5
	DefaultWorkers    = 5
	DefaultReadBuffer = 4096

	DefaultCertFile = "server.crt"
	DefaultKeyFile  = "server.key"

	DefaultAuditDir             = "."
	DefaultAuditMaxSize         = 1 << 20
	DefaultAuditMaxRequestLines = 6

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Port:       DefaultPort,
			Backlog:    DefaultBacklog,
			Workers:    DefaultWorkers,
			ReadBuffer: DefaultReadBuffer,
		},
		TLS: TLSSection{
			Enabled:  true,
			CertFile: DefaultCertFile,
			KeyFile:  DefaultKeyFile,
		},
		Audit: AuditSection{
			Dir:             DefaultAuditDir,
			MaxSize:         DefaultAuditMaxSize,
			MaxRequestLines: DefaultAuditMaxRequestLines,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
