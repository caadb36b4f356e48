// Package config holds the tlsrest-server settings.
//
// ServerConfig is filled in layers by internal/infra/confloader: the
// values of Default, then the YAML file, then TLSREST_ variables, then
// command-line flags. Verify rejects out-of-range values before the
// server starts and again on every reload.
package config
