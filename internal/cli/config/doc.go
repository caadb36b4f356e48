// Package config loads tlsrest-cli defaults from ~/.tlsrest/cli.yaml.
//
// Command-line flags override file values; a missing file yields the
// built-in defaults.
package config
