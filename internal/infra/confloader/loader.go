// Package confloader layers configuration sources with koanf.
//
// Later layers win: the target's own field values act as defaults, then
// the YAML file, then prefixed environment variables, then value maps
// such as command-line flags.
package confloader

import (
	"fmt"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is stripped from variable names before mapping.
const DefaultEnvPrefix = "TLSREST_"

// Loader reads every layer afresh on each Load, so reloading after a
// file change never keeps keys the file no longer has.
type Loader struct {
	envPrefix string
	filePath  string
	values    []map[string]any

	mu   sync.RWMutex
	last *koanf.Koanf
}

// Option configures a Loader.
type Option func(*Loader)

func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

func WithConfigFile(path string) Option {
	return func(l *Loader) { l.filePath = path }
}

// WithValues adds a layer of dotted keys, e.g. "server.port", loaded
// after the environment. Layers apply in the order given.
func WithValues(values map[string]any) Option {
	return func(l *Loader) {
		if len(values) > 0 {
			l.values = append(l.values, values)
		}
	}
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FilePath is the YAML file, or "" when there is none.
func (l *Loader) FilePath() string { return l.filePath }

// Load reads all layers and unmarshals them over target. Fields no layer
// mentions keep their current values. On error the previous load stays
// visible to IsSet.
func (l *Loader) Load(target any) error {
	k := koanf.New(".")

	if l.filePath != "" {
		if err := k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return fmt.Errorf("load file %s: %w", l.filePath, err)
		}
	}

	if err := k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	for _, v := range l.values {
		if err := k.Load(mapProvider(v), nil); err != nil {
			return fmt.Errorf("load values: %w", err)
		}
	}

	if err := k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	l.mu.Lock()
	l.last = k
	l.mu.Unlock()
	return nil
}

// envKey maps TLSREST_AUDIT_MAX_SIZE to audit.max_size: only the first
// underscore after the prefix separates section from key.
func (l *Loader) envKey(name string) string {
	name = strings.ToLower(strings.TrimPrefix(name, l.envPrefix))
	return strings.Replace(name, "_", ".", 1)
}

// IsSet reports whether any layer of the last successful Load supplied
// key.
func (l *Loader) IsSet(key string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last != nil && l.last.Exists(key)
}
