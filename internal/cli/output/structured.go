package output

import (
	"encoding/json"
	"io"

	"go.yaml.in/yaml/v3"
)

// JSONFormatter encodes values as JSON, indented unless Compact is set.
type JSONFormatter struct {
	Compact bool
}

func (f *JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	if !f.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(data)
}

// YAMLFormatter encodes values as a single YAML document.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}
