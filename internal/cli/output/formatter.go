package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/yndnr/tlsrest/internal/cli/connection"
)

// Format represents the output format.
type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatText, FormatTable, FormatJSON, FormatYAML}

// ParseFormat validates a format name. Empty selects text.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatText, nil
	}
	f := Format(strings.ToLower(s))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("output: unknown format %q", s)
}

// Formatter formats data for output.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatTable:
		return &TableFormatter{}
	default:
		return &TextFormatter{}
	}
}

// TextFormatter prints a reply body verbatim, ending with a newline.
type TextFormatter struct{}

// Format writes data. Non-reply values are printed with %v.
func (f *TextFormatter) Format(w io.Writer, data any) error {
	var s string
	switch v := data.(type) {
	case *connection.Reply:
		s = v.Body
	case nil:
		return nil
	default:
		s = fmt.Sprint(v)
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := io.WriteString(w, s)
	return err
}
