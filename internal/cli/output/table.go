package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/yndnr/tlsrest/internal/cli/connection"
)

// TableFormatter lays a reply out as FIELD/VALUE rows. Multi-line bodies
// continue on rows with an empty field.
type TableFormatter struct {
	NoHeaders bool
}

func (f *TableFormatter) Format(w io.Writer, data any) error {
	reply, ok := data.(*connection.Reply)
	if !ok {
		return (&TextFormatter{}).Format(w, data)
	}

	rows := [][]string{
		{"status", strconv.Itoa(reply.Status)},
		{"reason", reply.Reason},
		{"content-type", reply.ContentType},
	}
	field := "body"
	for _, line := range strings.Split(strings.TrimSuffix(reply.Body, "\n"), "\n") {
		rows = append(rows, []string{field, line})
		field = ""
	}

	var header []string
	if !f.NoHeaders {
		header = []string{"FIELD", "VALUE"}
	}
	return writeColumns(w, header, rows)
}

// writeColumns aligns cells with two spaces of padding. A nil header
// is skipped.
func writeColumns(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if header != nil {
		rows = append([][]string{header}, rows...)
	}
	for _, r := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(r, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}
