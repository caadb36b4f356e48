package connection

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Reply is a parsed server response.
type Reply struct {
	Proto       string `json:"proto" yaml:"proto"`
	Status      int    `json:"status" yaml:"status"`
	Reason      string `json:"reason" yaml:"reason"`
	ContentType string `json:"content_type" yaml:"content_type"`
	Body        string `json:"body" yaml:"body"`
}

// StatusLine returns e.g. "HTTP/1.1 200 OK".
func (r *Reply) StatusLine() string {
	return fmt.Sprintf("%s %d %s", r.Proto, r.Status, r.Reason)
}

// OK reports a 2xx status.
func (r *Reply) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// ParseReply parses raw response bytes. The body runs to the end of raw.
func ParseReply(raw []byte) (*Reply, error) {
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(raw)), nil)
	if err != nil {
		return nil, fmt.Errorf("connection: parse reply: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("connection: read reply body: %w", err)
	}

	return &Reply{
		Proto:       resp.Proto,
		Status:      resp.StatusCode,
		Reason:      strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(body),
	}, nil
}
