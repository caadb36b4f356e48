package command

import (
	"bytes"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

// fakeServer answers every connection through handle, which receives the
// request bytes and returns the raw reply. An empty reply closes without
// writing.
type fakeServer struct {
	ln       net.Listener
	requests chan string
}

func newFakeServer(t *testing.T, handle func(req string) string) *fakeServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	s := &fakeServer{ln: ln, requests: make(chan string, 16)}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			buf := make([]byte, 4096)
			n, _ := c.Read(buf)
			req := string(buf[:n])
			s.requests <- req
			if reply := handle(req); reply != "" {
				_, _ = c.Write([]byte(reply))
			}
			_ = c.Close()
		}
	}()
	return s
}

func (s *fakeServer) addr() string {
	return s.ln.Addr().String()
}

// textReply builds a 200 text/plain reply.
func textReply(body string) string {
	return "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\n" + body
}

// runApp runs the CLI with a config path that does not exist, so only
// flags and defaults apply. Exit codes are captured instead of exiting.
func runApp(t *testing.T, stdin string, args ...string) (stdout string, exitCode int, err error) {
	t.Helper()

	var out bytes.Buffer
	app := App()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(_ *cli.Context, err error) {
		if ec, ok := err.(cli.ExitCoder); ok {
			exitCode = ec.ExitCode()
		}
	}

	full := append([]string{"tlsrest-cli", "--config", filepath.Join(t.TempDir(), "absent.yaml")}, args...)
	err = app.Run(full)
	return out.String(), exitCode, err
}
