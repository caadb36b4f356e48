package tlsserver

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/yndnr/tlsrest/internal/core/domain"
	"github.com/yndnr/tlsrest/internal/storage/auditlog"
	"github.com/yndnr/tlsrest/internal/telemetry/logger"
)

// minRequestTokens is the verb, the command and at least one argument.
const minRequestTokens = 3

// serve handles the single request of c. It runs on a pool worker and
// always releases the connection.
func (s *Server) serve(ctx context.Context, c *Conn) {
	defer c.Close()

	start := time.Now()
	remote := c.RemoteAddr().String()
	ctx = logger.WithLogger(ctx, s.log)
	ctx = logger.WithConn(ctx, c.ID(), remote)
	log := logger.L(ctx)

	buf := make([]byte, s.cfg.ReadBufferSize)
	n, err := c.Read(buf)
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			log.Info("client disconnected")
			s.metrics.Disconnected()
			return
		}
		log.Error("read failed", "error", err)
		return
	}

	request := string(buf[:n])
	verb, resp := s.respond(request)

	if resp.Shutdown {
		log.Warn("remote command: stop, shutting down server")
		s.record(log, remote, start, resp.Status, request)
		s.metrics.Request(verb, resp.Status, time.Since(start))
		s.requestStop()
		return
	}

	if _, err := c.Write(resp.Bytes()); err != nil {
		log.Error("write failed", "error", err)
	}
	s.record(log, remote, start, resp.Status, request)
	s.metrics.Request(verb, resp.Status, time.Since(start))
	log.Debug("request served", "verb", verb, "status", resp.Status)
}

// respond tokenizes request and asks the dispatcher for a response.
func (s *Server) respond(request string) (string, domain.Response) {
	tokens := s.tokenizer.Tokenize(request)
	if len(tokens) < minRequestTokens {
		return "", domain.BadRequest()
	}
	verb := tokens[0]
	return verb, s.dispatcher.Handle(verb, tokens[1:])
}

// record appends the audit entry. Failures are logged and never abort
// the request.
func (s *Server) record(log logger.Logger, remote string, start time.Time, status int, request string) {
	err := s.audit.Append(auditlog.Entry{
		Time:     start,
		Client:   remote,
		Status:   status,
		Duration: time.Since(start),
		Request:  request,
	})
	if err != nil {
		log.Error("audit append failed", "error", err)
	}
}
