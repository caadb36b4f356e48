package main

import (
	"errors"

	"github.com/yndnr/tlsrest/internal/server/tlsserver"
)

// Process exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitBind       = 2
	exitListen     = 3
	exitTLS        = 4
	exitAudit      = 5
	exitRemoteStop = 13
)

// errRemoteStop reports a shutdown requested by a client.
var errRemoteStop = errors.New("stopped by remote request")

// tlsError marks a failure to load the certificate or key.
type tlsError struct {
	err error
}

func (e *tlsError) Error() string { return "load certificate: " + e.err.Error() }

func (e *tlsError) Unwrap() error { return e.err }

// exitCode maps the result of serve to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, errRemoteStop) {
		return exitRemoteStop
	}

	var (
		bindErr   *tlsserver.BindError
		listenErr *tlsserver.ListenError
		auditErr  *tlsserver.AuditError
		certErr   *tlsError
	)
	switch {
	case errors.As(err, &bindErr):
		return exitBind
	case errors.As(err, &listenErr):
		return exitListen
	case errors.As(err, &certErr):
		return exitTLS
	case errors.As(err, &auditErr):
		return exitAudit
	default:
		return exitFailure
	}
}
