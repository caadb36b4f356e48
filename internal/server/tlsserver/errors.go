package tlsserver

import "fmt"

// SocketError reports a failure to create or configure the listening socket.
type SocketError struct {
	Op  string
	Err error
}

func (e *SocketError) Error() string {
	return fmt.Sprintf("tlsserver: %s: %v", e.Op, e.Err)
}

func (e *SocketError) Unwrap() error { return e.Err }

// BindError reports a failure to bind the listening address.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("tlsserver: bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// ListenError reports a failure to put the bound socket into listening mode.
type ListenError struct {
	Addr string
	Err  error
}

func (e *ListenError) Error() string {
	return fmt.Sprintf("tlsserver: listen %s: %v", e.Addr, e.Err)
}

func (e *ListenError) Unwrap() error { return e.Err }

// AcceptError ends Run when accepting fails for a reason other than
// shutdown or signal interruption.
type AcceptError struct {
	Addr string
	Err  error
}

func (e *AcceptError) Error() string {
	return fmt.Sprintf("tlsserver: accept on %s: %v", e.Addr, e.Err)
}

func (e *AcceptError) Unwrap() error { return e.Err }

// AuditError reports that the audit log could not be opened.
type AuditError struct {
	Dir string
	Err error
}

func (e *AuditError) Error() string {
	return fmt.Sprintf("tlsserver: open audit log in %s: %v", e.Dir, e.Err)
}

func (e *AuditError) Unwrap() error { return e.Err }
