package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a request failure.
type Kind uint8

const (
	KindShortRequest Kind = iota + 1
	KindInvalidOperand
	KindMissingOperand
	KindUnknownCommand
	KindUnsupportedVerb
)

var kindInfo = map[Kind]struct{ code, text string }{
	KindShortRequest:    {"TR-REQ-4000", "bad request"},
	KindInvalidOperand:  {"TR-REQ-4001", "invalid operand"},
	KindMissingOperand:  {"TR-REQ-4002", "missing operand"},
	KindUnknownCommand:  {"TR-REQ-5010", "not implemented"},
	KindUnsupportedVerb: {"TR-REQ-5011", "not implemented"},
}

// Code is the stable identifier logged with the error.
func (k Kind) Code() string {
	if info, ok := kindInfo[k]; ok {
		return info.code
	}
	return "TR-REQ-0000"
}

func (k Kind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.text
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// RequestError reports why a request could not be served. Subject names
// the offending token or command, if any.
type RequestError struct {
	Kind    Kind
	Subject string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("[%s] %s", e.Kind.Code(), e.Kind)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind.Code(), e.Kind, e.Subject)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Is matches any RequestError of the same kind, so the sentinels below
// work with errors.Is regardless of subject.
func (e *RequestError) Is(target error) bool {
	t, ok := target.(*RequestError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrShortRequest    = &RequestError{Kind: KindShortRequest}
	ErrInvalidOperand  = &RequestError{Kind: KindInvalidOperand}
	ErrMissingOperand  = &RequestError{Kind: KindMissingOperand}
	ErrUnknownCommand  = &RequestError{Kind: KindUnknownCommand}
	ErrUnsupportedVerb = &RequestError{Kind: KindUnsupportedVerb}
)

// Fail builds a RequestError.
func Fail(kind Kind, subject string, cause error) error {
	return &RequestError{Kind: kind, Subject: subject, Err: cause}
}

// KindOf returns the kind of the first RequestError in err's chain, or 0.
func KindOf(err error) Kind {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}

// ResponseForError maps a request error to what the client receives.
// Operand errors answer 200 with the error text in the body. Anything
// unrecognised is 501.
func ResponseForError(err error) Response {
	switch KindOf(err) {
	case KindShortRequest:
		return BadRequest()
	case KindInvalidOperand, KindMissingOperand:
		return Text(err.Error())
	default:
		return NotImplemented()
	}
}
