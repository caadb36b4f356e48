package service

import (
	"math"
	"strconv"
	"strings"

	"github.com/yndnr/tlsrest/internal/core/domain"
)

// Request verbs.
const (
	VerbGet  = "get"
	VerbPost = "post"
)

// HelpText lists the served endpoints.
const HelpText = "Endpoints:\n" +
	"\t/hello\n" +
	"\t/hello/<number>\n" +
	"\t/data - POST {\"name\":\"Bilya\",\"age\":24}\n" +
	"\t/json\n" +
	"\t/add/<a>/<b>\n" +
	"\t/stop"

// ExampleJSON is the body returned by "get json".
const ExampleJSON = `{"name": "Example Data", "value": 42}`

// Dispatcher maps a verb and its tokens to a response.
//
// tokens[0] is the command; the rest are its arguments.
type Dispatcher interface {
	Handle(verb string, tokens []string) domain.Response
}

// CommandDispatcher serves the built-in command set.
type CommandDispatcher struct{}

// NewCommandDispatcher returns the built-in dispatcher.
func NewCommandDispatcher() *CommandDispatcher {
	return &CommandDispatcher{}
}

// Handle implements Dispatcher.
func (d *CommandDispatcher) Handle(verb string, tokens []string) domain.Response {
	resp, err := d.dispatch(verb, tokens)
	if err != nil {
		return domain.ResponseForError(err)
	}
	return resp
}

func (d *CommandDispatcher) dispatch(verb string, tokens []string) (domain.Response, error) {
	if len(tokens) == 0 {
		return domain.Response{}, domain.ErrShortRequest
	}
	cmd, args := tokens[0], tokens[1:]

	switch verb {
	case VerbGet:
		return d.get(cmd, args)
	case VerbPost:
		return d.post(cmd, tokens)
	default:
		return domain.Response{}, domain.Fail(domain.KindUnsupportedVerb, verb, nil)
	}
}

func (d *CommandDispatcher) get(cmd string, args []string) (domain.Response, error) {
	switch cmd {
	case "add":
		return add(args)
	case "hello":
		return hello(args), nil
	case "stop":
		return domain.ShutdownRequest(), nil
	case "json":
		return domain.JSON(ExampleJSON), nil
	case "help", "http":
		return domain.Text(HelpText), nil
	default:
		return domain.Response{}, domain.Fail(domain.KindUnknownCommand, VerbGet+" "+cmd, nil)
	}
}

func (d *CommandDispatcher) post(cmd string, tokens []string) (domain.Response, error) {
	if cmd != "data" {
		return domain.Response{}, domain.Fail(domain.KindUnknownCommand, VerbPost+" "+cmd, nil)
	}

	var b strings.Builder
	b.WriteString("Data Received (Simplified)\n")
	b.WriteString(VerbPost)
	b.WriteByte('\n')
	for _, tok := range tokens {
		b.WriteString(tok)
		b.WriteByte('\n')
	}
	return domain.Text(b.String()), nil
}

func add(args []string) (domain.Response, error) {
	if len(args) < 2 {
		return domain.Response{}, domain.Fail(domain.KindMissingOperand, "add needs two operands", nil)
	}

	a, err := Atoi(args[0])
	if err != nil {
		return domain.Response{}, domain.Fail(domain.KindInvalidOperand, args[0], err)
	}
	b, err := Atoi(args[1])
	if err != nil {
		return domain.Response{}, domain.Fail(domain.KindInvalidOperand, args[1], err)
	}

	sum := int64(a) + int64(b)
	return domain.Text(args[0] + " + " + args[1] + " = " + strconv.FormatInt(sum, 10)), nil
}

func hello(args []string) domain.Response {
	if len(args) == 0 {
		return domain.Text("Hello world!")
	}
	n, err := Atoi(args[0])
	if err != nil {
		return domain.Text("Hello world!")
	}
	if n > 0 && n < 24 {
		return domain.Text("Beer delivery of " + strconv.Itoa(n) + " bottle(s)")
	}
	return domain.Text("Unsuccessful application.")
}

// Atoi parses the leading integer of s. Leading whitespace and a sign are
// accepted and trailing characters are ignored, so "12abc" is 12. It fails
// when no digit follows the optional sign or the value overflows int32.
func Atoi(s string) (int, error) {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == digits {
		return 0, &strconv.NumError{Func: "Atoi", Num: s, Err: strconv.ErrSyntax}
	}

	n, err := strconv.ParseInt(s[start:i], 10, 64)
	if err != nil || n < math.MinInt32 || n > math.MaxInt32 {
		return 0, &strconv.NumError{Func: "Atoi", Num: s, Err: strconv.ErrRange}
	}
	return int(n), nil
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
