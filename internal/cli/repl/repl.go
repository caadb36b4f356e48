package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Executor runs one shell line.
type Executor func(ctx context.Context, line string) error

// DefaultPrompt is printed before each line.
const DefaultPrompt = "tlsrest> "

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	exec      Executor
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(r *REPL) {
		if h != nil {
			r.history = h
		}
	}
}

// WithPrompt sets the prompt.
func WithPrompt(p string) Option {
	return func(r *REPL) {
		r.prompt = p
	}
}

// New creates a REPL that hands every non built-in line to exec.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		prompt:    DefaultPrompt,
		exec:      exec,
		completer: NewCompleter(),
		history:   NewHistory(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads lines until EOF, exit, quit or ctx cancellation. Executor
// errors are printed and the loop continues. History is loaded before
// the first prompt and saved on return.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: load history: %v\n", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			fmt.Fprintf(r.output, "warning: save history: %v\n", err)
		}
	}()

	reader := bufio.NewReader(r.input)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		eof := err == io.EOF

		line = strings.TrimSpace(line)
		if line == "" {
			if eof {
				fmt.Fprintln(r.output)
				return nil
			}
			continue
		}

		r.history.Add(line)

		switch strings.ToLower(line) {
		case "exit", "quit":
			return nil
		case "help":
			r.printHelp()
		case "history":
			for i, entry := range r.history.Entries() {
				fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
			}
		default:
			if err := r.exec(ctx, line); err != nil {
				fmt.Fprintf(r.output, "error: %v\n", err)
			}
		}

		if eof {
			return nil
		}
	}
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.output, "Type a request line, e.g. /add/2/3 or POST /data/hello.")
	fmt.Fprintln(r.output, "Requests:")
	for _, c := range r.completer.Complete("") {
		if strings.HasPrefix(c, "GET ") || strings.HasPrefix(c, "POST ") {
			fmt.Fprintf(r.output, "  %s\n", c)
		}
	}
	fmt.Fprintln(r.output, "Built-ins: help, history, exit, quit")
}
