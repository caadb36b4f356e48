package repl

import "strings"

// Completer provides request completion for the shell.
type Completer struct {
	candidates []string
}

// NewCompleter creates a Completer for the server's endpoints.
func NewCompleter() *Completer {
	return &Completer{
		candidates: []string{
			"GET /add/", "GET /hello/", "GET /json", "GET /help", "GET /http", "GET /stop",
			"POST /data/",
			"help", "history", "exit", "quit",
		},
	}
}

// Candidates returns every completion candidate.
func (c *Completer) Candidates() []string {
	out := make([]string, len(c.candidates))
	copy(out, c.candidates)
	return out
}

// Complete returns the candidates starting with prefix, ignoring case.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.ToLower(prefix)
	var suggestions []string
	for _, cand := range c.candidates {
		if strings.HasPrefix(strings.ToLower(cand), prefix) {
			suggestions = append(suggestions, cand)
		}
	}
	return suggestions
}
