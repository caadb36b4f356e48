package parse

import (
	"regexp"
	"strings"
)

// Tokenizer turns a raw request into lowercase command tokens.
type Tokenizer interface {
	Tokenize(request string) []string
}

// DefaultPattern matches the delimiters of the request grammar.
const DefaultPattern = `GET|POST|/| |add|HTTP`

var defaultTokenizer = MustRegexTokenizer(DefaultPattern)

// RegexTokenizer splits a request on a delimiter expression, keeping both
// the delimiters and the text between them.
type RegexTokenizer struct {
	re *regexp.Regexp
}

// NewRegexTokenizer compiles pattern into a tokenizer.
func NewRegexTokenizer(pattern string) (*RegexTokenizer, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &RegexTokenizer{re: re}, nil
}

// MustRegexTokenizer is like NewRegexTokenizer but panics on a bad pattern.
func MustRegexTokenizer(pattern string) *RegexTokenizer {
	t, err := NewRegexTokenizer(pattern)
	if err != nil {
		panic("parse: " + err.Error())
	}
	return t
}

// Tokenize implements Tokenizer.
func (t *RegexTokenizer) Tokenize(request string) []string {
	tokens := make([]string, 0, 8)
	last := 0
	for _, loc := range t.re.FindAllStringIndex(request, -1) {
		tokens = appendPiece(tokens, request[last:loc[0]])
		tokens = appendPiece(tokens, request[loc[0]:loc[1]])
		last = loc[1]
	}
	return appendPiece(tokens, request[last:])
}

// Split tokenizes request with the default grammar.
func Split(request string) []string {
	return defaultTokenizer.Tokenize(request)
}

// appendPiece keeps a piece unless it is only spaces or a bare slash.
// Only the space character counts as blank, so line breaks stay attached
// to the piece they follow.
func appendPiece(tokens []string, piece string) []string {
	if piece == "/" || strings.Trim(piece, " ") == "" {
		return tokens
	}
	return append(tokens, strings.ToLower(piece))
}
