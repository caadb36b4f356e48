// Package repl provides the interactive shell of tlsrest-cli.
//
// Each line is completed into a request line and sent on a new
// connection. Built-ins: help, history, exit, quit.
package repl
