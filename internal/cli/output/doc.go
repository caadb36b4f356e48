// Package output renders server replies for tlsrest-cli.
//
// The text format prints the reply body as the server sent it; table,
// json and yaml show the status line fields as well.
package output
