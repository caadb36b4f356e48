// Package main provides the entry point for tlsrest-server.
//
// tlsrest-server terminates TLS on a TCP port, answers single-line
// pseudo-HTTP requests from a worker pool and records every request in a
// size-rotated audit log.
//
// Usage:
//
//	tlsrest-server [flags]
//	tlsrest-server --config /etc/tlsrest/server.yaml
//	tlsrest-server --plaintext --port 8080
//
// Exit codes: 0 after SIGINT, 13 after a remote stop request, 1 on a
// generic or configuration failure, 2 when the address cannot be bound,
// 3 when listen fails, 4 when the certificate cannot be loaded and 5
// when the audit log cannot be opened.
package main
