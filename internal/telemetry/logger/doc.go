// Package logger wraps log/slog for the tlsrest server and CLI.
//
// Connection handlers tag their context with WithConn so every line they
// log through L carries the connection ID and client address. Packages
// that take a plain *slog.Logger get one from Slog.
package logger
