// Package connection sends single request lines to a tlsrest server.
//
// Each Send dials a fresh connection, writes the line, half-closes the
// write side and reads until the server closes. The reply is parsed as
// an HTTP/1.1 response without Content-Length.
package connection
