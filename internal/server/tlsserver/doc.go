// Package tlsserver accepts TLS connections and serves one request per
// connection on a fixed worker pool.
//
// The accept goroutine owns the listening socket and performs the TLS
// handshake. Each established connection becomes a pool task that reads a
// single request, tokenizes and dispatches it, writes the response,
// appends an audit entry and closes the connection. When no TLS config is
// given the same pipeline serves plaintext connections.
//
// Lifecycle:
//
//	srv := tlsserver.New(cfg, opts...)
//	if err := srv.Open(); err != nil { ... }   // socket, bind, listen, audit log
//	err := srv.Run(ctx)                        // until ctx is cancelled
//	srv.Close(shutdownCtx)                     // drain pool until the deadline
package tlsserver
