// Package service implements the request commands served by tlsrest.
//
// A Dispatcher receives the request verb and the remaining tokens produced
// by the parse package and returns a domain.Response. Dispatchers hold no
// per-request state and are safe for concurrent use by the worker pool.
//
// Commands:
//
//   - get add <a> <b>     sum of two integers
//   - get hello <n>       bottle delivery for 0 < n < 24
//   - get json            fixed JSON document
//   - get help, get http  endpoint list
//   - get stop            remote shutdown request
//   - post data ...       echo of the received tokens
//
// Anything else is answered with 501 Not Implemented.
package service
