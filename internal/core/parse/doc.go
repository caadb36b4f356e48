// Package parse splits raw request lines into command tokens.
//
// The request grammar is deliberately loose: a request line such as
// "GET /add/2/3 HTTP/1.1" is cut at the method names, slashes, spaces and
// the literal "add" and "HTTP" markers. Delimiters that carry meaning are
// kept as tokens; blank pieces and bare slashes are dropped; everything is
// lowercased. The result for the example above is
//
//	[get add 2 3 http 1.1]
//
// Headers are not parsed. Anything after the request line simply becomes
// further tokens.
package parse
