// Package tlsroots builds the TLS configurations of tlsrest.
//
// The server presents its key pair either from a fixed tls.Config
// (ServerConfig) or through a Reloader that swaps the pair when the PEM
// files change on disk. The CLI trusts the system roots plus any CA
// files it is given (ClientConfig).
package tlsroots
