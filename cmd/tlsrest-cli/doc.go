// Package main provides the entry point for tlsrest-cli.
//
// Usage:
//
//	tlsrest-cli send /add/2/3
//	tlsrest-cli --ca ca.pem --addr server:8443 send "POST /data/hello"
//	tlsrest-cli --plaintext --addr localhost:8080 stop
//	tlsrest-cli shell
package main
