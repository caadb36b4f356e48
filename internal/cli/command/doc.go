// Package command defines the tlsrest-cli commands.
//
// It uses urfave/cli/v2. Global flags select the server and how to reach
// it; send, stop and shell talk to the server through package connection.
package command
