package command

import (
	"errors"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tlsrest/internal/cli/connection"
	"github.com/yndnr/tlsrest/internal/cli/output"
)

// SendCommand returns the send command.
func SendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Send one request line and print the reply",
		ArgsUsage: "REQUEST-LINE (e.g. /add/2/3 or \"POST /data/x HTTP/1.1\")",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "fail",
				Usage: "exit with status 22 when the reply is not 2xx",
			},
		},
		Action: sendAction,
	}
}

func sendAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("send: missing request line", 2)
	}

	client, s, err := ensureClient(c)
	if err != nil {
		return err
	}

	line := connection.RequestLine(strings.Join(c.Args().Slice(), " "))
	reply, err := client.Send(c.Context, line)
	if errors.Is(err, connection.ErrEmptyReply) {
		return cli.Exit("server closed the connection without a reply", 1)
	}
	if err != nil {
		return err
	}

	if err := output.NewFormatter(s.Format).Format(c.App.Writer, reply); err != nil {
		return err
	}
	if c.Bool("fail") && !reply.OK() {
		return cli.Exit(reply.StatusLine(), 22)
	}
	return nil
}
