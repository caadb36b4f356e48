package command

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tlsrest/internal/cli/connection"
	"github.com/yndnr/tlsrest/internal/cli/output"
	"github.com/yndnr/tlsrest/internal/cli/repl"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:    "shell",
		Aliases: []string{"repl"},
		Usage:   "Send request lines interactively",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "do not read or write the history file",
			},
		},
		Action: shellAction,
	}
}

func shellAction(c *cli.Context) error {
	client, s, err := ensureClient(c)
	if err != nil {
		return err
	}

	historyFile := s.HistoryFile
	if c.Bool("no-history") {
		historyFile = ""
	}

	formatter := output.NewFormatter(s.Format)
	exec := func(ctx context.Context, line string) error {
		reply, err := client.Send(ctx, connection.RequestLine(line))
		if err != nil {
			return err
		}
		return formatter.Format(c.App.Writer, reply)
	}

	r := repl.New(exec,
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithHistory(repl.NewHistory(historyFile)),
	)
	return r.Run(c.Context)
}
