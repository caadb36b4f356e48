package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// StopCommand returns the stop command.
func StopCommand() *cli.Command {
	return &cli.Command{
		Name:   "stop",
		Usage:  "Ask the server to shut down",
		Action: stopAction,
	}
}

func stopAction(c *cli.Context) error {
	client, _, err := ensureClient(c)
	if err != nil {
		return err
	}
	if err := client.Stop(c.Context); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "stop sent to %s\n", client.Addr())
	return nil
}
