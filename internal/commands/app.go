package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// Version is set at build time.
var Version = "dev"

// New returns the topicbridge command tree.
func New() *cli.Command {
	return &cli.Command{
		Name:    "topicbridge",
		Usage:   "Administer Kafka topics over HTTP",
		Version: Version,
		Commands: []*cli.Command{
			Serve(),
			Topics(),
			VersionCommand(),
		},
	}
}

func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the version",
		Action: func(_ context.Context, c *cli.Command) error {
			_, err := fmt.Fprintln(c.Root().Writer, Version)
			return err
		},
	}
}
