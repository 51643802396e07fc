package main

import (
	"context"
	"fmt"
	"os"

	"github.com/clinia/topicbridge/internal/commands"
)

var version = "dev"

func main() {
	commands.Version = version

	app := commands.New()
	app.Version = version
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
