package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gabapcia/chainscan/internal/app"
	"github.com/gabapcia/chainscan/internal/handlers/cli"
)

func main() {
	if err := cli.Run(context.Background(), os.Args, os.Stdout, app.Serve); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
