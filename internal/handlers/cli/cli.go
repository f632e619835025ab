package cli

import (
	"context"
	"io"

	"github.com/gabapcia/chainscan/internal/config"

	"github.com/urfave/cli/v3"
)

// ServeFunc runs the server with cfg until ctx is done.
type ServeFunc func(ctx context.Context, cfg config.Config) error

// Run initializes and executes the chainscan CLI application with args
// (os.Args in production). Output goes to out.
//
// It registers all available commands, including:
//
//   - `serve`: Runs the API and websocket server.
//   - `events`: Prints the event taxonomy and the validated configuration.
//   - `status`: Queries the health endpoint of a running server.
func Run(ctx context.Context, args []string, out io.Writer, serve ServeFunc) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "chainscan",
		Description:           "Blockchain explorer backend streaming node events to websocket clients.",
		Usage:                 "chainscan [command] [flags]",
		Writer:                out,
		Commands: []*cli.Command{
			serveCommand(serve),
			eventsCommand(),
			statusCommand(),
		},
	}

	return app.Run(ctx, args)
}
