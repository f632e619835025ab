package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gabapcia/chainscan/internal/config"

	"github.com/urfave/cli/v3"
)

// serveCommand returns a CLI command that loads the configuration from the
// environment and runs the server.
//
// Usage example:
//
//	CHAINSCAN_NODE_URL=ws://127.0.0.1:17110 chainscan serve --migrate
//
// The process runs until it receives an interrupt (SIGINT or SIGTERM).
func serveCommand(serve ServeFunc) *cli.Command {
	return &cli.Command{
		Name:        "serve",
		Description: "Connects to the node and serves the HTTP API and the websocket event stream.",
		Usage:       "Runs the server. Terminates gracefully on Ctrl+C or termination signals.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "Create the chain index tables before serving",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if c.Bool("migrate") {
				cfg.DatabaseMigrate = true
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}
}
