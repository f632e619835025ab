package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabapcia/chainscan/internal/event"
	transporthttp "github.com/gabapcia/chainscan/internal/pkg/transport/http"

	"github.com/urfave/cli/v3"
)

// ErrNotLive is returned by the status command when the server reports the
// node as unreachable.
var ErrNotLive = errors.New("node is not live")

type healthResponse struct {
	Status int `json:"status"`
	Data   struct {
		Live     bool         `json:"live"`
		Protocol string       `json:"protocol"`
		Events   []event.Type `json:"events"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// statusCommand returns a CLI command that queries /health of a running
// server.
//
// Usage example:
//
//	chainscan status --server http://127.0.0.1:3003
func statusCommand() *cli.Command {
	return &cli.Command{
		Name:        "status",
		Description: "Queries the health endpoint of a running chainscan server.",
		Usage:       "Prints node liveness, protocol and streamed events. Fails when the node is not live.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server",
				Usage: "Base URL of the chainscan server",
				Value: "http://127.0.0.1:3003",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout of each attempt",
				Value: 5 * time.Second,
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "Retries on connection errors and 5xx responses",
				Value: 2,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			client := transporthttp.NewClient(
				transporthttp.WithTimeout(c.Duration("timeout")),
				transporthttp.WithRetryMax(int(c.Int("retries"))),
				transporthttp.WithRetryWaitMin(100*time.Millisecond),
				transporthttp.WithRetryWaitMax(time.Second),
			)

			var resp healthResponse
			url := strings.TrimSuffix(c.String("server"), "/") + "/health"
			code, err := transporthttp.GetJSON(ctx, client, url, &resp)
			if err != nil {
				return fmt.Errorf("query %s: %w", url, err)
			}

			if resp.Error != nil {
				return fmt.Errorf("%w: %s: %s", ErrNotLive, resp.Error.Code, resp.Error.Message)
			}

			names := make([]string, len(resp.Data.Events))
			for i, e := range resp.Data.Events {
				names[i] = e.String()
			}

			w := c.Root().Writer
			fmt.Fprintf(w, "server: %s (%d)\n", c.String("server"), code)
			fmt.Fprintf(w, "live: %t\n", resp.Data.Live)
			fmt.Fprintf(w, "protocol: %s\n", resp.Data.Protocol)
			fmt.Fprintf(w, "events: %s\n", strings.Join(names, ","))

			if !resp.Data.Live {
				return ErrNotLive
			}
			return nil
		},
	}
}
