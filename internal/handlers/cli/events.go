package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/gabapcia/chainscan/internal/config"
	"github.com/gabapcia/chainscan/internal/event"
	"github.com/gabapcia/chainscan/internal/pkg/types"

	"github.com/urfave/cli/v3"
)

// eventsCommand returns a CLI command that prints every known event type,
// whether it is enabled and the delivery settings.
//
// Usage example:
//
//	CHAINSCAN_EVENTS_ENABLED=block-added chainscan events
func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:        "events",
		Description: "Prints the event taxonomy and the event configuration loaded from the environment.",
		Usage:       "Lists event types. Fails when the configuration is invalid.",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ec, err := cfg.EventConfig()
			if err != nil {
				return err
			}

			enabled := types.NewSet(ec.Enabled...)

			w := tabwriter.NewWriter(c.Root().Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EVENT\tNOTIFICATION\tENABLED")
			for _, t := range event.All() {
				fmt.Fprintf(w, "%s\t%s\t%t\n", t, t.NotificationName(), enabled.Has(t.String()))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "\nstrategy: %s\n", ec.Strategy.Kind)
			switch ec.Strategy.Kind {
			case event.Batch:
				fmt.Fprintf(c.Root().Writer, "batch: %d events or %s\n", ec.Strategy.BatchSize, ec.Strategy.BatchTimeout)
			case event.Priority:
				fmt.Fprintf(c.Root().Writer, "priority: high=[%s] medium=[%s] low=[%s]\n",
					strings.Join(ec.Strategy.High, ","),
					strings.Join(ec.Strategy.Medium, ","),
					strings.Join(ec.Strategy.Low, ","),
				)
			}
			fmt.Fprintf(c.Root().Writer, "buffer size: %d\ndeduplication: %t\n", ec.BufferSize, ec.Deduplication)
			return nil
		},
	}
}
