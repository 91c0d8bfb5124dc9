package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/relay/internal/relay"
	"github.com/colonyops/relay/pkg/iojson"
)

type OutboxCmd struct {
	flags *Flags
	app   *relay.App

	// flags
	jsonOutput bool
}

// NewOutboxCmd creates a new outbox command
func NewOutboxCmd(flags *Flags, app *relay.App) *OutboxCmd {
	return &OutboxCmd{flags: flags, app: app}
}

// Register adds the outbox command to the application
func (cmd *OutboxCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "outbox",
		Usage:     "Inspect and manage the offline outbox",
		UsageText: "relay outbox <ls|drain|clear>",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List queued operations in replay order",
				UsageText: "relay outbox ls [--json]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON lines",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runLs,
			},
			{
				Name:        "drain",
				Usage:       "Replay queued operations to the remote store",
				UsageText:   "relay outbox drain",
				Description: `Stops at the first failure; anything not yet replayed stays queued.`,
				Action:      cmd.runDrain,
			},
			{
				Name:        "clear",
				Usage:       "Discard all queued operations",
				UsageText:   "relay outbox clear",
				Description: `Discarded operations are gone for good; their edits survive only in the local store.`,
				Action:      cmd.runClear,
			},
		},
	})

	return app
}

func (cmd *OutboxCmd) runLs(ctx context.Context, c *cli.Command) error {
	ops, err := cmd.app.Outbox.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("read outbox: %w", err)
	}

	if len(ops) == 0 {
		if !cmd.jsonOutput {
			fmt.Fprintf(os.Stderr, "Outbox is empty\n")
		}
		return nil
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, op := range ops {
			if err := iojson.WriteLine(out, op); err != nil {
				return fmt.Errorf("encode operation: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tKIND\tITEM\tVALUE\tQUEUED")

	for _, op := range ops {
		queued := time.UnixMilli(op.QueuedAt).Format(time.RFC3339)
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", op.ID, op.Kind, op.Payload.ItemKey, op.Payload.Value, queued)
	}

	return w.Flush()
}

func (cmd *OutboxCmd) runDrain(ctx context.Context, c *cli.Command) error {
	drained, err := cmd.app.Engine.Drain(ctx)
	if err != nil {
		return fmt.Errorf("drained %d record(s), then stopped: %w", drained, err)
	}

	fmt.Fprintf(c.Root().Writer, "Drained %d record(s)\n", drained)
	return nil
}

func (cmd *OutboxCmd) runClear(ctx context.Context, c *cli.Command) error {
	size, err := cmd.app.Outbox.Size(ctx)
	if err != nil {
		return fmt.Errorf("read outbox size: %w", err)
	}

	if err := cmd.app.Outbox.Clear(ctx); err != nil {
		return fmt.Errorf("clear outbox: %w", err)
	}

	fmt.Fprintf(c.Root().Writer, "Cleared %d record(s)\n", size)
	return nil
}
