package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/relay/internal/relay"
)

type SyncCmd struct {
	flags *Flags
	app   *relay.App
}

// NewSyncCmd creates a new sync command
func NewSyncCmd(flags *Flags, app *relay.App) *SyncCmd {
	return &SyncCmd{flags: flags, app: app}
}

// Register adds the sync command to the application
func (cmd *SyncCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "sync",
		Usage:     "Run one full sync cycle now",
		UsageText: "relay sync",
		Description: `Drains the offline outbox, then pulls remote changes and merges them into
the local store (newest timestamp wins). Equivalent to one tick of the daemon's
periodic loop.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *SyncCmd) run(ctx context.Context, c *cli.Command) error {
	out := c.Root().Writer

	if err := cmd.app.Engine.Flush(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	drained, err := cmd.app.Engine.Drain(ctx)
	if err != nil {
		fmt.Fprintf(out, "Drained %d queued record(s), then stopped: %v\n", drained, err)
	} else if drained > 0 {
		fmt.Fprintf(out, "Drained %d queued record(s)\n", drained)
	}

	if err := cmd.app.Engine.ReconcileOnce(ctx); err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	fmt.Fprintln(out, "Sync complete")
	return nil
}
