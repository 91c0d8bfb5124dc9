package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/relay/internal/core/progress"
	"github.com/colonyops/relay/internal/relay"
	"github.com/colonyops/relay/pkg/iojson"
)

type RecordCmd struct {
	flags *Flags
	app   *relay.App

	// flags
	note       string
	attempt    int64
	jsonOutput bool
}

// NewRecordCmd creates a new record command
func NewRecordCmd(flags *Flags, app *relay.App) *RecordCmd {
	return &RecordCmd{flags: flags, app: app}
}

// Register adds the record command to the application
func (cmd *RecordCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "record",
		Usage:     "Record progress for an item",
		UsageText: "relay record <item-key> <value> [--note text] [--attempt n]",
		Description: `Applies the edit locally first, then attempts to sync it to the remote
store. When the device is offline or the save fails, the edit is queued in the
durable outbox and replayed on the next sync.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "note",
				Usage:       "free-form note attached to the record",
				Destination: &cmd.note,
			},
			&cli.IntFlag{
				Name:        "attempt",
				Usage:       "attempt number for this item",
				Value:       1,
				Destination: &cmd.attempt,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output the resulting record as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *RecordCmd) run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("expected exactly 2 arguments, got %d. Usage: relay record <item-key> <value>", c.Args().Len())
	}

	rec := cmd.app.Engine.Record(ctx, progress.Record{
		ItemKey: c.Args().Get(0),
		Value:   c.Args().Get(1),
		Note:    cmd.note,
		Attempt: int(cmd.attempt),
	})

	// One-shot invocation: don't wait out the batch window.
	if err := cmd.app.Engine.Flush(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	final, _ := cmd.app.Engine.Store().Get(rec.ItemKey)

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, final)
	}

	fmt.Fprintf(c.Root().Writer, "%s = %s (%s)\n", final.ItemKey, final.Value, final.State)
	return nil
}
