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

type LsCmd struct {
	flags *Flags
	app   *relay.App

	// flags
	jsonOutput bool
	state      string
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags, app *relay.App) *LsCmd {
	return &LsCmd{flags: flags, app: app}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ls",
		Usage:     "List local progress records",
		UsageText: "relay ls [--json] [--state state]",
		Description: `Displays a table of all locally known records with their value, sync
state, and edit time. The listing reads the local store only; it never touches
the network.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
			&cli.StringFlag{
				Name:        "state",
				Usage:       "only show records in this sync state",
				Destination: &cmd.state,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	records := cmd.app.Engine.Store().Snapshot()

	if cmd.state != "" {
		filtered := records[:0]
		for _, rec := range records {
			if string(rec.State) == cmd.state {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	if len(records) == 0 {
		if !cmd.jsonOutput {
			fmt.Fprintf(os.Stderr, "No records found\n")
		}
		return nil
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, rec := range records {
			if err := iojson.WriteLine(out, rec); err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ITEM\tVALUE\tATTEMPT\tSTATE\tEDITED")

	for _, rec := range records {
		edited := time.UnixMilli(rec.LocalTS).Format(time.RFC3339)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", rec.ItemKey, rec.Value, rec.Attempt, rec.State, edited)
	}

	return w.Flush()
}
