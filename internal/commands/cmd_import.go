package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/relay/internal/core/progress"
	"github.com/colonyops/relay/internal/relay"
	"github.com/colonyops/relay/pkg/iojson"
)

// importRecord is the JSON input shape for relay import.
type importRecord struct {
	ItemKey string `json:"itemKey"`
	Value   string `json:"value"`
	Note    string `json:"note,omitempty"`
	Attempt int    `json:"attempt,omitempty"`
}

type ImportCmd struct {
	flags *Flags
	app   *relay.App

	reader iojson.FileReader[[]importRecord]
}

// NewImportCmd creates a new import command
func NewImportCmd(flags *Flags, app *relay.App) *ImportCmd {
	return &ImportCmd{flags: flags, app: app}
}

// Register adds the import command to the application
func (cmd *ImportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "import",
		Usage:     "Record a batch of progress edits from JSON",
		UsageText: "relay import [-f file.json]",
		Description: `Reads a JSON array of records from a file or stdin and applies each one
as a local edit, then flushes them to the remote store as a single batch.

Input format:
  [{"itemKey": "U1-L1-Q01", "value": "C", "note": "optional", "attempt": 2}]`,
		Flags: []cli.Flag{
			cmd.reader.Flag(),
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ImportCmd) run(ctx context.Context, c *cli.Command) error {
	input, err := cmd.reader.Read()
	if err != nil {
		return err
	}

	for _, in := range input {
		if in.ItemKey == "" {
			return fmt.Errorf("record missing itemKey")
		}
		cmd.app.Engine.Record(ctx, progress.Record{
			ItemKey: in.ItemKey,
			Value:   in.Value,
			Note:    in.Note,
			Attempt: in.Attempt,
		})
	}

	if err := cmd.app.Engine.Flush(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	fmt.Fprintf(c.Root().Writer, "Imported %d record(s)\n", len(input))
	return nil
}
