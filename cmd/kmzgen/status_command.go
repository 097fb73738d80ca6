package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"kmzgen/internal/runlog"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent run history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := runlog.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet")
				return nil
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Started", "Outcome", "Discovered", "Exported", "Failed", "Published", "Duration", "Error"})
			for _, rec := range records {
				t.AppendRow(table.Row{
					rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
					string(rec.Outcome),
					rec.Discovered,
					rec.Exported,
					rec.Failed,
					rec.Published,
					rec.FinishedAt.Sub(rec.StartedAt).Round(time.Second),
					truncate(rec.ErrorMessage, 60),
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to display")

	return cmd
}

// truncate shortens s to at most max runes, never splitting a multi-byte
// character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
