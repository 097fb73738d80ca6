package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"kmzgen/internal/layerdef"
)

func newLayersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "List the layer definitions that the next run would export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			defs, err := layerdef.Discover(cfg.Paths.LayerDir)
			if err != nil {
				return err
			}
			if len(defs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No layer definitions found in %s\n", cfg.Paths.LayerDir)
				return nil
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Layer", "File", "Modified", "Size"})
			for _, def := range defs {
				t.AppendRow(table.Row{
					def.DisplayName(),
					def.ArtifactName(),
					def.ModTime.Format("2006-01-02 15:04"),
					formatSize(def.Size),
				})
			}
			t.Render()
			return nil
		},
	}
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMG"[exp])
}
