package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scholarcast/internal/deps"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show stored paper and video counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := app.store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Papers", "Videos", "Processing", "Completed", "Failed"},
				[][]string{{
					fmt.Sprintf("%d", stats.Papers),
					fmt.Sprintf("%d", stats.Videos),
					fmt.Sprintf("%d", stats.Processing),
					fmt.Sprintf("%d", stats.Completed),
					fmt.Sprintf("%d", stats.Failed),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
			))

			toolRows := make([][]string, 0, 2)
			for _, tool := range deps.CheckBinaries(deps.Requirements(app.cfg)) {
				state := "ok"
				if !tool.Available {
					state = tool.Detail
				}
				toolRows = append(toolRows, []string{tool.Name, tool.Command, state})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Tool", "Command", "Status"},
				toolRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
