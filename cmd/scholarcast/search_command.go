package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scholarcast/internal/search"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var category string
	var maxResults int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search arXiv and Semantic Scholar for papers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			results, err := app.search.Search(cmd.Context(), search.Query{
				Text:       strings.Join(args, " "),
				Category:   category,
				MaxResults: maxResults,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput || !isTerminal(out) {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(results)
			}

			if len(results) == 0 {
				fmt.Fprintln(out, "No papers found.")
				return nil
			}
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				rows = append(rows, []string{
					result.PaperID,
					truncate(result.Title, 60),
					truncate(strings.Join(result.Authors, ", "), 40),
					result.Source,
					fmt.Sprintf("%.2f", result.Relevance),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Paper ID", "Title", "Authors", "Source", "Score"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Restrict results to an arXiv category (e.g. cs.CL)")
	cmd.Flags().IntVar(&maxResults, "max", 0, "Maximum number of results")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}
