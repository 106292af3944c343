package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "download <paper-id>",
		Short: "Download a paper's PDF into the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			paper, err := app.search.DownloadPDF(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s to %s\n", paper.PaperID, paper.LocalPath)
			return nil
		},
	}
}

func newPapersCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "papers",
		Short: "List stored papers",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			papers, err := app.store.ListPapers(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput || !isTerminal(out) {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(papers)
			}

			if len(papers) == 0 {
				fmt.Fprintln(out, "No papers stored yet. Run `scholarcast search` to find some.")
				return nil
			}
			rows := make([][]string, 0, len(papers))
			for _, paper := range papers {
				downloaded := "no"
				if paper.LocalPath != "" {
					downloaded = "yes"
				}
				rows = append(rows, []string{
					paper.PaperID,
					truncate(paper.Title, 60),
					truncate(strings.Join(paper.Authors, ", "), 40),
					paper.Source,
					downloaded,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Paper ID", "Title", "Authors", "Source", "PDF"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}
