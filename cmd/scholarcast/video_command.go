package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVideoCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "video <paper-id>",
		Short: "Generate a narrated presentation video for a paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			artifact, err := app.pipeline.Generate(cmd.Context(), args[0], force)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Video ready: %s\n", artifact.ArtifactURL)
			fmt.Fprintf(out, "  slides: %d  duration: %.1fs  status: %s\n",
				artifact.SlideCount, artifact.DurationSeconds, artifact.Status)
			if artifact.PresignedURL != "" {
				fmt.Fprintf(out, "  stream: %s\n", artifact.PresignedURL)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Regenerate even when a completed video exists")
	return cmd
}
