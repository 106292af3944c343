package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"scholarcast/internal/digest"
	"scholarcast/internal/services"
	"scholarcast/internal/store"
)

func newSummaryCommand(ctx *commandContext) *cobra.Command {
	var regenerate bool

	cmd := &cobra.Command{
		Use:   "summary <paper-id>",
		Short: "Show a plain-language summary of a paper, generating it if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			var summary *digest.Summary
			if regenerate {
				summary, err = app.digest.GenerateSummary(cmd.Context(), args[0])
			} else {
				summary, err = app.digest.GetSummary(cmd.Context(), args[0])
				if errors.Is(err, services.ErrNotFound) {
					summary, err = app.digest.GenerateSummary(cmd.Context(), args[0])
				}
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Overview\n  %s\n", summary.Overview)
			if len(summary.KeyFindings) > 0 {
				fmt.Fprintln(out, "Key findings")
				for _, finding := range summary.KeyFindings {
					fmt.Fprintf(out, "  - %s\n", finding)
				}
			}
			if summary.Methodology != "" {
				fmt.Fprintf(out, "Methodology\n  %s\n", summary.Methodology)
			}
			if summary.Implications != "" {
				fmt.Fprintf(out, "Implications\n  %s\n", summary.Implications)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "Regenerate even when a summary exists")
	return cmd
}

func newTTSCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "tts <paper-id>",
		Short: "Narrate the summary of a paper as an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			artifact, err := app.audio.Generate(cmd.Context(), args[0], force)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Audio summary for %s (%.0fs)\n", artifact.PaperID, artifact.DurationSeconds)
			fmt.Fprintf(out, "  %s\n", artifact.AudioURL)
			if artifact.PresignedURL != "" {
				fmt.Fprintf(out, "  presigned: %s\n", artifact.PresignedURL)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Resynthesize even when a recording exists")
	return cmd
}

func newQuizCommand(ctx *commandContext) *cobra.Command {
	var regenerate bool
	var showAnswers bool

	cmd := &cobra.Command{
		Use:   "quiz <paper-id>",
		Short: "Show a comprehension quiz for a paper, generating it if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			var quiz *store.Quiz
			if regenerate {
				quiz, err = app.digest.GenerateQuiz(cmd.Context(), args[0])
			} else {
				quiz, err = app.digest.GetQuiz(cmd.Context(), args[0])
				if errors.Is(err, services.ErrNotFound) {
					quiz, err = app.digest.GenerateQuiz(cmd.Context(), args[0])
				}
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, question := range quiz.Questions {
				fmt.Fprintf(out, "%d. %s\n", i+1, question.Question)
				for j, option := range question.Options {
					fmt.Fprintf(out, "   %c) %s\n", 'a'+j, option)
				}
				if showAnswers {
					fmt.Fprintf(out, "   Answer: %s\n", question.CorrectAnswer)
					if question.Explanation != "" {
						fmt.Fprintf(out, "   %s\n", question.Explanation)
					}
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "Regenerate even when a quiz exists")
	cmd.Flags().BoolVar(&showAnswers, "answers", false, "Show the correct answers and explanations")
	return cmd
}
