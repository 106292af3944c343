package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scholarcast/internal/api"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			server := api.NewServer(app.cfg, app.store, app.search, app.digest, app.audio, app.pipeline, app.logger)
			if server == nil {
				return fmt.Errorf("server.bind is not configured; set it in the [server] section")
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := server.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scholarcast listening on %s\n", server.Addr())

			<-runCtx.Done()
			server.Stop()
			return nil
		},
	}
}
