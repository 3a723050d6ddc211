package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nhle/mailcache/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine, err := app.engine()
		if err != nil {
			return err
		}
		drafts, err := app.drafts()
		if err != nil {
			return err
		}

		addr := serveAddr
		if addr == "" {
			addr = app.cfg.Server.Addr
		}

		h := api.NewHandler(app.store, engine, app.views(), drafts, api.Options{
			User:        app.cfg.User,
			Defaults:    app.defaults(),
			MaxResults:  app.cfg.Sync.MaxResults,
			SyncTimeout: app.timeout(app.cfg.Sync.TimeoutSec),
			AITimeout:   app.timeout(app.cfg.AI.TimeoutSec),
		}, app.log)

		if !quietFlag {
			app.out.SuccessMsg("Listening on %s", addr)
		}
		return api.Serve(ctx, addr, h.Router(), app.log)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr from config)")
	rootCmd.AddCommand(serveCmd)
}
