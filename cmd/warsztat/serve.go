package main

import (
	"github.com/spf13/cobra"

	"github.com/artpar/warsztat/bootstrap"
)

var watchConfig bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the JSON API server",
	Long: `Start the HTTP server exposing the runtime under /api, with /health
and, when enabled, Prometheus metrics.

The configuration file is watched for changes and re-read on SIGHUP.
Log level and CORS origins apply without a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := bootstrap.New(cmd.Context(), cfgFile)
		if err != nil {
			return err
		}

		if watchConfig && app.Config.Path() != "" {
			if err := app.Config.WatchFile(); err != nil {
				app.Logger.Warn().Err(err).Msg("config file not watched")
			}
		}
		app.Config.WatchSignals()

		return app.Run()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&watchConfig, "watch", true, "reload the config file when it changes")
	rootCmd.AddCommand(serveCmd)
}
