package main

import (
	"github.com/brendontj/lol-staging/app"
	"github.com/brendontj/lol-staging/pkg/metrics"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the staging HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		recorder := metrics.New()
		worker, cfg, log, err := startWorker(cmd.Context(), recorder)
		if err != nil {
			return err
		}
		defer worker.Close()

		return app.NewServer(worker, recorder, log).
			WithInputDir(cfg.InputDir).
			Run(cmd.Context(), cfg.HTTPAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
