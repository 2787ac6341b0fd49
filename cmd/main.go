package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brendontj/lol-staging/app"
	"github.com/brendontj/lol-staging/pkg/logger"
	"github.com/brendontj/lol-staging/pkg/metrics"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lol-staging",
	Short: "Stage raw League of Legends ranked matches into analytics models",
	Long: `lol-staging reads the wide ranked match snapshot written by the extraction job and
materializes stg_lol_ranked_matches, stg_lol_participants and stg_lol_teams.

Configuration comes from LOLSTG_* variables, an optional .env file and the YAML file
named by LOLSTG_CONFIG.`,
	SilenceUsage: true,
}

var rootFlags struct {
	envFile string
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.envFile, "env-file", ".env", "dotenv file loaded before the environment")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (app.Config, *logger.Logger, error) {
	cfg, err := app.LoadConfig(rootFlags.envFile)
	if err != nil {
		return app.Config{}, nil, err
	}
	return cfg, logger.New(cfg.LogLevel), nil
}

// startWorker loads the config and starts a data worker; callers must Close it.
func startWorker(ctx context.Context, recorder *metrics.Recorder) (app.DataWorker, app.Config, *logger.Logger, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, app.Config{}, nil, err
	}
	worker := app.NewDataWorker(cfg, log, recorder)
	if err := worker.Start(ctx); err != nil {
		return nil, app.Config{}, nil, err
	}
	return worker, cfg, log, nil
}
