package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"jupiter/internal/application"
	"jupiter/internal/config"
	"jupiter/internal/logging"
)

var (
	configPath  string
	databaseURL string
	logLevel    string
	verbose     bool
	metricsFile string
	env         *application.Env
)

var rootCmd = &cobra.Command{
	Use:   "jupiter",
	Short: "Plan your life and keep it in step with your workspace",
	Long: `jupiter keeps inbox tasks, big plans, habits, chores, metrics, people,
smart lists, vacations and push tasks in a local database and mirrors them
to collections in a hosted document workspace.

Edits made on either side are reconciled by sync; gen turns recurring
templates into inbox tasks and gc clears finished work off the remote.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if databaseURL != "" {
			cfg.DatabaseURL = databaseURL
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		if metricsFile != "" {
			cfg.Metrics.File = metricsFile
		}
		logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
		env, err = application.Open(cmd.Context(), cfg, logger)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if env == nil {
			return nil
		}
		return env.Close()
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if env != nil {
			env.Close()
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/jupiter/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "db", "", "database URL (sqlite://, postgres:// or mysql://)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write a Prometheus textfile snapshot here after the command")
}

// GetEnv returns the initialized environment
func GetEnv() *application.Env {
	return env
}
