package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	appErr "autograder/pkg/errors"
	"autograder/pkg/utils/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	root := a.rootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "autograder: %v\n", err)
		return appErr.GetCode(err).ExitCode()
	}
	return 0
}

// app carries the configuration resolved once in PersistentPreRunE.
type app struct {
	configPath string
	envFile    string
	logLevel   string

	cfg   *AppConfig
	runID string
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "autograder",
		Short:         "Grade Canvas rubric criteria by running a test command per criterion",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath, "Path to config file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", defaultEnvFile, "Path to .env file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")

	root.AddCommand(a.evaluateCommand())
	root.AddCommand(a.uploadCommand())
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()
	cfg, err := loadAppConfig(a.configPath, flags.Changed("config"))
	if err != nil {
		return err
	}
	if err := loadEnv(cfg, a.envFile, flags.Changed("env-file")); err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logger.Level = a.logLevel
	}
	if err := logger.Init(cfg.Logger); err != nil {
		return appErr.Wrapf(err, appErr.ConfigInvalid, "init logger failed")
	}

	a.cfg = cfg
	a.runID = uuid.NewString()
	cmd.SetContext(logger.WithRunID(cmd.Context(), a.runID))
	return nil
}
