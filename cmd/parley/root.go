package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley plays scripted conversations",
	Long: `Parley loads conversation graphs written in YAML, compiles their routines and plays them
in the terminal, as a JSON stream or behind an HTTP control surface.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Settings file (YAML)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("stub", false, "Replace routines that fail to compile with no-ops")
	rootCmd.PersistentFlags().StringToString("var", nil, "Initial routine variable, e.g. --var visits=0")
}

// setup reads the settings file and applies command line overrides.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("stub") {
		cfg.StubFailedRoutines, _ = cmd.Flags().GetBool("stub")
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logging.New(level), nil
}

// newEngine loads the graph file with the host bindings of the CLI.
func newEngine(cmd *cobra.Command, path string, cfg config.Config, logger *slog.Logger, hooks domain.LifecycleHooks, relay *runner.Relay) (*parley.Engine, error) {
	vars, _ := cmd.Flags().GetStringToString("var")
	bindings, err := hostBindings(vars, logger, relay)
	if err != nil {
		return nil, err
	}
	eng, err := parley.New(file.New(path),
		parley.WithName(path),
		parley.WithLogger(logger),
		parley.WithSettings(cfg.Settings),
		parley.WithLifecycleHooks(hooks),
		parley.WithBindings(bindings),
		parley.WithStubFailedRoutines(cfg.StubFailedRoutines),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return eng, nil
}
