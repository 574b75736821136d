// Package cmd implements the command-line interface for schemaorder using Cobra.
// It defines the root command and all subcommands (order, inspect, init, version).
package cmd

import (
	"context"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/riyasyash/schemaorder/internal/analyzer"
	"github.com/riyasyash/schemaorder/internal/config"
	"github.com/riyasyash/schemaorder/internal/db"
	"github.com/riyasyash/schemaorder/internal/graph"
	"github.com/riyasyash/schemaorder/internal/logger"
)

// Version is the current version of schemaorder, set at build time via ldflags.
var Version = "0.0.1"

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "schemaorder",
	Short: "Order database tables by their foreign key dependencies",
	Long: `schemaorder reads the catalog of a PostgreSQL, MySQL or SQLite database,
builds its foreign key graph, infers undeclared relationships and prints an
order in which tables can be loaded or deleted without violating
referential integrity.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command and returns any error encountered.
// This is called from main.go.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: SCHEMAORDER_CONFIG env var or ./schemaorder.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Print phases, progress and debug logs")

	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "schemaorder v%s\n", Version)
	},
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if verbose {
		level = logger.LevelDebug
	}
	logger.SetLevel(level)
	logger.CLI().Debug("running command", "command", cmd.Name(), "level", level)

	return nil
}

// resolveSource picks the DSN with priority: --source flag > SCHEMAORDER_SOURCE env > config file.
func resolveSource(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("SCHEMAORDER_SOURCE"); env != "" {
		return env
	}
	return cfg.Database.DSN
}

func resolveDriver(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.Database.Driver
}

func connect(ctx context.Context, driver, source string) (*db.Connection, error) {
	conn, err := db.NewConnection(ctx, resolveDriver(driver), resolveSource(source))
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	return conn, nil
}

// analyzerOptions merges the configuration with command-line switches.
func analyzerOptions(noImplied bool) (analyzer.Options, error) {
	patterns, err := cfg.ExcludePatterns()
	if err != nil {
		return analyzer.Options{}, err
	}

	return analyzer.Options{
		SkipImplied: noImplied || !cfg.InferenceEnabled(),
		Inference: graph.InferenceOptions{
			DuplicateThreshold: cfg.Inference.DuplicateThreshold,
			ExcludeColumns:     patterns,
		},
		Verbose: verbose,
	}, nil
}
