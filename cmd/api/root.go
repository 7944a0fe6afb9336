package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spec-kit/dating-api/internal/config"
)

// global flags
var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "dating-api",
	Short: "Dating API backend",
	Long: `dating-api serves member accounts over HTTP. It registers and
authenticates members and issues signed bearer tokens for them.`,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format override (json, console)")

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

// loadConfig reads the environment and applies command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logger.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logger.Format = logFormat
	}
	return cfg, nil
}
