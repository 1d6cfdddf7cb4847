package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"salarizare/internal/platform/config"
	"salarizare/internal/platform/logger"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "salarizare",
	Short: "Payroll and accounting-template service",
	Long: `salarizare computes Romanian net salaries from gross pay and the legal
constants in force, and turns transactions into ledger entries using
transaction allocation templates (TACs).

Configuration is read from the environment (and a .env file when present).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cli")
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads and validates the environment configuration.
func loadConfig() (config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
