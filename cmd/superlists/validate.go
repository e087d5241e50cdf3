package main

import (
	"fmt"

	"github.com/jpalmerr/superlists/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a superlists configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  superlists validate -c config.yaml
  superlists validate --config /etc/superlists/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	database := cfg.Database.Driver
	if cfg.Database.Driver == config.DriverSQLite {
		database = fmt.Sprintf("%s (%s)", cfg.Database.Driver, cfg.Database.Path)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:      %d\n", cfg.Port)
	fmt.Printf("  Database:  %s\n", database)
	fmt.Printf("  Wait:      %s timeout, %s interval\n",
		cfg.Wait.Timeout.Duration(), cfg.Wait.Interval.Duration())
	fmt.Printf("  Smoke URL: %s\n", cfg.SmokeURL())

	return nil
}
