package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/superlists/config"
	"github.com/jpalmerr/superlists/internal/acceptance"
	"github.com/spf13/cobra"
)

// smokeCmd runs the acceptance scenarios against a running deployment.
var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Run acceptance scenarios against a deployment",
	Long: `Run the acceptance scenarios against a running superlists deployment.

A headless browser starts a new list, adds items to it and checks that a
second visitor gets a separate list. Page checks are retried until the
wait timeout.

Note that the scenarios create lists on the target deployment.

Exit codes:
  0 - All scenarios passed
  1 - A scenario failed (details printed to stderr)

Example:
  superlists smoke --url http://localhost:8000
  superlists smoke -c config.yaml --timeout 10s`,
	RunE: runSmoke,
}

func init() {
	rootCmd.AddCommand(smokeCmd)

	smokeCmd.Flags().StringP("config", "c", "", "path to config file")
	smokeCmd.Flags().String("url", "", "base URL of the deployment (overrides config)")
	smokeCmd.Flags().Duration("timeout", 0, "how long to retry each page check (overrides config)")
	smokeCmd.Flags().Duration("interval", 0, "delay between page check attempts (overrides config)")
}

func runSmoke(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	baseURL := cfg.SmokeURL()
	if u, _ := cmd.Flags().GetString("url"); u != "" {
		baseURL = u
	}
	if err := config.ValidateBaseURL(baseURL); err != nil {
		return fmt.Errorf("invalid --url: %w", err)
	}

	if cmd.Flags().Changed("timeout") {
		d, _ := cmd.Flags().GetDuration("timeout")
		cfg.Wait.Timeout = config.Duration(d)
	}
	if cmd.Flags().Changed("interval") {
		d, _ := cmd.Flags().GetDuration("interval")
		cfg.Wait.Interval = config.Duration(d)
	}

	waiter, err := config.NewWaiter(cfg)
	if err != nil {
		return fmt.Errorf("invalid wait settings: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := &acceptance.Runner{
		BaseURL: baseURL,
		Waiter:  waiter,
		Logger:  logger,
	}

	start := time.Now()
	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("smoke test failed: %w", err)
	}

	fmt.Printf("Smoke test passed against %s in %s\n", baseURL, time.Since(start).Round(time.Millisecond))
	return nil
}
