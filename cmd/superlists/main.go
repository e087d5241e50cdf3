// Package main is the entry point for the superlists CLI.
//
// superlists can be embedded as a library (SDK) or run as a standalone binary
// with an optional YAML configuration. This CLI provides the standalone binary.
//
// Usage:
//
//	superlists serve -c config.yaml            # Start the web application
//	superlists validate -c config.yaml         # Validate configuration
//	superlists smoke --url http://host:8000    # Run acceptance scenarios against a deployment
//	superlists version                         # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "superlists",
	Short: "A minimal to-do list web application",
	Long: `superlists serves to-do lists that anyone can start without an account.

Each list gets its own URL; items are numbered in the order they were added.

Quick start:
  1. Run: superlists serve
  2. Open http://localhost:8000 in your browser
  3. Check a deployment: superlists smoke --url http://localhost:8000

Example config:
  port: 8000
  database:
    driver: sqlite
    path: ${SUPERLISTS_DB:-superlists.db}`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	// gin defaults to debug mode, which prints every route on startup
	gin.SetMode(gin.ReleaseMode)
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this superlists binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("superlists %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
