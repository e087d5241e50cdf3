package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/superlists"
	"github.com/jpalmerr/superlists/internal/acceptance"
	"github.com/jpalmerr/superlists/wait"
)

const baseURL = "http://localhost:8080"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	app, err := superlists.New(
		superlists.WithPort(8080),
		superlists.WithTitle("Demo lists"),
		superlists.WithLogger(logger),
		superlists.WithItemCallback(func(e superlists.ItemEvent) {
			if e.NewList() {
				fmt.Printf("  new list    %s\n", e.ListURL)
			}
			fmt.Printf("  item added  %s\n", e.Label())
		}),
	)
	if err != nil {
		slog.Error("failed to create app", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   superlists Demo                                     ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   A headless visitor seeds two demo lists first.      ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go seedDemoLists(ctx, logger)

	if err := app.Start(ctx); err != nil {
		slog.Error("superlists error", "error", err)
		os.Exit(1)
	}
}

// seedDemoLists waits for the app to come up and runs the acceptance
// scenarios against it, which leaves a few lists behind to look at.
func seedDemoLists(ctx context.Context, logger *slog.Logger) {
	waiter, err := wait.New(wait.WithTimeout(5*time.Second), wait.WithInterval(100*time.Millisecond))
	if err != nil {
		logger.Error("failed to create waiter", "error", err)
		return
	}

	err = waiter.Until(ctx, func(ctx context.Context) error {
		resp, err := http.Get(baseURL + "/healthz")
		if err != nil {
			return wait.Pending(err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return wait.Pendingf("healthz returned %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("app did not become ready", "error", err)
		}
		return
	}

	runner := &acceptance.Runner{BaseURL: baseURL, Waiter: waiter, Logger: logger}
	if err := runner.Run(ctx); err != nil {
		logger.Error("demo visitor failed", "error", err)
	}
}
