// Package superlists provides an embeddable to-do list web application.
//
// Anonymous visitors start a list by submitting its first item on the home
// page. Each list lives at its own URL, /lists/<id>/, and shows its items
// numbered in insertion order. Lists are independent: nobody sees another
// visitor's items unless they are given the URL.
//
// # Quick Start
//
//	app, _ := superlists.New()
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	app.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// App uses the functional options pattern for configuration:
//
//	app, err := superlists.New(
//	    superlists.WithPort(9090),
//	    superlists.WithTitle("Team chores"),
//	    superlists.WithSQLite("lists.db"),
//	    superlists.WithItemCallback(func(ev superlists.ItemEvent) {
//	        log.Println("added", ev.Label())
//	    }),
//	)
//
// # Architecture
//
// The application consists of several packages:
//
//   - internal/store: Memory and SQLite storage with pub/sub of item events
//   - internal/server: gin routes for pages, JSON API and Server-Sent Events
//   - templates: Embedded HTML templates
//   - internal/browser: Headless browser used by the acceptance scenarios
//   - internal/acceptance: End-to-end scenarios driven through a browser
//   - wait: Polling helper that retries pending checks until a timeout
//
// The internal packages are not part of the public API and may change
// without notice.
package superlists
