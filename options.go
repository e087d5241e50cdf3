package superlists

import (
	"errors"
	"log/slog"
)

// appConfig holds mutable state during App construction.
type appConfig struct {
	title         string
	port          int
	databasePath  string
	logger        *slog.Logger
	itemCallbacks []func(ItemEvent)
}

// Option is a function that configures an [App] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithPort], [WithTitle], [WithSQLite], [WithLogger],
// [WithItemCallback].
type Option func(*appConfig) error

// WithPort sets the HTTP port.
//
// The lists will be available at http://localhost:<port>.
// Defaults to 8000 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *appConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the page title shown in the browser tab.
//
// If not specified or empty, defaults to "To-Do lists".
func WithTitle(title string) Option {
	return func(cfg *appConfig) error {
		if title != "" {
			cfg.title = title
		}
		return nil
	}
}

// WithSQLite stores lists in the SQLite database at path, creating the file
// and its parent directories if needed. Without it, lists live in memory.
//
// Example:
//
//	app, err := superlists.New(
//	    superlists.WithSQLite("/var/lib/superlists/lists.db"),
//	)
//
// Returns an error if the path is empty.
func WithSQLite(path string) Option {
	return func(cfg *appConfig) error {
		if path == "" {
			return errors.New("database path cannot be empty")
		}
		cfg.databasePath = path
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the App instance.
//
// This allows SDK consumers to control where logs are written and in what
// format. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *appConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithItemCallback registers a function to be called whenever an item is
// appended to any list, including the first item that creates a list.
//
// Multiple callbacks may be registered; they execute in registration order.
//
// IMPORTANT: Callbacks must be non-blocking. They are invoked synchronously
// from a single goroutine fed by a buffered subscription; a slow callback
// causes events to be dropped once the buffer is full.
//
// Panics within callbacks are recovered and logged.
//
// Example:
//
//	app, err := superlists.New(
//	    superlists.WithItemCallback(func(ev superlists.ItemEvent) {
//	        if ev.NewList() {
//	            log.Printf("new list at %s", ev.ListURL)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithItemCallback(cb func(ItemEvent)) Option {
	return func(cfg *appConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.itemCallbacks = append(cfg.itemCallbacks, cb)
		return nil
	}
}
