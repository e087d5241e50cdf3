package superlists

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jpalmerr/superlists/internal/server"
	"github.com/jpalmerr/superlists/internal/store"
)

const defaultPort = 8000

// App is the main orchestrator for the to-do list web application.
//
// App opens the configured store, serves the list pages over HTTP and fans
// out item events to registered callbacks. It is created using [New] with
// functional options and started with [App.Start].
//
// The typical lifecycle is:
//
//	app, err := superlists.New(superlists.WithSQLite("superlists.db"))
//	if err != nil {
//	    slog.Error("failed to create app", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	app.Start(ctx) // blocks until context cancelled
//
// The caller controls the lifecycle via the context. Cancel the context to
// trigger graceful shutdown.
type App struct {
	title         string
	port          int
	databasePath  string
	logger        *slog.Logger
	itemCallbacks []func(ItemEvent)
}

// New creates a new [App] instance with the given options.
//
// All options have sensible defaults:
//   - Port: 8000
//   - Title: "To-Do lists"
//   - Storage: in memory, lost on shutdown
//
// Returns an error if any option is invalid.
//
// Example:
//
//	app, err := superlists.New(
//	    superlists.WithPort(9090),
//	    superlists.WithTitle("Team chores"),
//	)
func New(opts ...Option) (*App, error) {
	cfg := &appConfig{
		port:  defaultPort,
		title: server.DefaultTitle,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &App{
		title:         cfg.title,
		port:          cfg.port,
		databasePath:  cfg.databasePath,
		logger:        logger,
		itemCallbacks: cfg.itemCallbacks,
	}, nil
}

// Start opens the store and serves the application.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - The store is opened (SQLite migrations run on first use)
//   - The HTTP server starts on the configured port
//   - Every appended item is logged and passed to the item callbacks
//
// On cancellation the HTTP server drains in-flight requests for up to five
// seconds before the store is closed.
//
// Returns nil on graceful shutdown. Returns an error if the store cannot be
// opened or the HTTP server fails to start.
func (a *App) Start(ctx context.Context) error {
	a.logger.Info("superlists starting", "database", a.databaseName())

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	st, err := a.openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	// track the events consumer goroutine to ensure clean shutdown
	events := st.Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range events {
			public := toPublicEvent(ev)
			a.logger.Debug("item added",
				"list_id", public.ListID,
				"position", public.Position,
			)
			for _, cb := range a.itemCallbacks {
				invokeCallbackSafe(cb, public, a.logger)
			}
		}
	}()

	// closing the store closes the subscription, which ends the consumer
	cleanup := func() {
		if err := st.Close(); err != nil {
			a.logger.Error("failed to close store", "error", err)
		}
		wg.Wait()
	}

	httpServer, err := server.NewServer(st, a.port, a.title, a.logger)
	if err != nil {
		cleanup()
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	a.logger.Info("lists available", "url", fmt.Sprintf("http://localhost:%d", a.port))

	<-ctx.Done()
	<-httpServer.Done()
	cleanup()
	a.logger.Info("superlists stopped")
	return nil
}

// Port returns the configured HTTP port.
func (a *App) Port() int {
	return a.port
}

// Title returns the page title.
func (a *App) Title() string {
	return a.title
}

// DatabasePath returns the SQLite database path, or "" for in-memory storage.
func (a *App) DatabasePath() string {
	return a.databasePath
}

func (a *App) openStore(ctx context.Context) (store.Store, error) {
	if a.databasePath == "" {
		return store.NewMemoryStore(), nil
	}
	return store.OpenSQLite(ctx, a.databasePath, a.logger)
}

func (a *App) databaseName() string {
	if a.databasePath == "" {
		return "memory"
	}
	return a.databasePath
}

// toPublicEvent converts an internal store event to the public API type.
func toPublicEvent(ev store.ItemEvent) ItemEvent {
	return ItemEvent{
		ListID:    ev.ListID,
		ListURL:   store.List{ID: ev.ListID}.URL(),
		ItemID:    ev.Item.ID,
		Text:      ev.Item.Text,
		Position:  ev.Item.Position,
		CreatedAt: ev.Item.CreatedAt,
	}
}

// invokeCallbackSafe calls an item callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(ItemEvent), ev ItemEvent, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("item callback panicked",
				"panic", r,
				"list_id", ev.ListID,
			)
		}
	}()
	cb(ev)
}
