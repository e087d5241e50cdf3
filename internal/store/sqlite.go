package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

// SQLiteStore is a persistent implementation of [Store] backed by SQLite.
//
// The store uses a single connection, so writes are serialized and an
// in-memory database ([MemoryPath]) lives as long as the store does.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger

	// writeMu orders commits with event publication
	writeMu sync.Mutex
	events  *broker

	// overridable in tests
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and runs migrations.
//
// Parent directories of path are created. A nil logger uses slog.Default().
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite benefits from a single writer connection; it also keeps
	// an in-memory database alive between calls
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			logger.Error("failed to apply pragma", "pragma", pragma, "error", err)
			closeQuietly(db, logger)
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		closeQuietly(db, logger)
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		closeQuietly(db, logger)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger,
		events: newBroker(),
		now:    time.Now,
	}, nil
}

func closeQuietly(db *sql.DB, logger *slog.Logger) {
	if err := db.Close(); err != nil {
		logger.Error("error closing db", "error", err)
	}
}

// CreateList creates a list together with its first item in one transaction.
func (s *SQLiteStore) CreateList(ctx context.Context, text string) (List, Item, error) {
	text, err := normalizeText(text)
	if err != nil {
		return List{}, Item{}, err
	}

	now := s.now().UTC()
	list := List{ID: uuid.NewString(), CreatedAt: now}
	item := Item{
		ID:        uuid.NewString(),
		ListID:    list.ID,
		Text:      text,
		Position:  1,
		CreatedAt: now,
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO lists (id, created_at) VALUES (?, ?)",
			list.ID, list.CreatedAt.UnixNano(),
		); err != nil {
			return fmt.Errorf("failed to create list: %w", err)
		}
		return insertItem(ctx, tx, item)
	})
	if err != nil {
		return List{}, Item{}, err
	}

	s.events.publish(ItemEvent{ListID: list.ID, Item: item})
	return list, item, nil
}

// AddItem appends an item to an existing list in one transaction.
func (s *SQLiteStore) AddItem(ctx context.Context, listID, text string) (Item, error) {
	text, err := normalizeText(text)
	if err != nil {
		return Item{}, err
	}

	item := Item{
		ID:        uuid.NewString(),
		ListID:    listID,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := listExists(ctx, tx, listID); err != nil {
			return err
		}

		var last int
		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(position), 0) FROM items WHERE list_id = ?", listID,
		).Scan(&last); err != nil {
			return fmt.Errorf("failed to read position for list %s: %w", listID, err)
		}
		item.Position = last + 1

		return insertItem(ctx, tx, item)
	})
	if err != nil {
		return Item{}, err
	}

	s.events.publish(ItemEvent{ListID: listID, Item: item})
	return item, nil
}

// GetList looks up a list by identifier.
func (s *SQLiteStore) GetList(ctx context.Context, listID string) (List, error) {
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT created_at FROM lists WHERE id = ?", listID,
	).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return List{}, ErrListNotFound
	}
	if err != nil {
		return List{}, fmt.Errorf("failed to get list %s: %w", listID, err)
	}
	return List{ID: listID, CreatedAt: fromUnixNano(createdAt)}, nil
}

// Items returns the list's items ordered by position.
func (s *SQLiteStore) Items(ctx context.Context, listID string) ([]Item, error) {
	if _, err := s.GetList(ctx, listID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, text, position, created_at FROM items WHERE list_id = ? ORDER BY position",
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for list %s: %w", listID, err)
	}
	defer func() { _ = rows.Close() }()

	items := []Item{}
	for rows.Next() {
		item := Item{ListID: listID}
		var createdAt int64
		if err := rows.Scan(&item.ID, &item.Text, &item.Position, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.CreatedAt = fromUnixNano(createdAt)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items for list %s: %w", listID, err)
	}
	return items, nil
}

// Subscribe creates a new subscription for item events.
func (s *SQLiteStore) Subscribe() <-chan ItemEvent {
	return s.events.subscribe()
}

// Unsubscribe removes a subscription and closes its channel.
func (s *SQLiteStore) Unsubscribe(ch <-chan ItemEvent) {
	s.events.unsubscribe(ch)
}

// Close closes all subscriptions and the database.
func (s *SQLiteStore) Close() error {
	s.events.close()
	return s.db.Close()
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("transaction rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func listExists(ctx context.Context, tx *sql.Tx, listID string) error {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM lists WHERE id = ?", listID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrListNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get list %s: %w", listID, err)
	}
	return nil
}

func insertItem(ctx context.Context, tx *sql.Tx, item Item) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO items (id, list_id, text, position, created_at) VALUES (?, ?, ?, ?, ?)",
		item.ID, item.ListID, item.Text, item.Position, item.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to create item in list %s: %w", item.ListID, err)
	}
	return nil
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
