package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrListNotFound is returned when a list identifier does not exist.
	ErrListNotFound = errors.New("list not found")

	// ErrEmptyItem is returned when an item's text is empty after trimming.
	ErrEmptyItem = errors.New("item text is empty")
)

// List is a to-do list. It carries no attributes beyond its identity.
type List struct {
	// ID is the opaque identifier used in the list's URL.
	ID string `json:"id"`

	// CreatedAt is when the list was created.
	CreatedAt time.Time `json:"created_at"`
}

// URL returns the list's canonical path, e.g. "/lists/<id>/".
func (l List) URL() string {
	return fmt.Sprintf("/lists/%s/", l.ID)
}

// Item is a single to-do entry belonging to exactly one list.
type Item struct {
	// ID is the item's unique identifier.
	ID string `json:"id"`

	// ListID identifies the owning list.
	ListID string `json:"list_id"`

	// Text is the user-submitted entry.
	Text string `json:"text"`

	// Position is the 1-based position of the item within its list.
	Position int `json:"position"`

	// CreatedAt is when the item was appended.
	CreatedAt time.Time `json:"created_at"`
}

// Label returns the display form "<position>: <text>".
func (i Item) Label() string {
	return fmt.Sprintf("%d: %s", i.Position, i.Text)
}

// ItemEvent is published after an item has been appended to a list.
type ItemEvent struct {
	ListID string `json:"list_id"`
	Item   Item   `json:"item"`
}

// Store defines the interface for persisting lists and items.
//
// Store implementations must be safe for concurrent access. Each operation is
// atomic: a list is never observable without its first item, and positions
// within a list are contiguous and follow insertion order.
type Store interface {
	// CreateList creates a new list holding a single item with the given text.
	CreateList(ctx context.Context, text string) (List, Item, error)

	// AddItem appends an item to an existing list.
	// Returns ErrListNotFound if the list does not exist.
	AddItem(ctx context.Context, listID, text string) (Item, error)

	// GetList looks up a list by identifier.
	// Returns ErrListNotFound if the list does not exist.
	GetList(ctx context.Context, listID string) (List, error)

	// Items returns the list's items in insertion order.
	// Returns ErrListNotFound if the list does not exist.
	Items(ctx context.Context, listID string) ([]Item, error)

	// Subscribe returns a channel that receives an ItemEvent per append.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan ItemEvent

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan ItemEvent)

	// Close releases resources held by the store and closes all subscriptions.
	Close() error
}

// normalizeText trims surrounding whitespace and rejects empty text.
func normalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyItem
	}
	return text, nil
}
