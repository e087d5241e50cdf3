package superlists

import (
	"fmt"
	"time"
)

// ItemEvent describes an item that has just been appended to a list.
//
// ItemEvent is a value type; callbacks may keep it without synchronisation.
type ItemEvent struct {
	// ListID identifies the list the item was added to.
	ListID string

	// ListURL is the list's page, e.g. "/lists/<id>/".
	ListURL string

	// ItemID is the new item's identifier.
	ItemID string

	// Text is the trimmed item text.
	Text string

	// Position is the 1-based position of the item within its list.
	// Position 1 means the event created the list.
	Position int

	// CreatedAt is when the item was stored.
	CreatedAt time.Time
}

// Label returns the row text shown on the list page, "<position>: <text>".
func (e ItemEvent) Label() string {
	return fmt.Sprintf("%d: %s", e.Position, e.Text)
}

// NewList reports whether the event created its list.
func (e ItemEvent) NewList() bool {
	return e.Position == 1
}
