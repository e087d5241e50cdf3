package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore keeps each list's items in a slice, so insertion order and
// positions come for free. Contents are lost when the process exits.
type MemoryStore struct {
	mu    sync.RWMutex
	lists map[string]List
	items map[string][]Item

	events *broker

	// overridable in tests
	now func() time.Time
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lists:  make(map[string]List),
		items:  make(map[string][]Item),
		events: newBroker(),
		now:    time.Now,
	}
}

// CreateList creates a list together with its first item.
func (m *MemoryStore) CreateList(ctx context.Context, text string) (List, Item, error) {
	text, err := normalizeText(text)
	if err != nil {
		return List{}, Item{}, err
	}
	if err := ctx.Err(); err != nil {
		return List{}, Item{}, err
	}

	now := m.now().UTC()
	list := List{ID: uuid.NewString(), CreatedAt: now}
	item := Item{
		ID:        uuid.NewString(),
		ListID:    list.ID,
		Text:      text,
		Position:  1,
		CreatedAt: now,
	}

	m.mu.Lock()
	m.lists[list.ID] = list
	m.items[list.ID] = []Item{item}
	m.events.publish(ItemEvent{ListID: list.ID, Item: item})
	m.mu.Unlock()

	return list, item, nil
}

// AddItem appends an item to an existing list.
func (m *MemoryStore) AddItem(ctx context.Context, listID, text string) (Item, error) {
	text, err := normalizeText(text)
	if err != nil {
		return Item{}, err
	}
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}

	m.mu.Lock()
	if _, ok := m.lists[listID]; !ok {
		m.mu.Unlock()
		return Item{}, ErrListNotFound
	}
	item := Item{
		ID:        uuid.NewString(),
		ListID:    listID,
		Text:      text,
		Position:  len(m.items[listID]) + 1,
		CreatedAt: m.now().UTC(),
	}
	m.items[listID] = append(m.items[listID], item)
	// publish under the lock so subscribers see appends in position order
	m.events.publish(ItemEvent{ListID: listID, Item: item})
	m.mu.Unlock()

	return item, nil
}

// GetList looks up a list by identifier.
func (m *MemoryStore) GetList(ctx context.Context, listID string) (List, error) {
	if err := ctx.Err(); err != nil {
		return List{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	list, ok := m.lists[listID]
	if !ok {
		return List{}, ErrListNotFound
	}
	return list, nil
}

// Items returns a copy of the list's items in insertion order.
func (m *MemoryStore) Items(ctx context.Context, listID string) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.lists[listID]; !ok {
		return nil, ErrListNotFound
	}
	items := make([]Item, len(m.items[listID]))
	copy(items, m.items[listID])
	return items, nil
}

// Subscribe creates a new subscription for item events.
//
// The returned channel has a buffer of 100 events. If the buffer fills
// (slow consumer), new events are dropped for this subscriber.
func (m *MemoryStore) Subscribe() <-chan ItemEvent {
	return m.events.subscribe()
}

// Unsubscribe removes a subscription and closes its channel.
func (m *MemoryStore) Unsubscribe(ch <-chan ItemEvent) {
	m.events.unsubscribe(ch)
}

// Close closes all subscriptions. The stored data remains readable.
func (m *MemoryStore) Close() error {
	m.events.close()
	return nil
}
