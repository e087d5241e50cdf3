package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// backends returns a constructor per Store implementation.
func backends() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			s := NewMemoryStore()
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(context.Background(), MemoryPath, testLogger())
			if err != nil {
				t.Fatalf("OpenSQLite() error = %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			fn(t, newStore(t))
		})
	}
}

func TestStore_CreateList(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		list, item, err := s.CreateList(ctx, "Buy peacock feathers")
		if err != nil {
			t.Fatalf("CreateList() error = %v", err)
		}
		if list.ID == "" {
			t.Fatal("CreateList() returned empty list ID")
		}
		if item.ListID != list.ID {
			t.Errorf("item.ListID = %q, want %q", item.ListID, list.ID)
		}
		if item.Position != 1 {
			t.Errorf("item.Position = %d, want 1", item.Position)
		}
		if got := item.Label(); got != "1: Buy peacock feathers" {
			t.Errorf("item.Label() = %q, want %q", got, "1: Buy peacock feathers")
		}
		if got, want := list.URL(), "/lists/"+list.ID+"/"; got != want {
			t.Errorf("list.URL() = %q, want %q", got, want)
		}

		got, err := s.GetList(ctx, list.ID)
		if err != nil {
			t.Fatalf("GetList() error = %v", err)
		}
		if got.ID != list.ID || !got.CreatedAt.Equal(list.CreatedAt) {
			t.Errorf("GetList() = %+v, want %+v", got, list)
		}
	})
}

func TestStore_AppendOrdering(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		list, _, err := s.CreateList(ctx, "X")
		if err != nil {
			t.Fatalf("CreateList() error = %v", err)
		}
		if _, err := s.AddItem(ctx, list.ID, "Y"); err != nil {
			t.Fatalf("AddItem() error = %v", err)
		}
		if _, err := s.AddItem(ctx, list.ID, "Z"); err != nil {
			t.Fatalf("AddItem() error = %v", err)
		}

		items, err := s.Items(ctx, list.ID)
		if err != nil {
			t.Fatalf("Items() error = %v", err)
		}

		want := []string{"1: X", "2: Y", "3: Z"}
		if len(items) != len(want) {
			t.Fatalf("Items() = %d items, want %d", len(items), len(want))
		}
		for i, item := range items {
			if item.Label() != want[i] {
				t.Errorf("Items()[%d].Label() = %q, want %q", i, item.Label(), want[i])
			}
		}
	})
}

func TestStore_ListIsolation(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		a, _, err := s.CreateList(ctx, "Buy milk")
		if err != nil {
			t.Fatalf("CreateList(a) error = %v", err)
		}
		b, _, err := s.CreateList(ctx, "Buy peacock feathers")
		if err != nil {
			t.Fatalf("CreateList(b) error = %v", err)
		}
		if a.ID == b.ID {
			t.Fatalf("lists share ID %q", a.ID)
		}

		itemsB, err := s.Items(ctx, b.ID)
		if err != nil {
			t.Fatalf("Items(b) error = %v", err)
		}
		if len(itemsB) != 1 || itemsB[0].Text != "Buy peacock feathers" {
			t.Errorf("Items(b) = %+v, want only \"Buy peacock feathers\"", itemsB)
		}

		itemsA, err := s.Items(ctx, a.ID)
		if err != nil {
			t.Fatalf("Items(a) error = %v", err)
		}
		if len(itemsA) != 1 || itemsA[0].Text != "Buy milk" {
			t.Errorf("Items(a) = %+v, want only \"Buy milk\"", itemsA)
		}
	})
}

func TestStore_UnknownList(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		if _, err := s.GetList(ctx, "missing"); !errors.Is(err, ErrListNotFound) {
			t.Errorf("GetList() error = %v, want ErrListNotFound", err)
		}
		if _, err := s.Items(ctx, "missing"); !errors.Is(err, ErrListNotFound) {
			t.Errorf("Items() error = %v, want ErrListNotFound", err)
		}
		if _, err := s.AddItem(ctx, "missing", "text"); !errors.Is(err, ErrListNotFound) {
			t.Errorf("AddItem() error = %v, want ErrListNotFound", err)
		}
	})
}

func TestStore_EmptyText(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		if _, _, err := s.CreateList(ctx, "   "); !errors.Is(err, ErrEmptyItem) {
			t.Errorf("CreateList() error = %v, want ErrEmptyItem", err)
		}

		list, _, err := s.CreateList(ctx, "  padded  ")
		if err != nil {
			t.Fatalf("CreateList() error = %v", err)
		}
		if _, err := s.AddItem(ctx, list.ID, ""); !errors.Is(err, ErrEmptyItem) {
			t.Errorf("AddItem() error = %v, want ErrEmptyItem", err)
		}

		items, err := s.Items(ctx, list.ID)
		if err != nil {
			t.Fatalf("Items() error = %v", err)
		}
		if len(items) != 1 || items[0].Text != "padded" {
			t.Errorf("Items() = %+v, want single trimmed item", items)
		}
	})
}

func TestStore_SubscribeReceivesAppends(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		ch := s.Subscribe()
		defer s.Unsubscribe(ch)

		list, _, err := s.CreateList(ctx, "first")
		if err != nil {
			t.Fatalf("CreateList() error = %v", err)
		}
		if _, err := s.AddItem(ctx, list.ID, "second"); err != nil {
			t.Fatalf("AddItem() error = %v", err)
		}

		for _, want := range []string{"1: first", "2: second"} {
			select {
			case ev := <-ch:
				if ev.ListID != list.ID {
					t.Errorf("event ListID = %q, want %q", ev.ListID, list.ID)
				}
				if ev.Item.Label() != want {
					t.Errorf("event label = %q, want %q", ev.Item.Label(), want)
				}
			case <-time.After(time.Second):
				t.Fatalf("did not receive event %q", want)
			}
		}
	})
}

func TestStore_ConcurrentAppends(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		list, _, err := s.CreateList(ctx, "item 0")
		if err != nil {
			t.Fatalf("CreateList() error = %v", err)
		}

		var wg sync.WaitGroup
		numGoroutines := 10
		numAppends := 10
		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				for j := 0; j < numAppends; j++ {
					if _, err := s.AddItem(ctx, list.ID, fmt.Sprintf("item %d-%d", id, j)); err != nil {
						t.Errorf("AddItem() error = %v", err)
					}
				}
			}(i)
		}

		// concurrent reads
		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < numAppends; j++ {
					_, _ = s.Items(ctx, list.ID)
				}
			}()
		}
		wg.Wait()

		items, err := s.Items(ctx, list.ID)
		if err != nil {
			t.Fatalf("Items() error = %v", err)
		}
		want := numGoroutines*numAppends + 1
		if len(items) != want {
			t.Fatalf("Items() = %d items, want %d", len(items), want)
		}
		for i, item := range items {
			if item.Position != i+1 {
				t.Fatalf("Items()[%d].Position = %d, want %d", i, item.Position, i+1)
			}
		}
	})
}

func TestStore_CloseClosesSubscriptions(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ch := s.Subscribe()
		if err := s.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		select {
		case _, ok := <-ch:
			if ok {
				t.Error("subscription channel should be closed")
			}
		case <-time.After(100 * time.Millisecond):
			t.Error("subscription channel should be closed immediately")
		}

		// unsubscribing after close is a no-op
		s.Unsubscribe(ch)
	})
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "superlists.db")

	s, err := OpenSQLite(ctx, path, testLogger())
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	list, _, err := s.CreateList(ctx, "Buy peacock feathers")
	if err != nil {
		t.Fatalf("CreateList() error = %v", err)
	}
	if _, err := s.AddItem(ctx, list.ID, "Use peacock feathers to make a fly"); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenSQLite(ctx, path, testLogger())
	if err != nil {
		t.Fatalf("OpenSQLite() reopen error = %v", err)
	}
	defer func() { _ = reopened.Close() }()

	items, err := reopened.Items(ctx, list.ID)
	if err != nil {
		t.Fatalf("Items() error = %v", err)
	}
	want := []string{"1: Buy peacock feathers", "2: Use peacock feathers to make a fly"}
	if len(items) != len(want) {
		t.Fatalf("Items() = %d items, want %d", len(items), len(want))
	}
	for i, item := range items {
		if item.Label() != want[i] {
			t.Errorf("Items()[%d].Label() = %q, want %q", i, item.Label(), want[i])
		}
	}
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	m := NewMemoryStore()
	t.Cleanup(func() { _ = m.Close() })

	list, _, err := m.CreateList(context.Background(), "first")
	if err != nil {
		t.Fatalf("CreateList() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := m.CreateList(ctx, "item"); !errors.Is(err, context.Canceled) {
		t.Errorf("CreateList() error = %v, want context.Canceled", err)
	}
	if _, err := m.AddItem(ctx, list.ID, "item"); !errors.Is(err, context.Canceled) {
		t.Errorf("AddItem() error = %v, want context.Canceled", err)
	}
	if _, err := m.GetList(ctx, list.ID); !errors.Is(err, context.Canceled) {
		t.Errorf("GetList() error = %v, want context.Canceled", err)
	}
	if _, err := m.Items(ctx, list.ID); !errors.Is(err, context.Canceled) {
		t.Errorf("Items() error = %v, want context.Canceled", err)
	}
}
