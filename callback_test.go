package superlists

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

// eventRecorder collects callback events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []ItemEvent
	notify chan struct{}
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{notify: make(chan struct{}, 100)}
}

func (r *eventRecorder) record(ev ItemEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.notify <- struct{}{}
}

// waitFor blocks until n events were recorded and returns them.
func (r *eventRecorder) waitFor(t *testing.T, n int) []ItemEvent {
	t.Helper()
	for {
		r.mu.Lock()
		if len(r.events) >= n {
			events := append([]ItemEvent(nil), r.events...)
			r.mu.Unlock()
			return events
		}
		r.mu.Unlock()

		select {
		case <-r.notify:
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout waiting for %d events", n)
		}
	}
}

func addItem(t *testing.T, baseURL, listURL, text string) {
	t.Helper()
	resp, err := http.PostForm(baseURL+listURL+"add_item", url.Values{"item_text": {text}})
	if err != nil {
		t.Fatalf("POST add_item error = %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST add_item final status = %d, want 200 after redirect", resp.StatusCode)
	}
}

func TestWithItemCallback_ReceivesCorrectFields(t *testing.T) {
	rec := newEventRecorder()
	app, err := New(
		WithPort(19200),
		WithLogger(testLogger()),
		WithItemCallback(rec.record),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	baseURL, _ := runApp(t, app)

	listURL := newList(t, baseURL, "  Buy peacock feathers  ")
	addItem(t, baseURL, listURL, "Use peacock feathers to make a fly")

	events := rec.waitFor(t, 2)

	first, second := events[0], events[1]
	if first.ListURL != listURL || second.ListURL != listURL {
		t.Errorf("ListURL = %q, %q, want %q", first.ListURL, second.ListURL, listURL)
	}
	if first.ListID == "" || first.ListID != second.ListID {
		t.Errorf("ListID = %q, %q, want the same non-empty id", first.ListID, second.ListID)
	}
	if first.Text != "Buy peacock feathers" {
		t.Errorf("Text = %q, want trimmed text", first.Text)
	}
	if !first.NewList() || second.NewList() {
		t.Errorf("NewList() = %v, %v, want true, false", first.NewList(), second.NewList())
	}
	if second.Label() != "2: Use peacock feathers to make a fly" {
		t.Errorf("Label() = %q", second.Label())
	}
	if first.ItemID == "" || first.ItemID == second.ItemID {
		t.Errorf("ItemID = %q, %q, want distinct ids", first.ItemID, second.ItemID)
	}
	if first.CreatedAt.IsZero() {
		t.Error("CreatedAt should not be zero")
	}
}

func TestWithItemCallback_ExecutionOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	done := make(chan struct{})

	app, err := New(
		WithPort(19201),
		WithLogger(testLogger()),
		WithItemCallback(func(ItemEvent) {
			mu.Lock()
			order = append(order, "first")
			mu.Unlock()
		}),
		WithItemCallback(func(ItemEvent) {
			mu.Lock()
			order = append(order, "second")
			mu.Unlock()
		}),
		WithItemCallback(func(ItemEvent) {
			mu.Lock()
			order = append(order, "third")
			mu.Unlock()
			close(done)
		}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	baseURL, _ := runApp(t, app)

	newList(t, baseURL, "only once")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for callbacks")
	}

	mu.Lock()
	defer mu.Unlock()
	if strings.Join(order, ",") != "first,second,third" {
		t.Errorf("order = %v, want registration order", order)
	}
}

func TestWithItemCallback_PanicRecovery(t *testing.T) {
	var buf bytes.Buffer
	var logMu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&lockedWriter{mu: &logMu, w: &buf}, nil))

	rec := newEventRecorder()
	app, err := New(
		WithPort(19202),
		WithLogger(logger),
		WithItemCallback(func(ItemEvent) {
			panic("callback exploded")
		}),
		WithItemCallback(rec.record),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	baseURL, _ := runApp(t, app)

	listURL := newList(t, baseURL, "one")
	addItem(t, baseURL, listURL, "two")

	// later callbacks and later events still run after a panic
	events := rec.waitFor(t, 2)
	if events[1].Position != 2 {
		t.Errorf("second event position = %d, want 2", events[1].Position)
	}

	logMu.Lock()
	defer logMu.Unlock()
	if !strings.Contains(buf.String(), "item callback panicked") {
		t.Errorf("expected panic to be logged, got: %s", buf.String())
	}
}

func TestWithItemCallback_SeparateLists(t *testing.T) {
	rec := newEventRecorder()
	app, err := New(
		WithPort(19203),
		WithLogger(testLogger()),
		WithItemCallback(rec.record),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	baseURL, _ := runApp(t, app)

	milk := newList(t, baseURL, "Buy milk")
	feathers := newList(t, baseURL, "Buy peacock feathers")

	events := rec.waitFor(t, 2)
	if milk == feathers {
		t.Fatalf("both lists got URL %s", milk)
	}
	for _, ev := range events {
		if !ev.NewList() {
			t.Errorf("event %+v should start a new list", ev)
		}
	}
	if events[0].ListID == events[1].ListID {
		t.Error("events for different lists share a list id")
	}
}

// lockedWriter serialises writes so the buffer can be read while the app runs.
type lockedWriter struct {
	mu *sync.Mutex
	w  *bytes.Buffer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
