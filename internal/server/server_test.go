package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jpalmerr/superlists/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingStore wraps a MemoryStore and fails selected operations.
type failingStore struct {
	*store.MemoryStore
	createErr error
	itemsErr  error
}

func (f *failingStore) CreateList(ctx context.Context, text string) (store.List, store.Item, error) {
	if f.createErr != nil {
		return store.List{}, store.Item{}, f.createErr
	}
	return f.MemoryStore.CreateList(ctx, text)
}

func (f *failingStore) Items(ctx context.Context, listID string) ([]store.Item, error) {
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return f.MemoryStore.Items(ctx, listID)
}

// newTestServer creates a server backed by a fresh in-memory store.
func newTestServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()
	ms := store.NewMemoryStore()
	t.Cleanup(func() { _ = ms.Close() })

	srv, err := NewServer(ms, 0, "", testLogger())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return srv, ms
}

func TestNewServer_DefaultTitle(t *testing.T) {
	srv, _ := newTestServer(t)
	if srv.title != DefaultTitle {
		t.Errorf("title = %q, want %q", srv.title, DefaultTitle)
	}
}

func TestStart_AvailablePort_ReturnsNil(t *testing.T) {
	// port 0 = OS assigns available port
	srv, _ := newTestServer(t)

	if srv.Addr() != nil {
		t.Errorf("Addr() before Start = %v, want nil", srv.Addr())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() on available port returned error: %v", err)
	}
	if srv.Addr() == nil {
		t.Fatal("Addr() after Start = nil")
	}

	resp, err := http.Get("http://" + srv.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want 200", resp.StatusCode)
	}
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	addr := srv.Addr().String()

	cancel()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err != nil {
			return // listener closed
		}
		_ = conn.Close()
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("server still accepting connections after context cancellation")
}

func TestStart_PortInUse_ReturnsError(t *testing.T) {
	// occupy a port
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer func() { _ = ln.Close() }()

	port := ln.Addr().(*net.TCPAddr).Port

	srv, err := NewServer(store.NewMemoryStore(), port, "", testLogger())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = srv.Start(ctx)
	if err == nil {
		t.Fatal("Start() on occupied port should return error")
	}
	if !strings.Contains(err.Error(), "failed to bind") {
		t.Errorf("expected bind error, got: %v", err)
	}
}

func TestStart_InvalidPort_ReturnsError(t *testing.T) {
	srv, err := NewServer(store.NewMemoryStore(), -1, "", testLogger())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err == nil {
		t.Fatal("Start() with invalid port should return error")
	}
}

func TestServer_StoreFailureReturns500(t *testing.T) {
	fs := &failingStore{
		MemoryStore: store.NewMemoryStore(),
		createErr:   errors.New("disk full"),
	}
	srv, err := NewServer(fs, 0, "", testLogger())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	rec := postForm(t, srv.Handler(), "/lists/new", "Buy milk")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("POST /lists/new status = %d, want 500", rec.Code)
	}
}

func TestServer_ItemsFailureReturns500(t *testing.T) {
	ms := store.NewMemoryStore()
	list, _, err := ms.CreateList(context.Background(), "Buy milk")
	if err != nil {
		t.Fatalf("CreateList() error = %v", err)
	}

	fs := &failingStore{MemoryStore: ms, itemsErr: errors.New("corrupt page")}
	srv, err := NewServer(fs, 0, "", testLogger())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	rec := get(t, srv.Handler(), list.URL())
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("GET %s status = %d, want 500", list.URL(), rec.Code)
	}
}

func TestStart_DoneClosesAfterShutdown(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-srv.Done():
		t.Fatal("Done() closed while server is running")
	default:
	}

	cancel()

	select {
	case <-srv.Done():
	case <-time.After(6 * time.Second):
		t.Fatal("Done() not closed after shutdown")
	}
}

func TestNewServer_LeavesGinModeAlone(t *testing.T) {
	gin.SetMode(gin.DebugMode)
	defer gin.SetMode(gin.TestMode)

	if _, err := NewServer(store.NewMemoryStore(), 0, "", testLogger()); err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	if got := gin.Mode(); got != gin.DebugMode {
		t.Errorf("gin.Mode() = %q after NewServer, want %q", got, gin.DebugMode)
	}
}
