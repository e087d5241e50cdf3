package server

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jpalmerr/superlists/internal/store"
	"github.com/jpalmerr/superlists/templates"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second

	// DefaultTitle is used when no custom title is configured.
	DefaultTitle = "To-Do lists"
)

// Server handles HTTP requests for the to-do list pages and API.
//
// Server provides these routes:
//   - GET /: Home page with the new-list form
//   - POST /lists/new: Create a list from the submitted item
//   - GET /lists/:id/: Render a list and its numbered items
//   - POST /lists/:id/add_item: Append an item to a list
//   - GET /lists/:id/events: Server-Sent Events stream of appended items
//   - GET /api/lists/:id: JSON snapshot of a list
//   - GET /healthz: Liveness probe
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	port       int
	title      string
	logger     *slog.Logger
	router     *gin.Engine
	httpServer *http.Server

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Store implementation for lists and items
//   - port: TCP port to listen on (0 picks a free port)
//   - title: Page title (defaults to "To-Do lists" if empty)
//   - logger: Logger for server events
//
// Returns an error if the embedded templates fail to parse.
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, port int, title string, logger *slog.Logger) (*Server, error) {
	tmpl, err := templates.Parse()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	if title == "" {
		title = DefaultTitle
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:  st,
		port:   port,
		title:  title,
		logger: logger,
		done:   make(chan struct{}),
	}
	s.router = s.newRouter(tmpl)
	return s, nil
}

// newRouter builds the gin engine with all routes registered.
//
// The gin mode is process-wide and left to the caller.
func (s *Server) newRouter(tmpl *template.Template) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(s.logger))
	router.Use(gin.CustomRecoveryWithWriter(io.Discard, s.recoverPanic))
	router.SetHTMLTemplate(tmpl)

	// web routes
	router.GET("/", s.handleHome)
	router.POST("/lists/new", s.handleNewList)
	router.GET("/lists/:id/", s.handleViewList)
	router.POST("/lists/:id/add_item", s.handleAddItem)
	router.GET("/lists/:id/events", s.handleEvents)

	// API routes
	api := router.Group("/api")
	{
		api.GET("/lists/:id", s.handleAPIList)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return router
}

// Handler returns the HTTP handler serving all routes.
//
// It can be mounted directly, e.g. with httptest.NewServer, without calling
// [Server.Start].
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// enabling graceful shutdown of long-running handlers like SSE.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		defer close(s.done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Done returns a channel that is closed once a started server has finished
// its graceful shutdown. It never closes if [Server.Start] was not called or failed.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Addr returns the address the server is listening on, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// recoverPanic turns a handler panic into a logged 500 response.
func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.logger.Error("handler panicked",
		"panic", recovered,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)
	c.AbortWithStatus(http.StatusInternalServerError)
}
