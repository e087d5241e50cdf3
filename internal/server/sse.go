package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jpalmerr/superlists/internal/store"
)

// handleEvents streams a list's items via Server-Sent Events.
//
// The stream starts with the list's current items, then follows with one
// event per append. The handler uses write deadlines to prevent goroutine
// leaks when clients are slow or disconnected.
func (s *Server) handleEvents(c *gin.Context) {
	listID := c.Param("id")
	ctx := c.Request.Context()
	w := c.Writer

	if _, err := s.store.GetList(ctx, listID); err != nil {
		if errors.Is(err, store.ErrListNotFound) {
			c.String(http.StatusNotFound, "List not found")
			return
		}
		s.internalError(c, "failed to get list", err)
		return
	}

	// ResponseController provides deadline-aware write and flush operations.
	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				// deadline not supported by underlying connection, continue without
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	// subscribe before the snapshot so no append is missed in between
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	items, err := s.store.Items(ctx, listID)
	if err != nil {
		s.internalError(c, "failed to get items", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	lastPosition := 0
	for _, item := range items {
		data, err := json.Marshal(store.ItemEvent{ListID: listID, Item: item})
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
		lastPosition = item.Position
	}

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			// skip other lists and items already sent in the snapshot
			if event.ListID != listID || event.Item.Position <= lastPosition {
				continue
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}
			lastPosition = event.Item.Position

		case <-ctx.Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}
