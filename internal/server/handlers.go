package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jpalmerr/superlists/internal/store"
)

// emptyItemMessage is shown when an empty item is submitted.
const emptyItemMessage = "You can't have an empty list item"

// formView feeds the shared new-item form partial.
type formView struct {
	Action string
	Error  string
}

type homeView struct {
	Title string
	Form  formView
}

type listView struct {
	Title string
	List  store.List
	Items []store.Item
	Form  formView
}

// apiItem is the JSON representation of an item.
type apiItem struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Position  int       `json:"position"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

// apiList is the JSON representation of a list with its items.
type apiList struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	Items     []apiItem `json:"items"`
}

// handleHome serves the home page.
func (s *Server) handleHome(c *gin.Context) {
	s.renderHome(c, http.StatusOK, "")
}

// handleNewList creates a list with its first item and redirects to it.
func (s *Server) handleNewList(c *gin.Context) {
	list, _, err := s.store.CreateList(c.Request.Context(), c.PostForm("item_text"))
	switch {
	case errors.Is(err, store.ErrEmptyItem):
		s.renderHome(c, http.StatusBadRequest, emptyItemMessage)
		return
	case err != nil:
		s.internalError(c, "failed to create list", err)
		return
	}

	s.logger.Info("list created", "list_id", list.ID)
	c.Redirect(http.StatusFound, list.URL())
}

// handleViewList renders a list and its items.
func (s *Server) handleViewList(c *gin.Context) {
	s.renderList(c, http.StatusOK, c.Param("id"), "")
}

// handleAddItem appends an item to an existing list and redirects back to it.
func (s *Server) handleAddItem(c *gin.Context) {
	listID := c.Param("id")

	item, err := s.store.AddItem(c.Request.Context(), listID, c.PostForm("item_text"))
	switch {
	case errors.Is(err, store.ErrListNotFound):
		c.String(http.StatusNotFound, "List not found")
		return
	case errors.Is(err, store.ErrEmptyItem):
		s.renderList(c, http.StatusBadRequest, listID, emptyItemMessage)
		return
	case err != nil:
		s.internalError(c, "failed to add item", err)
		return
	}

	s.logger.Debug("item added", "list_id", listID, "position", item.Position)
	c.Redirect(http.StatusFound, store.List{ID: listID}.URL())
}

// handleAPIList returns a list and its items as JSON.
func (s *Server) handleAPIList(c *gin.Context) {
	listID := c.Param("id")
	ctx := c.Request.Context()

	list, err := s.store.GetList(ctx, listID)
	if errors.Is(err, store.ErrListNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.internalError(c, "failed to get list", err)
		return
	}

	items, err := s.store.Items(ctx, listID)
	if err != nil {
		s.internalError(c, "failed to get items", err)
		return
	}

	resp := apiList{
		ID:        list.ID,
		URL:       list.URL(),
		CreatedAt: list.CreatedAt,
		Items:     make([]apiItem, len(items)),
	}
	for i, item := range items {
		resp.Items[i] = apiItem{
			ID:        item.ID,
			Text:      item.Text,
			Position:  item.Position,
			Label:     item.Label(),
			CreatedAt: item.CreatedAt,
		}
	}

	c.Header("Cache-Control", "no-cache")
	c.JSON(http.StatusOK, resp)
}

func (s *Server) renderHome(c *gin.Context, status int, errMsg string) {
	c.HTML(status, "home.html", homeView{
		Title: s.title,
		Form:  formView{Action: "/lists/new", Error: errMsg},
	})
}

// renderList renders the list page, answering 404 for unknown lists.
func (s *Server) renderList(c *gin.Context, status int, listID, errMsg string) {
	ctx := c.Request.Context()

	list, err := s.store.GetList(ctx, listID)
	if errors.Is(err, store.ErrListNotFound) {
		c.String(http.StatusNotFound, "List not found")
		return
	}
	if err != nil {
		s.internalError(c, "failed to get list", err)
		return
	}

	items, err := s.store.Items(ctx, listID)
	if err != nil {
		s.internalError(c, "failed to get items", err)
		return
	}

	c.HTML(status, "list.html", listView{
		Title: s.title,
		List:  list,
		Items: items,
		Form:  formView{Action: list.URL() + "add_item", Error: errMsg},
	})
}

func (s *Server) internalError(c *gin.Context, msg string, err error) {
	s.logger.Error(msg, "path", c.Request.URL.Path, "error", err)
	c.String(http.StatusInternalServerError, "Internal Server Error")
}
