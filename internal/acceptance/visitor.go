package acceptance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jpalmerr/superlists/internal/browser"
	"github.com/jpalmerr/superlists/wait"
)

const (
	newItemInputID  = "id_new_item"
	listTableID     = "id_list_table"
	itemPlaceholder = "Enter a to-do item"
	appHeadingText  = "To-Do"
)

// ErrAssertion is wrapped by every failed page expectation.
var ErrAssertion = errors.New("acceptance check failed")

// Visitor is one browser session looking at the application.
type Visitor struct {
	browser *browser.Browser
	waiter  *wait.Waiter
	baseURL string
}

// NewVisitor creates a Visitor for the application served at baseURL.
func NewVisitor(baseURL string, b *browser.Browser, w *wait.Waiter) *Visitor {
	return &Visitor{
		browser: b,
		waiter:  w,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Browser returns the visitor's browser.
func (v *Visitor) Browser() *browser.Browser {
	return v.browser
}

// OpenHome loads the home page.
func (v *Visitor) OpenHome(ctx context.Context) error {
	if err := v.browser.Get(ctx, v.baseURL+"/"); err != nil {
		return fmt.Errorf("failed to open home page: %w", err)
	}
	return nil
}

// CheckHomePage opens the home page and checks its title, heading and
// new item input.
func (v *Visitor) CheckHomePage(ctx context.Context) error {
	if err := v.OpenHome(ctx); err != nil {
		return err
	}

	if title := v.browser.Title(); !strings.Contains(title, appHeadingText) {
		return fmt.Errorf("%w: title %q does not mention %q", ErrAssertion, title, appHeadingText)
	}

	h1, err := v.browser.FindElement(browser.ByTagName, "h1")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAssertion, err)
	}
	heading, err := h1.Text()
	if err != nil {
		return err
	}
	if !strings.Contains(heading, appHeadingText) {
		return fmt.Errorf("%w: heading %q does not mention %q", ErrAssertion, heading, appHeadingText)
	}

	input, err := v.browser.FindElement(browser.ByID, newItemInputID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAssertion, err)
	}
	placeholder, err := input.Attribute("placeholder")
	if err != nil {
		return err
	}
	if placeholder != itemPlaceholder {
		return fmt.Errorf("%w: placeholder = %q, want %q", ErrAssertion, placeholder, itemPlaceholder)
	}
	return nil
}

// Submit types text into the new item input and presses Enter.
func (v *Visitor) Submit(ctx context.Context, text string) error {
	input, err := v.browser.FindElement(browser.ByID, newItemInputID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAssertion, err)
	}
	if err := input.SendKeys(ctx, text, browser.KeyEnter); err != nil {
		return fmt.Errorf("failed to submit %q: %w", text, err)
	}
	return nil
}

// WaitForRowInListTable waits until the list table has a row reading rowText.
//
// A missing table or row is retried, reloading the page between attempts.
// Transport failures and error responses, such as a 404 for an unknown list,
// end the wait immediately.
func (v *Visitor) WaitForRowInListTable(ctx context.Context, rowText string) error {
	return v.waiter.Until(ctx, func(ctx context.Context) error {
		if err := v.checkStatus(); err != nil {
			return err
		}
		rows, err := v.rows()
		if err != nil {
			return v.retryAfterReload(ctx, err)
		}
		for _, row := range rows {
			if row == rowText {
				return nil
			}
		}
		return v.retryAfterReload(ctx, fmt.Errorf("%w: row %q not in list table %q", ErrAssertion, rowText, rows))
	})
}

// RowTexts returns the text of every row of the list table on the current page.
func (v *Visitor) RowTexts() ([]string, error) {
	rows, err := v.rows()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssertion, err)
	}
	return rows, nil
}

// PageText returns the visible text of the current page body.
func (v *Visitor) PageText() (string, error) {
	body, err := v.browser.FindElement(browser.ByTagName, "body")
	if err != nil {
		return "", err
	}
	return body.Text()
}

// checkStatus fails when the current page was answered with an error status.
func (v *Visitor) checkStatus() error {
	if status := v.browser.StatusCode(); status >= http.StatusBadRequest {
		return fmt.Errorf("%w: %s answered %d %s",
			ErrAssertion, v.browser.CurrentURL(), status, http.StatusText(status))
	}
	return nil
}

func (v *Visitor) rows() ([]string, error) {
	table, err := v.browser.FindElement(browser.ByID, listTableID)
	if err != nil {
		return nil, err
	}
	elems, err := table.FindElements(browser.ByTagName, "tr")
	if err != nil {
		return nil, err
	}

	rows := make([]string, 0, len(elems))
	for _, el := range elems {
		text, err := el.Text()
		if err != nil {
			return nil, err
		}
		rows = append(rows, text)
	}
	return rows, nil
}

// retryAfterReload turns a not-yet-visible failure into a pending error after
// reloading the current page. Anything else is returned as fatal.
func (v *Visitor) retryAfterReload(ctx context.Context, cause error) error {
	if !errors.Is(cause, browser.ErrNoSuchElement) && !errors.Is(cause, ErrAssertion) {
		return cause
	}
	current := v.browser.CurrentURL()
	if current == "" {
		return cause
	}
	if err := v.browser.Get(ctx, current); err != nil {
		return fmt.Errorf("failed to reload %s: %w", current, err)
	}
	return wait.Pending(cause)
}
