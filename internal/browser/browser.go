package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const defaultRequestTimeout = 10 * time.Second

// KeyEnter is the WebDriver code point for the Enter key.
// Sending it to an input submits the enclosing form.
const KeyEnter = "\ue007"

var (
	// ErrNoSuchElement is returned when a lookup matches nothing.
	ErrNoSuchElement = errors.New("no such element")

	// ErrNoPage is returned when no page has been loaded yet.
	ErrNoPage = errors.New("no page loaded")

	// ErrStaleElement is returned when an element from a previous page is used.
	ErrStaleElement = errors.New("stale element reference")

	// ErrQuit is returned when the browser is used after Quit.
	ErrQuit = errors.New("browser has quit")

	// ErrNotInteractable is returned when keys are sent to a non-input element.
	ErrNotInteractable = errors.New("element not interactable")
)

// By selects the lookup strategy for [Browser.FindElement].
type By string

const (
	// ByID matches the id attribute.
	ByID By = "id"

	// ByTagName matches the element name, e.g. "tr".
	ByTagName By = "tag name"

	// ByName matches the name attribute.
	ByName By = "name"
)

// NoSuchElementError describes a failed lookup.
type NoSuchElementError struct {
	By    By
	Value string
}

func (e *NoSuchElementError) Error() string {
	return fmt.Sprintf("no such element: unable to locate element by %s %q", e.By, e.Value)
}

// Is makes errors.Is(err, ErrNoSuchElement) report true.
func (e *NoSuchElementError) Is(target error) bool {
	return target == ErrNoSuchElement
}

// browserConfig holds mutable state during Browser construction.
type browserConfig struct {
	timeout time.Duration
}

// Option configures a [Browser] during construction.
type Option func(*browserConfig) error

// WithTimeout sets the per-request timeout. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) Option {
	return func(cfg *browserConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// Browser is a headless browser holding one loaded page at a time.
//
// A Browser is safe for concurrent use, though interleaving navigations from
// several goroutines makes little sense.
type Browser struct {
	client  *Client
	timeout time.Duration

	mu   sync.Mutex
	page *page
	quit bool
}

// page is one loaded document. Typed input values live here so that they
// are discarded on navigation, like in a real browser.
type page struct {
	url    *url.URL
	status int
	root   *html.Node
	values map[*html.Node]string
}

// New creates a [Browser] with an empty cookie jar.
func New(opts ...Option) (*Browser, error) {
	cfg := &browserConfig{timeout: defaultRequestTimeout}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Browser{
		client:  NewClient(jar),
		timeout: cfg.timeout,
	}, nil
}

// Session creates a Browser, passes it to fn and always quits it afterwards,
// including when fn returns an error or panics.
func Session(fn func(b *Browser) error, opts ...Option) error {
	b, err := New(opts...)
	if err != nil {
		return err
	}
	defer b.Quit()
	return fn(b)
}

// Get loads the page at rawURL. Relative URLs resolve against the current page.
//
// Only transport failures are returned as errors; an HTTP error status still
// loads the returned document, see [Browser.StatusCode].
func (b *Browser) Get(ctx context.Context, rawURL string) error {
	target, err := b.resolve(rawURL)
	if err != nil {
		return err
	}
	return b.load(ctx, http.MethodGet, target, nil, nil)
}

// Title returns the text of the current page's title element.
func (b *Browser) Title() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.page == nil {
		return ""
	}
	if n := findFirst(b.page.root, func(n *html.Node) bool { return n.DataAtom == atom.Title }); n != nil {
		return textContent(n)
	}
	return ""
}

// CurrentURL returns the URL of the current page, or "" before the first load.
func (b *Browser) CurrentURL() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.page == nil {
		return ""
	}
	return b.page.url.String()
}

// StatusCode returns the HTTP status of the current page.
func (b *Browser) StatusCode() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.page == nil {
		return 0
	}
	return b.page.status
}

// FindElement returns the first element of the current page matching the lookup.
//
// Returns a [*NoSuchElementError] (matching [ErrNoSuchElement]) when nothing
// matches and [ErrNoPage] before the first load.
func (b *Browser) FindElement(by By, value string) (*Element, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.page == nil {
		return nil, ErrNoPage
	}
	return findElement(b, b.page, b.page.root, by, value)
}

// FindElements returns all elements of the current page matching the lookup.
// An empty result is not an error.
func (b *Browser) FindElements(by By, value string) ([]*Element, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.page == nil {
		return nil, ErrNoPage
	}
	return findElements(b, b.page, b.page.root, by, value)
}

// Quit releases the browser's connections. Later navigation returns [ErrQuit].
// Safe to call multiple times.
func (b *Browser) Quit() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.quit {
		return
	}
	b.quit = true
	b.page = nil
	b.client.Close()
}

// resolve turns rawURL into an absolute URL relative to the current page.
func (b *Browser) resolve(rawURL string) (*url.URL, error) {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.page != nil {
		return b.page.url.ResolveReference(ref), nil
	}
	if !ref.IsAbs() {
		return nil, fmt.Errorf("relative url %q with no page loaded", rawURL)
	}
	return ref, nil
}

// load fetches a document and makes it the current page.
func (b *Browser) load(ctx context.Context, method string, target *url.URL, body []byte, headers map[string]string) error {
	b.mu.Lock()
	quit := b.quit
	b.mu.Unlock()
	if quit {
		return ErrQuit
	}

	resp := b.client.Fetch(ctx, method, target.String(), bytes.NewReader(body), headers, b.timeout)
	if resp.Error != nil {
		return resp.Error
	}

	root, err := html.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", resp.URL, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.quit {
		return ErrQuit
	}
	b.page = &page{
		url:    resp.URL,
		status: resp.StatusCode,
		root:   root,
		values: make(map[*html.Node]string),
	}
	return nil
}

// submit sends the form enclosing the element and loads the response.
func (b *Browser) submit(ctx context.Context, e *Element) error {
	b.mu.Lock()
	if b.page != e.page {
		b.mu.Unlock()
		return ErrStaleElement
	}

	form := e.node.Parent
	for form != nil && form.DataAtom != atom.Form {
		form = form.Parent
	}
	if form == nil {
		b.mu.Unlock()
		return fmt.Errorf("element <%s> is not inside a form", e.node.Data)
	}

	fields := formValues(form, b.page.values)
	method := strings.ToUpper(attr(form, "method"))
	if method == "" {
		method = http.MethodGet
	}
	action, err := url.Parse(attr(form, "action"))
	if err != nil {
		b.mu.Unlock()
		return fmt.Errorf("invalid form action: %w", err)
	}
	target := b.page.url.ResolveReference(action)
	b.mu.Unlock()

	if method == http.MethodPost {
		return b.load(ctx, http.MethodPost, target, []byte(fields.Encode()), map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
		})
	}

	withQuery := *target
	withQuery.RawQuery = fields.Encode()
	return b.load(ctx, http.MethodGet, &withQuery, nil, nil)
}

// formValues collects the successful controls of a form.
func formValues(form *html.Node, typed map[*html.Node]string) url.Values {
	values := url.Values{}
	walk(form, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		name := attr(n, "name")
		if name == "" || hasAttr(n, "disabled") {
			return
		}

		switch n.DataAtom {
		case atom.Input:
			switch strings.ToLower(attr(n, "type")) {
			case "submit", "button", "reset", "image", "file":
				return
			case "checkbox", "radio":
				if !hasAttr(n, "checked") {
					return
				}
			}
			values.Add(name, inputValue(n, typed))
		case atom.Textarea:
			values.Add(name, inputValue(n, typed))
		}
	})
	return values
}

// inputValue returns the typed value of a control, falling back to its markup.
func inputValue(n *html.Node, typed map[*html.Node]string) string {
	if v, ok := typed[n]; ok {
		return v
	}
	if n.DataAtom == atom.Textarea {
		return textContent(n)
	}
	return attr(n, "value")
}
