package browser

import (
	"context"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is a node of the page that was current when it was found.
// Once the browser navigates away, methods return [ErrStaleElement].
type Element struct {
	browser *Browser
	page    *page
	node    *html.Node
}

// TagName returns the lowercase element name.
func (e *Element) TagName() string {
	return e.node.Data
}

// Text returns the rendered text of the element with whitespace collapsed.
// Contents of script and style elements are skipped.
func (e *Element) Text() (string, error) {
	e.browser.mu.Lock()
	defer e.browser.mu.Unlock()

	if err := e.checkStale(); err != nil {
		return "", err
	}
	return textContent(e.node), nil
}

// Attribute returns the named attribute, or "" when it is absent.
// For "value" the text typed with [Element.SendKeys] takes precedence.
func (e *Element) Attribute(name string) (string, error) {
	e.browser.mu.Lock()
	defer e.browser.mu.Unlock()

	if err := e.checkStale(); err != nil {
		return "", err
	}
	if name == "value" && isTypeable(e.node) {
		return inputValue(e.node, e.page.values), nil
	}
	return attr(e.node, name), nil
}

// FindElement returns the first descendant matching the lookup.
func (e *Element) FindElement(by By, value string) (*Element, error) {
	e.browser.mu.Lock()
	defer e.browser.mu.Unlock()

	if err := e.checkStale(); err != nil {
		return nil, err
	}
	return findElement(e.browser, e.page, e.node, by, value)
}

// FindElements returns all descendants matching the lookup.
func (e *Element) FindElements(by By, value string) ([]*Element, error) {
	e.browser.mu.Lock()
	defer e.browser.mu.Unlock()

	if err := e.checkStale(); err != nil {
		return nil, err
	}
	return findElements(e.browser, e.page, e.node, by, value)
}

// SendKeys types into an input or textarea. [KeyEnter] submits the enclosing
// form and loads the response; keys after it would target the old page and
// fail with [ErrStaleElement].
func (e *Element) SendKeys(ctx context.Context, keys ...string) error {
	segments := strings.Split(strings.Join(keys, ""), KeyEnter)

	for i, segment := range segments {
		if err := e.typeText(segment); err != nil {
			return err
		}
		if i == len(segments)-1 {
			break
		}
		if err := e.browser.submit(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// typeText appends text to the element's value.
func (e *Element) typeText(text string) error {
	e.browser.mu.Lock()
	defer e.browser.mu.Unlock()

	if err := e.checkStale(); err != nil {
		return err
	}
	if !isTypeable(e.node) || hasAttr(e.node, "disabled") || hasAttr(e.node, "readonly") {
		return ErrNotInteractable
	}
	if text != "" {
		e.page.values[e.node] = inputValue(e.node, e.page.values) + text
	}
	return nil
}

// checkStale must be called with the browser mutex held.
func (e *Element) checkStale() error {
	if e.browser.quit {
		return ErrQuit
	}
	if e.browser.page != e.page {
		return ErrStaleElement
	}
	return nil
}

func isTypeable(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Textarea:
		return true
	case atom.Input:
		switch strings.ToLower(attr(n, "type")) {
		case "", "text", "search", "email", "url", "tel", "password", "number":
			return true
		}
	}
	return false
}

func findElement(b *Browser, p *page, root *html.Node, by By, value string) (*Element, error) {
	n := findFirst(root, matcher(by, value))
	if n == nil {
		return nil, &NoSuchElementError{By: by, Value: value}
	}
	return &Element{browser: b, page: p, node: n}, nil
}

func findElements(b *Browser, p *page, root *html.Node, by By, value string) ([]*Element, error) {
	match := matcher(by, value)
	var elems []*Element
	walkChildren(root, func(n *html.Node) {
		if match(n) {
			elems = append(elems, &Element{browser: b, page: p, node: n})
		}
	})
	return elems, nil
}

func matcher(by By, value string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		switch by {
		case ByID:
			return attr(n, "id") == value
		case ByName:
			return attr(n, "name") == value
		case ByTagName:
			return strings.EqualFold(n.Data, value)
		}
		return false
	}
}

// findFirst returns the first descendant of root, in document order, that matches.
func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			return c
		}
		if n := findFirst(c, match); n != nil {
			return n
		}
	}
	return nil
}

// walk visits n and all its descendants in document order.
func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	walkChildren(n, visit)
}

func walkChildren(n *html.Node, visit func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}

// textContent joins the text nodes below n, collapsing runs of whitespace.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
		if n.Type == html.ElementNode && breaksText(n) {
			sb.WriteByte(' ')
		}
	}
	collect(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// breaksText reports whether the element renders on its own line or cell.
func breaksText(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Br, atom.P, atom.Div, atom.Li, atom.Tr, atom.Td, atom.Th,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Title:
		return true
	}
	return false
}
