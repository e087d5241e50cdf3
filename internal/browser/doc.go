// Package browser provides a headless, HTML-only browser for driving the
// to-do list pages from acceptance tests and smoke checks.
//
// A [Browser] loads pages over HTTP with a cookie jar, parses them with
// golang.org/x/net/html, and lets callers locate elements the way a
// WebDriver client would: by id, by tag name or by name attribute. Typing
// [KeyEnter] into an input submits its enclosing form and loads the response.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with connection pooling and a body size limit
//   - [Browser]: Navigation state, element lookup and form submission
//   - [Element]: A handle to a node of the currently loaded page
//   - [Session]: Scoped acquisition of a Browser with guaranteed release
//
// Elements are bound to the page they were found on. Once the browser
// navigates away, using an old element returns [ErrStaleElement].
//
// JavaScript is not executed.
package browser
