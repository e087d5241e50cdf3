package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// ErrResponseTooLarge is returned when a response body exceeds 1MB.
// A truncated page would parse as valid HTML with content missing.
var ErrResponseTooLarge = errors.New("response body exceeds 1MB")

// connection pooling limits; a browser talks to very few hosts
const (
	defaultMaxIdleConns        = 10
	defaultMaxIdleConnsPerHost = 4
	defaultIdleConnTimeout     = 60 * time.Second
)

// Response holds the result of an HTTP request made by [Client].
type Response struct {
	// Body contains the HTTP response body. Larger bodies are an error.
	Body []byte

	// StatusCode is the HTTP status code of the final response.
	// Zero if the request failed before receiving a response.
	StatusCode int

	// URL is the final URL after following redirects.
	URL *url.URL

	// Latency is the total time taken for the request, redirects included.
	Latency time.Duration

	// Error contains any error that occurred during the request.
	// nil indicates the request completed (though status may indicate an error).
	Error error
}

// Client is an HTTP client wrapper that keeps cookies across requests.
//
// Client uses per-request timeouts via context rather than a global timeout.
// Redirects are followed, so a POST answered with 302 ends on the GET target.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new [Client] with its own cookie jar.
func NewClient(jar http.CookieJar) *Client {
	return &Client{
		httpClient: &http.Client{
			// no default timeout - we use per-request timeouts via context
			Jar: jar,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
}

// Fetch performs an HTTP request and returns a structured [Response].
//
// If method is empty, GET is used. The timeout is applied via context
// cancellation. Fetch always returns a Response; errors are captured in the
// Error field rather than returned separately.
func (c *Client) Fetch(ctx context.Context, method, target string, body io.Reader, headers map[string]string, timeout time.Duration) Response {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	// read one byte past the cap to tell a full body from a cut one
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize+1))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			URL:        resp.Request.URL,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}
	if len(data) > maxResponseBodySize {
		return Response{
			StatusCode: resp.StatusCode,
			URL:        resp.Request.URL,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("%s: %w", resp.Request.URL, ErrResponseTooLarge),
		}
	}

	return Response{
		Body:       data,
		StatusCode: resp.StatusCode,
		URL:        resp.Request.URL,
		Latency:    time.Since(start),
	}
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
}
