package portal

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client calls an upstream service over the private network. Every request
// carries the client timeout, so a hung upstream fails fast instead of
// pinning portal goroutines.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL exposes the upstream address for readiness probes.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTPClient exposes the underlying client for readiness probes.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Forward relays a request and returns the upstream response. The caller owns
// the response body.
func (c *Client) Forward(ctx context.Context, method, path, rawQuery, bearer, contentType string, body io.Reader) (*http.Response, error) {
	url := c.baseURL + path
	if rawQuery != "" {
		url += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.http.Do(req)
}
