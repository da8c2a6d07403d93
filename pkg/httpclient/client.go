package httpclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Response is the subset of an HTTP response that callers inspect.
type Response interface {
	StatusCode() int
	Body() []byte
}

// Client is a minimal HTTP client used by fetchers and publishers.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	Post(ctx context.Context, url string, headers map[string]string, body []byte) (Response, error)
	Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (Response, error)
}

const maxSnippetBytes = 512

// Snippet trims a response body for error messages and logs. Bodies longer
// than 512 bytes are cut and marked with "...".
func Snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "<empty>"
	}
	if len(s) > maxSnippetBytes {
		return s[:maxSnippetBytes] + "..."
	}
	return s
}

type restyClient struct {
	client *resty.Client
}

// NewRestyClient builds a Client backed by resty with the given request timeout.
// Retries stay at resty's default of zero.
func NewRestyClient(timeout time.Duration) Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &restyClient{client: c}
}

// Get performs a GET request.
func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	return c.Do(ctx, resty.MethodGet, url, headers, nil)
}

// Post performs a POST request with a raw body.
func (c *restyClient) Post(ctx context.Context, url string, headers map[string]string, body []byte) (Response, error) {
	return c.Do(ctx, resty.MethodPost, url, headers, body)
}

// Do performs a request with an arbitrary method.
func (c *restyClient) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req := c.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	return resp, nil
}
