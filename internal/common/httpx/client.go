package httpx

import (
	"context"
	"net/http"
	"time"
)

// Client is a thin wrapper around http.Client with a mandatory timeout. Every
// outbound call in the pipeline goes through one of these so no upstream can
// hold a request open indefinitely.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}
