package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrStatus is returned, wrapped in a *StatusError, when the remote end
// answers with a non-2xx status.
var ErrStatus = errors.New("network response was not ok")

// StatusError carries the status of a non-2xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s (status %d)", ErrStatus, e.Code)
}

func (e *StatusError) Unwrap() error {
	return ErrStatus
}

// Client talks to the inventory API server and to the boards themselves.
// Both speak plain HTTP on a bare host[:port].
type Client struct {
	httpClient *http.Client
	maxBody    int64
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// NewClient creates a new client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxBody: 4 << 20,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets a custom timeout for the HTTP client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMaxBodySize caps how much of a response body is read.
func WithMaxBodySize(n int64) ClientOption {
	return func(c *Client) {
		c.maxBody = n
	}
}

// BaseURL turns a host as typed by a user into a base URL. Hosts without
// a scheme are reached over plain http.
func BaseURL(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if strings.Contains(host, "://") {
		return host
	}
	return "http://" + host
}

// get performs a GET against host+path. Non-2xx responses are turned into
// a *StatusError unless allowAnyStatus is set.
func (c *Client) get(ctx context.Context, host, path string, allowAnyStatus bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, BaseURL(host)+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if !allowAnyStatus && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBody))
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	return resp, nil
}

func (c *Client) readText(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(body), nil
}
