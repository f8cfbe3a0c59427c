// Package remote fetches documentation build logs over HTTP so they can
// be parsed like a local stream.
package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client fetches raw build logs from documentation hosts.
type Client struct {
	token      string
	httpClient *http.Client
}

// NewClient creates a log fetch client. token may be empty for public logs.
func NewClient(token string) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchLog retrieves the build log at logURL. The returned reader streams
// the response body; the caller must close it.
func (c *Client) FetchLog(ctx context.Context, logURL string) (io.ReadCloser, error) {
	parsed, err := url.Parse(logURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, logURL)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", logURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %v", ErrNetworkTimeout, err)
		}
		return nil, fmt.Errorf("failed to fetch log: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrAuthFailed, resp.StatusCode)
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrLogNotFound, logURL)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, fmt.Errorf("fetch failed with status %d: %s", resp.StatusCode, string(body))
	}
}
