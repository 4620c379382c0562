// Package download streams release assets to temporary files with bounded
// retry, jittered exponential backoff, and progress reporting.
package download

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultTimeout is the HTTP request timeout covering one whole attempt.
	DefaultTimeout = 5 * time.Minute
	// DefaultRetries is the number of additional attempts after the first.
	DefaultRetries = 3
	// DefaultUserAgent is the User-Agent header sent with requests.
	DefaultUserAgent = "isoterm/1.0"
)

// retryBackoff is the base delay between attempts. Variable so tests can
// shrink it.
var retryBackoff = 500 * time.Millisecond

// Client performs HTTP downloads. It is safe to share across goroutines;
// the underlying http.Client pools connections.
type Client struct {
	client    *http.Client
	userAgent string
	retries   int
}

// New creates a download client.
func New() *Client {
	return &Client{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
		retries:   DefaultRetries,
	}
}

// Handle is a downloaded asset sitting in a temporary file. The owner must
// Close it once the contents have been consumed.
type Handle struct {
	Path string
	Size int64
}

// Close removes the temporary file.
func (h *Handle) Close() error {
	if h == nil || h.Path == "" {
		return nil
	}
	return os.Remove(h.Path)
}

// Fetch downloads url to a temporary file, reporting progress under name.
// Transient failures are retried with jittered exponential backoff; each
// attempt restarts from byte zero into a fresh temporary file.
func (c *Client) Fetch(ctx context.Context, url, name string) (*Handle, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			backoff := retryBackoff << uint(attempt-1)
			backoff += time.Duration(rand.Int63n(int64(retryBackoff)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			logrus.WithFields(logrus.Fields{
				"asset":   name,
				"attempt": attempt + 1,
			}).Debug("retrying download")
		}

		handle, err := c.fetchOnce(ctx, url, name)
		if err == nil {
			return handle, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("download %s failed after %d attempts: %w", name, c.retries+1, lastErr)
}

// fetchOnce performs a single download attempt.
func (c *Client) fetchOnce(ctx context.Context, url, name string) (*Handle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "isoterm-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	bar := newBar(name, resp.ContentLength)
	bar.Start()
	written, err := io.Copy(tmp, bar.NewProxyReader(resp.Body))
	bar.Finish()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("copy response body: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	return &Handle{Path: tmp.Name(), Size: written}, nil
}
