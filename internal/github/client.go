// Package github resolves release assets for tools hosted on a GitHub-style
// release API. Given a tool, repository, and host platform it selects the
// best-matching downloadable asset using file-name heuristics.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

const defaultTimeout = 30 * time.Second

// Client wraps the go-github client with the small surface the resolver
// needs: latest-release and release-by-tag lookups.
type Client struct {
	gh *github.Client
}

// Option configures a Client.
type Option func(c *Client) error

// WithBaseURL points the client at an alternate API endpoint. Used by tests
// to target an httptest server. The URL must end without a trailing slash;
// one is appended as go-github requires.
func WithBaseURL(base string) Option {
	return func(c *Client) error {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return fmt.Errorf("parse base URL: %w", err)
		}
		c.gh.BaseURL = u
		return nil
	}
}

// NewClient creates a release API client. When token is non-empty, requests
// are authenticated; unauthenticated requests work too but are subject to
// much lower rate limits.
func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	httpClient := &http.Client{Timeout: defaultTimeout}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
		httpClient.Timeout = defaultTimeout
	}

	c := &Client{gh: github.NewClient(httpClient)}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// splitRepo splits an "owner/name" repository identifier.
func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository identifier: %q (want owner/name)", repo)
	}
	return parts[0], parts[1], nil
}
