package github

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/sirupsen/logrus"

	"github.com/kodematthieu/isoterm/internal/platform"
)

const fetchAttempts = 3

// fetchBackoff is the base delay between fetch attempts. Variable so tests
// can shrink it.
var fetchBackoff = 500 * time.Millisecond

// ReleaseQuery identifies one asset lookup. An empty Tag targets the latest
// release; otherwise the release with exactly that tag is fetched.
type ReleaseQuery struct {
	Tool string
	Repo string // "owner/name"
	Tag  string
	OS   string
	Arch string
	Libc platform.Libc
}

// ResolveAsset fetches release metadata and selects the best-matching asset
// for the queried platform. Only the network fetch is retried; a match
// failure on data already fetched is deterministic and fails immediately.
func (c *Client) ResolveAsset(ctx context.Context, q ReleaseQuery) (Asset, error) {
	rel, err := c.fetchRelease(ctx, q.Repo, q.Tag)
	if err != nil {
		return Asset{}, err
	}

	assets, err := releaseAssets(rel, q.Repo)
	if err != nil {
		return Asset{}, err
	}

	return MatchAsset(assets, MatchParams{
		Tool: q.Tool,
		OS:   q.OS,
		Arch: q.Arch,
		Libc: q.Libc,
	})
}

// ResolveSourceTarball returns the source tarball URL of a repository's
// latest release along with its tag name. GitHub source tarballs are always
// gzipped tar regardless of how the binary assets are packaged.
func (c *Client) ResolveSourceTarball(ctx context.Context, repo string) (url, tag string, err error) {
	rel, err := c.fetchRelease(ctx, repo, "")
	if err != nil {
		return "", "", err
	}

	if rel.GetTarballURL() == "" {
		return "", "", &APIShapeError{Repo: repo, Reason: "release has no tarball_url"}
	}

	tag = rel.GetTagName()
	if tag == "" {
		tag = "source"
	}
	return rel.GetTarballURL(), tag, nil
}

// fetchRelease retrieves release metadata with bounded retry and jittered
// exponential backoff.
func (c *Client) fetchRelease(ctx context.Context, repo, tag string) (*github.RepositoryRelease, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	var rel *github.RepositoryRelease
	var lastErr error

	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			backoff := fetchBackoff << uint(attempt-1)
			backoff += time.Duration(rand.Int63n(int64(fetchBackoff)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if tag == "" {
			rel, _, lastErr = c.gh.Repositories.GetLatestRelease(ctx, owner, name)
		} else {
			rel, _, lastErr = c.gh.Repositories.GetReleaseByTag(ctx, owner, name, tag)
		}
		if lastErr == nil {
			return rel, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		logrus.WithFields(logrus.Fields{
			"repo":    repo,
			"attempt": attempt + 1,
		}).WithError(lastErr).Debug("release fetch failed")
	}

	return nil, fmt.Errorf("fetch release for %s after %d attempts: %w", repo, fetchAttempts, lastErr)
}

// releaseAssets converts go-github asset records, rejecting responses whose
// shape we cannot work with.
func releaseAssets(rel *github.RepositoryRelease, repo string) ([]Asset, error) {
	if rel == nil || rel.Assets == nil {
		return nil, &APIShapeError{Repo: repo, Reason: "release has no assets list"}
	}

	assets := make([]Asset, 0, len(rel.Assets))
	for _, a := range rel.Assets {
		if a.GetName() == "" || a.GetBrowserDownloadURL() == "" {
			return nil, &APIShapeError{Repo: repo, Reason: "asset missing name or download URL"}
		}
		assets = append(assets, Asset{
			Name:        a.GetName(),
			DownloadURL: a.GetBrowserDownloadURL(),
		})
	}
	return assets, nil
}
