package github

import "fmt"

// AssetNotFoundError indicates no release asset matched the host platform.
// This is deterministic for a given asset list and is never retried.
type AssetNotFoundError struct {
	Tool string
	OS   string
	Arch string
}

func (e *AssetNotFoundError) Error() string {
	return fmt.Sprintf("no compatible release asset for %q on %s %s", e.Tool, e.OS, e.Arch)
}

// UnsupportedPlatformError indicates the host OS has no known asset naming
// convention at all.
type UnsupportedPlatformError struct {
	Tool string
	OS   string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("platform %q is not supported for %q", e.OS, e.Tool)
}

// APIShapeError indicates the release API returned JSON without the fields
// we rely on. The response was received intact, so retrying cannot help.
type APIShapeError struct {
	Repo   string
	Reason string
}

func (e *APIShapeError) Error() string {
	return fmt.Sprintf("unexpected release API response for %s: %s", e.Repo, e.Reason)
}
