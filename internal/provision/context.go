package provision

import (
	"context"
	"os"
	"os/exec"

	"github.com/kodematthieu/isoterm/internal/download"
	"github.com/kodematthieu/isoterm/internal/github"
	"github.com/kodematthieu/isoterm/internal/platform"
)

// AssetResolver resolves release assets and source tarballs. Satisfied by
// *github.Client; tests substitute stubs.
type AssetResolver interface {
	ResolveAsset(ctx context.Context, q github.ReleaseQuery) (github.Asset, error)
	ResolveSourceTarball(ctx context.Context, repo string) (url, tag string, err error)
}

// Fetcher downloads a URL to a temporary file. Satisfied by
// *download.Client.
type Fetcher interface {
	Fetch(ctx context.Context, url, name string) (*download.Handle, error)
}

// Context carries the shared, read-only collaborators every provisioning
// task receives. The libc preference is computed once per run and injected
// here; tasks never consult ambient global state.
type Context struct {
	Env      *Environment
	Resolver AssetResolver
	Fetcher  Fetcher

	OS   string
	Arch string
	Libc platform.Libc

	// LookPath locates an executable on the ambient search path. Defaults
	// to exec.LookPath; tests inject their own.
	LookPath func(file string) (string, error)

	// HomeDir is the user home used for user-global runtime checks.
	// Defaults to os.UserHomeDir.
	HomeDir string
}

func (c *Context) lookPath(file string) (string, error) {
	if c.LookPath != nil {
		return c.LookPath(file)
	}
	return exec.LookPath(file)
}

func (c *Context) homeDir() (string, error) {
	if c.HomeDir != "" {
		return c.HomeDir, nil
	}
	return os.UserHomeDir()
}

func (c *Context) query(spec ToolSpec, tag string) github.ReleaseQuery {
	return github.ReleaseQuery{
		Tool: spec.Name,
		Repo: spec.Repo,
		Tag:  tag,
		OS:   c.OS,
		Arch: c.Arch,
		Libc: c.Libc,
	}
}
