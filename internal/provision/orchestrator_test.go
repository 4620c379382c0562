package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/kodematthieu/isoterm/internal/download"
	"github.com/kodematthieu/isoterm/internal/github"
)

// scriptedResolver dispatches per tool, for orchestrator tests where
// different tools need different answers.
type scriptedResolver struct {
	resolve func(ctx context.Context, q github.ReleaseQuery) (github.Asset, error)
}

func (r *scriptedResolver) ResolveAsset(ctx context.Context, q github.ReleaseQuery) (github.Asset, error) {
	return r.resolve(ctx, q)
}

func (r *scriptedResolver) ResolveSourceTarball(context.Context, string) (string, string, error) {
	return "", "", fmt.Errorf("unexpected source tarball request")
}

type fetcherFunc func(ctx context.Context, url, name string) (*download.Handle, error)

func (f fetcherFunc) Fetch(ctx context.Context, url, name string) (*download.Handle, error) {
	return f(ctx, url, name)
}

func TestRunWithPreSeededToolsNeedsNoNetwork(t *testing.T) {
	resolver := &stubResolver{}
	fetcher := &stubFetcher{}
	pc := newTestContext(t, resolver, fetcher)

	tools := []ToolSpec{
		{Name: "starship", Repo: "starship/starship", BinaryName: "starship"},
		{Name: "zoxide", Repo: "ajeetdsouza/zoxide", BinaryName: "zoxide"},
	}
	for _, spec := range tools {
		if err := os.WriteFile(pc.Env.BinPath(spec.BinaryName), []byte("#!/bin/sh\n"), 0755); err != nil {
			t.Fatal(err)
		}
	}

	generated := false
	outcomes, err := Run(context.Background(), pc, tools, func(root string) error {
		generated = true
		if root != pc.Env.Root {
			t.Errorf("generate called with root %q, want %q", root, pc.Env.Root)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !generated {
		t.Error("configuration generator was not invoked")
	}
	if resolver.assetCalls != 0 || fetcher.calls != 0 {
		t.Errorf("network touched for pre-seeded tools: %d resolves, %d fetches", resolver.assetCalls, fetcher.calls)
	}
	for i, out := range outcomes {
		if out.Status != StatusAlreadyPresent {
			t.Errorf("outcomes[%d] = %v, want %v", i, out.Status, StatusAlreadyPresent)
		}
	}

	if _, err := os.Stat(filepath.Join(pc.Env.Root, runRecordName)); err != nil {
		t.Errorf("run record missing: %v", err)
	}
}

func TestRunInstallsWholeToolchainFromReleases(t *testing.T) {
	starshipArchive := makeTarGz(t, []tarEntry{
		{name: "starship-x86_64-unknown-linux-gnu/starship", body: "prompt", mode: 0755},
	})
	ripgrepArchive := makeTarGz(t, []tarEntry{
		{name: "ripgrep-14.1.0-x86_64-unknown-linux-gnu/rg", body: "search", mode: 0755},
	})

	assets := map[string]github.Asset{
		"starship": {
			Name:        "starship-x86_64-unknown-linux-gnu.tar.gz",
			DownloadURL: "https://example.com/starship.tar.gz",
		},
		"ripgrep": {
			Name:        "ripgrep-14.1.0-x86_64-unknown-linux-gnu.tar.gz",
			DownloadURL: "https://example.com/ripgrep.tar.gz",
		},
	}
	resolver := &scriptedResolver{
		resolve: func(_ context.Context, q github.ReleaseQuery) (github.Asset, error) {
			asset, ok := assets[q.Tool]
			if !ok {
				return github.Asset{}, fmt.Errorf("unexpected tool %s", q.Tool)
			}
			return asset, nil
		},
	}
	fetcher := &stubFetcher{files: map[string]string{
		"https://example.com/starship.tar.gz": starshipArchive,
		"https://example.com/ripgrep.tar.gz":  ripgrepArchive,
	}}
	pc := newTestContext(t, &stubResolver{}, fetcher)
	pc.Resolver = resolver

	tools := []ToolSpec{
		{Name: "starship", Repo: "starship/starship", BinaryName: "starship"},
		{Name: "ripgrep", Repo: "BurntSushi/ripgrep", BinaryName: "rg"},
	}
	outcomes, err := Run(context.Background(), pc, tools, func(string) error { return nil })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for i, out := range outcomes {
		if out.Status != StatusInstalledFromRelease {
			t.Errorf("outcomes[%d] (%s) = %v, want %v (err: %v)",
				i, out.Tool, out.Status, StatusInstalledFromRelease, out.Err)
		}
	}
	for _, binary := range []string{"starship", "rg"} {
		info, err := os.Stat(pc.Env.BinPath(binary))
		if err != nil {
			t.Errorf("bin/%s missing: %v", binary, err)
			continue
		}
		if info.Mode().Perm()&0111 == 0 {
			t.Errorf("bin/%s is not executable: %v", binary, info.Mode())
		}
	}
}

func TestRunCancelsSiblingsOnFailure(t *testing.T) {
	siblingFetching := make(chan struct{})
	siblingCancelled := make(chan struct{})

	// starship resolves and blocks in its download; zoxide fails only once
	// the sibling is known to be in flight.
	resolver := &scriptedResolver{
		resolve: func(_ context.Context, q github.ReleaseQuery) (github.Asset, error) {
			switch q.Tool {
			case "starship":
				return github.Asset{
					Name:        "starship-x86_64-unknown-linux-gnu.tar.gz",
					DownloadURL: "https://example.com/starship.tar.gz",
				}, nil
			case "zoxide":
				<-siblingFetching
				return github.Asset{}, errTest
			}
			return github.Asset{}, fmt.Errorf("unexpected tool %s", q.Tool)
		},
	}
	fetcher := fetcherFunc(func(ctx context.Context, _, _ string) (*download.Handle, error) {
		close(siblingFetching)
		<-ctx.Done()
		close(siblingCancelled)
		return nil, ctx.Err()
	})
	pc := newTestContext(t, &stubResolver{}, &stubFetcher{})
	pc.Resolver = resolver
	pc.Fetcher = fetcher

	tools := []ToolSpec{
		{Name: "starship", Repo: "starship/starship", BinaryName: "starship"},
		{Name: "zoxide", Repo: "ajeetdsouza/zoxide", BinaryName: "zoxide"},
	}
	outcomes, err := Run(context.Background(), pc, tools, func(string) error {
		t.Error("generator invoked despite provisioning failure")
		return nil
	})
	if err == nil {
		t.Fatal("expected an error")
	}

	// Run only returns after every goroutine finished, so the sibling must
	// have observed the cancellation by now.
	select {
	case <-siblingCancelled:
	default:
		t.Error("in-flight sibling was not cancelled")
	}

	if outcomes[0].Status != StatusFailed {
		t.Errorf("sibling outcome = %v, want %v", outcomes[0].Status, StatusFailed)
	}
	if _, statErr := os.Stat(pc.Env.Root); !os.IsNotExist(statErr) {
		t.Errorf("environment root survived a failed run: %v", statErr)
	}
}

func TestRunRemovesEnvironmentOnFailure(t *testing.T) {
	resolver := &stubResolver{assetErr: errTest}
	pc := newTestContext(t, resolver, &stubFetcher{})

	tools := []ToolSpec{
		{Name: "starship", Repo: "starship/starship", BinaryName: "starship"},
	}
	_, err := Run(context.Background(), pc, tools, func(string) error {
		t.Error("generator invoked despite provisioning failure")
		return nil
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, statErr := os.Stat(pc.Env.Root); !os.IsNotExist(statErr) {
		t.Errorf("environment root survived a failed run: %v", statErr)
	}
}

func TestRunRemovesEnvironmentOnGenerateFailure(t *testing.T) {
	pc := newTestContext(t, &stubResolver{}, &stubFetcher{})

	tools := []ToolSpec{
		{Name: "starship", Repo: "starship/starship", BinaryName: "starship"},
	}
	if err := os.WriteFile(pc.Env.BinPath("starship"), []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	_, err := Run(context.Background(), pc, tools, func(string) error {
		return errTest
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, statErr := os.Stat(pc.Env.Root); !os.IsNotExist(statErr) {
		t.Errorf("environment root survived a failed generate: %v", statErr)
	}
}

func TestRunRejectsInvalidSpecBeforeTouchingDisk(t *testing.T) {
	pc := newTestContext(t, &stubResolver{}, &stubFetcher{})

	_, err := Run(context.Background(), pc, []ToolSpec{{Name: "broken"}}, func(string) error {
		t.Error("generator invoked for an invalid toolchain")
		return nil
	})
	if err == nil {
		t.Fatal("expected a validation error")
	}
}
