package github

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kodematthieu/isoterm/internal/platform"
)

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name        string
	DownloadURL string
}

// MatchParams carries everything the matcher needs. Libc is computed once
// per run by the caller and injected here so matching stays pure.
type MatchParams struct {
	Tool string // tool base name, matched as a substring
	OS   string // GOOS value: "linux", "android", "darwin", "windows"
	Arch string // release naming: "x86_64", "aarch64"
	Libc platform.Libc
}

// MatchAsset selects the first asset whose lowercased file name contains the
// tool name, architecture, an OS-target token, and the expected archive
// extension. OS-target tokens are tried most specific first, so the libc
// preference decides between gnu and musl builds when a release ships both.
//
// This is name-convention matching, not manifest-driven; it relies on the
// upstream projects keeping their release naming schemes.
func MatchAsset(assets []Asset, p MatchParams) (Asset, error) {
	targets, err := osTargets(p.Tool, p.OS, p.Libc)
	if err != nil {
		return Asset{}, err
	}
	ext := archiveExt(p.Tool, p.OS)

	// Repos like "helix-editor/helix" name assets after the bare tool.
	name := p.Tool
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	for _, target := range targets {
		fragments := []string{name, p.Arch, target, ext}
		for _, asset := range assets {
			lower := strings.ToLower(asset.Name)
			ok := true
			for _, frag := range fragments {
				if !strings.Contains(lower, strings.ToLower(frag)) {
					ok = false
					break
				}
			}
			if ok {
				logrus.WithFields(logrus.Fields{
					"tool":  name,
					"asset": asset.Name,
				}).Debug("matched release asset")
				return asset, nil
			}
		}
	}

	return Asset{}, &AssetNotFoundError{Tool: name, OS: p.OS, Arch: p.Arch}
}

// osTargets returns the ordered OS-target tokens to try for a tool. fish and
// helix publish a single generic "linux" asset with no libc suffix; everyone
// else uses Rust target triples where the libc preference decides ordering.
func osTargets(tool, goos string, libc platform.Libc) ([]string, error) {
	switch goos {
	case "linux":
		if hasGenericLinuxAsset(tool) {
			return []string{"linux"}, nil
		}
		if libc == platform.LibcGNU {
			return []string{"unknown-linux-gnu", "unknown-linux-musl"}, nil
		}
		return []string{"unknown-linux-musl", "unknown-linux-gnu"}, nil
	case "android":
		if hasGenericLinuxAsset(tool) {
			return []string{"linux"}, nil
		}
		return []string{"unknown-linux-musl", "unknown-linux-gnu"}, nil
	case "darwin":
		return []string{"apple-darwin"}, nil
	case "windows":
		return []string{"pc-windows-msvc"}, nil
	default:
		return nil, &UnsupportedPlatformError{Tool: tool, OS: goos}
	}
}

func hasGenericLinuxAsset(tool string) bool {
	base := tool
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	return base == "fish" || base == "helix"
}

// archiveExt returns the archive extension a tool's release assets use on
// the given OS. Most tools ship tar.gz; fish and helix ship tar.xz on Linux
// and helix ships zip on macOS.
func archiveExt(tool, goos string) string {
	base := tool
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}

	if goos == "windows" {
		return "zip"
	}
	switch {
	case base == "helix" && goos == "darwin":
		return "zip"
	case base == "helix":
		return "tar.xz"
	case base == "fish":
		return "tar.xz"
	default:
		return "tar.gz"
	}
}
