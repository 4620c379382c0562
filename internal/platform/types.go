// Package platform detects the host OS, CPU architecture, and C library
// flavor that drive release-asset selection.
//
// OS and architecture come from the Go runtime; Linux distribution details
// come from gopsutil and are used only for log context. The glibc probe
// shells out to a system diagnostic command, so it lives behind its own
// function and is run once per invocation.
package platform

import "context"

// Architecture names as they appear in release-asset file names.
// Go's GOARCH values are normalized into these before any matching happens.
const (
	ArchX8664   = "x86_64"
	ArchAarch64 = "aarch64"
)

// Libc indicates which Linux C-library flavor should be preferred when a
// release ships both gnu and musl builds. The decision is made once per run
// and passed explicitly into the resolver.
type Libc int

const (
	// LibcGNU prefers glibc-linked assets over musl.
	LibcGNU Libc = iota
	// LibcMusl prefers statically-linked musl assets. This is the safe
	// default when the host glibc is too old or cannot be determined.
	LibcMusl
)

// String returns the lowercase name of the libc flavor.
func (l Libc) String() string {
	if l == LibcGNU {
		return "gnu"
	}
	return "musl"
}

// Info contains platform detection information.
type Info struct {
	OS       string // GOOS: "linux", "darwin", "windows", "android"
	Arch     string // release-asset naming: "x86_64", "aarch64"
	ArchRaw  string // original GOARCH (e.g., "amd64", "arm64")
	Platform string // distro ID (Linux only, e.g., "ubuntu", "arch")
	Version  string // distro version (Linux only, e.g., "22.04")
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
