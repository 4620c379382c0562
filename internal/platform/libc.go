package platform

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"

	"github.com/sirupsen/logrus"
)

// minGlibc is the oldest glibc the gnu-linked release builds are known to
// work against (atuin's gnu binary is built against 2.35). Hosts below it
// get musl assets instead.
var minGlibc = GlibcVersion{Major: 2, Minor: 35}

// GlibcVersion is a parsed "major.minor" glibc version.
type GlibcVersion struct {
	Major int
	Minor int
}

// Less reports whether v is older than other.
func (v GlibcVersion) Less(other GlibcVersion) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

func (v GlibcVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

var glibcVersionRE = regexp.MustCompile(`(\d+)\.(\d+)`)

// DetectLibc decides, once per run, whether gnu or musl release assets
// should be preferred on this host. Non-Linux hosts never reach the
// gnu/musl branch of asset matching, so the value only matters on Linux
// and Android. Android has no glibc, so musl always wins there.
func DetectLibc(ctx context.Context, info *Info) Libc {
	switch info.OS {
	case "android":
		return LibcMusl
	case "linux":
		v, err := glibcVersion(ctx)
		if err != nil {
			logrus.WithError(err).Warn("could not determine glibc version, defaulting to musl")
			return LibcMusl
		}
		if v.Less(minGlibc) {
			logrus.Infof("system glibc %s is older than required %s, preferring musl builds", v, minGlibc)
			return LibcMusl
		}
		return LibcGNU
	default:
		return LibcGNU
	}
}

// glibcVersion probes the host glibc by running `ldd --version` and parsing
// the last "major.minor" token on the first output line.
func glibcVersion(ctx context.Context) (GlibcVersion, error) {
	cmd := exec.CommandContext(ctx, "ldd", "--version")

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return GlibcVersion{}, fmt.Errorf("open stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return GlibcVersion{}, fmt.Errorf("start ldd: %w", err)
	}

	// Drain stdout on its own goroutine before waiting on the child.
	// Waiting first can deadlock: the child blocks writing to a full pipe
	// while the parent blocks in Wait.
	type readResult struct {
		data []byte
		err  error
	}
	ch := make(chan readResult, 1)
	go func() {
		data, err := io.ReadAll(stdout)
		ch <- readResult{data: data, err: err}
	}()

	res := <-ch
	if err := cmd.Wait(); err != nil {
		return GlibcVersion{}, fmt.Errorf("ldd --version: %w", err)
	}
	if res.err != nil {
		return GlibcVersion{}, fmt.Errorf("read ldd output: %w", res.err)
	}

	return parseGlibcVersion(string(res.data))
}

// parseGlibcVersion extracts the glibc version from `ldd --version` output.
// The version is the last major.minor pair on the first line, e.g.
// "ldd (Ubuntu GLIBC 2.35-0ubuntu3.1) 2.35" -> 2.35.
func parseGlibcVersion(output string) (GlibcVersion, error) {
	var firstLine string
	for i := 0; i < len(output); i++ {
		if output[i] == '\n' {
			firstLine = output[:i]
			break
		}
	}
	if firstLine == "" {
		firstLine = output
	}

	matches := glibcVersionRE.FindAllStringSubmatch(firstLine, -1)
	if len(matches) == 0 {
		return GlibcVersion{}, fmt.Errorf("no version token in ldd output: %q", firstLine)
	}

	last := matches[len(matches)-1]
	major, err := strconv.Atoi(last[1])
	if err != nil {
		return GlibcVersion{}, fmt.Errorf("parse major version: %w", err)
	}
	minor, err := strconv.Atoi(last[2])
	if err != nil {
		return GlibcVersion{}, fmt.Errorf("parse minor version: %w", err)
	}

	return GlibcVersion{Major: major, Minor: minor}, nil
}
