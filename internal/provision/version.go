package provision

import (
	"context"
	"io"
	"os/exec"
	"regexp"
	"strings"
)

// binaryVersion runs `path --version` and extracts the version with the
// given pattern. The pattern's first capture group is the result.
//
// Stdout is drained on a separate goroutine before Wait is called; waiting
// first can deadlock when the child fills the pipe buffer.
func binaryVersion(ctx context.Context, tool, path string, pattern *regexp.Regexp) (string, error) {
	cmd := exec.CommandContext(ctx, path, "--version")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", err
	}
	if err := cmd.Start(); err != nil {
		return "", err
	}

	type readResult struct {
		data []byte
		err  error
	}
	ch := make(chan readResult, 1)
	go func() {
		data, err := io.ReadAll(stdout)
		ch <- readResult{data, err}
	}()

	res := <-ch
	waitErr := cmd.Wait()
	output := strings.TrimSpace(string(res.data))

	if waitErr != nil {
		return "", &ProcessError{Command: path + " --version", Output: output, Err: waitErr}
	}
	if res.err != nil {
		return "", res.err
	}

	m := pattern.FindStringSubmatch(output)
	if len(m) < 2 {
		return "", &VersionParseError{Tool: tool, Pattern: pattern.String(), Output: output}
	}
	return m[1], nil
}
