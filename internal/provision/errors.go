package provision

import "fmt"

// ProcessError reports a child process that exited unsuccessfully while we
// were introspecting a freshly installed binary.
type ProcessError struct {
	Command string
	Output  string
	Err     error
}

func (e *ProcessError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s failed: %v: %s", e.Command, e.Err, e.Output)
	}
	return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// VersionParseError reports output from a tool's --version that did not
// match the expected pattern.
type VersionParseError struct {
	Tool    string
	Pattern string
	Output  string
}

func (e *VersionParseError) Error() string {
	return fmt.Sprintf("could not parse %s version: pattern %q did not match %q", e.Tool, e.Pattern, e.Output)
}
