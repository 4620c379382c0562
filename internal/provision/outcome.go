package provision

// Status describes how a tool ended up available inside the environment.
type Status int

const (
	// StatusAlreadyPresent means the binary was found inside the
	// environment's bin directory before any work happened.
	StatusAlreadyPresent Status = iota
	// StatusSymlinkedFromSystem means a system-wide install was found on
	// PATH and linked into the environment.
	StatusSymlinkedFromSystem
	// StatusInstalledFromRelease means the binary was downloaded from a
	// GitHub release and installed.
	StatusInstalledFromRelease
	// StatusFailed means provisioning did not complete.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusAlreadyPresent:
		return "already present"
	case StatusSymlinkedFromSystem:
		return "linked from system"
	case StatusInstalledFromRelease:
		return "installed from release"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome records the result of provisioning one tool.
type Outcome struct {
	Tool   string
	Status Status
	// Source is the system path a symlink points at, or the asset name a
	// release install came from. Empty for StatusAlreadyPresent.
	Source string
	Err    error
}
