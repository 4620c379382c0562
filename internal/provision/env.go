package provision

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Environment is the target directory tree. Each tool owns disjoint
// subpaths under it, so concurrent provisioning needs no locking.
type Environment struct {
	Root string
}

// BinDir returns the directory holding the tool symlinks and binaries.
func (e *Environment) BinDir() string {
	return filepath.Join(e.Root, "bin")
}

// ConfigDir returns the directory owned by the configuration generator.
func (e *Environment) ConfigDir() string {
	return filepath.Join(e.Root, "config")
}

// DataDir returns the directory for tool state.
func (e *Environment) DataDir() string {
	return filepath.Join(e.Root, "data")
}

// BinPath returns the environment path of a tool binary.
func (e *Environment) BinPath(binary string) string {
	return filepath.Join(e.BinDir(), binary)
}

// ToolDir returns the directory a full-archive install unpacks into.
func (e *Environment) ToolDir(name string) string {
	return filepath.Join(e.Root, name)
}

// RuntimeDir returns the runtime directory for tools that carry their
// supporting files alongside the binary (fish_runtime and friends).
func (e *Environment) RuntimeDir(name string) string {
	return filepath.Join(e.Root, name+"_runtime")
}

// Scaffold creates the environment skeleton.
func (e *Environment) Scaffold() error {
	for _, dir := range []string{e.BinDir(), e.ConfigDir(), e.DataDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// Remove deletes the entire environment tree. This is the orchestrator's
// only recovery action; no partial environment ever survives a failed run.
func (e *Environment) Remove() error {
	if err := os.RemoveAll(e.Root); err != nil {
		return fmt.Errorf("remove environment %s: %w", e.Root, err)
	}
	return nil
}

// RunRecord is the breadcrumb written into the environment root when a run
// starts. It identifies the run and the toolchain it was provisioning, so a
// crash leaves enough context behind to understand the half-built tree.
type RunRecord struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Tools     []string  `json:"tools"`
}

const runRecordName = ".isoterm-run.json"

// writeRunRecord stamps the environment with a fresh run record, atomically.
func writeRunRecord(env *Environment, tools []ToolSpec) (*RunRecord, error) {
	record := &RunRecord{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Tools:     make([]string, 0, len(tools)),
	}
	for _, t := range tools {
		record.Tools = append(record.Tools, t.Name)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal run record: %w", err)
	}

	finalPath := filepath.Join(env.Root, runRecordName)
	tmpPath := finalPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return nil, fmt.Errorf("write run record: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("rename run record: %w", err)
	}
	return record, nil
}
