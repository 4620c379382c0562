// Package provision acquires each tool of the isolated shell toolchain,
// applying a three-tier policy per tool: already provisioned in the
// environment, symlinked from the system search path, or installed from a
// release. Tools are provisioned concurrently and the whole environment is
// rolled back if any of them fails.
package provision

import "fmt"

// Variant selects the tool-specific behavior on top of the common
// acquisition state machine. Adding a tool means declaring its variant
// here, not branching in the orchestrator.
type Variant string

const (
	// VariantSimple installs a single binary straight into bin/, or the
	// full archive when PathInArchive is set.
	VariantSimple Variant = "simple"
	// VariantAuxData installs the full archive into a runtime directory
	// and separately fetches the release's source tarball when the
	// platform archive is missing the tool's data directory.
	VariantAuxData Variant = "aux-data"
	// VariantVersionLocked keeps a runtime/data directory in lockstep with
	// the binary actually in use: when the tool is satisfied from the
	// system, the matching release is fetched by exact version tag.
	VariantVersionLocked Variant = "version-locked"
)

// ToolSpec declares one tool of the toolchain. Specs are created at startup
// and never mutated.
type ToolSpec struct {
	// Name is the tool identifier, also used for its directory under the
	// environment root for full-archive installs.
	Name string `yaml:"name"`
	// Repo is the "owner/name" release repository.
	Repo string `yaml:"repo"`
	// BinaryName is the executable name, which may differ from Name
	// (ripgrep installs "rg", helix installs "hx").
	BinaryName string `yaml:"binary"`
	// PathInArchive is the binary's path inside the extracted archive for
	// full-archive installs. Empty means single-binary extraction.
	PathInArchive string `yaml:"path_in_archive,omitempty"`
	// Variant selects the tool-specific provisioning strategy.
	Variant Variant `yaml:"variant,omitempty"`
	// VersionPattern extracts the version tag from `binary --version`
	// output for version-locked tools. Must contain one capture group.
	VersionPattern string `yaml:"version_pattern,omitempty"`
	// AuxDataDir is the data directory fetched from the source tarball for
	// aux-data tools when the platform archive lacks it.
	AuxDataDir string `yaml:"aux_data_dir,omitempty"`
}

// Validate checks that a spec is internally consistent.
func (s ToolSpec) Validate() error {
	if s.Name == "" || s.Repo == "" || s.BinaryName == "" {
		return fmt.Errorf("tool spec needs name, repo, and binary (got %+v)", s)
	}
	switch s.Variant {
	case "", VariantSimple:
	case VariantAuxData:
		if s.AuxDataDir == "" {
			return fmt.Errorf("tool %s: aux-data variant needs aux_data_dir", s.Name)
		}
	case VariantVersionLocked:
		if s.VersionPattern == "" {
			return fmt.Errorf("tool %s: version-locked variant needs version_pattern", s.Name)
		}
	default:
		return fmt.Errorf("tool %s: unknown variant %q", s.Name, s.Variant)
	}
	return nil
}

// DefaultTools returns the built-in toolchain: shell, prompt, history,
// directory jumper, search tool, and editor.
func DefaultTools() []ToolSpec {
	return []ToolSpec{
		{
			Name:          "fish",
			Repo:          "fish-shell/fish-shell",
			BinaryName:    "fish",
			PathInArchive: "bin/fish",
			Variant:       VariantAuxData,
			AuxDataDir:    "share",
		},
		{
			Name:       "starship",
			Repo:       "starship/starship",
			BinaryName: "starship",
		},
		{
			Name:       "zoxide",
			Repo:       "ajeetdsouza/zoxide",
			BinaryName: "zoxide",
		},
		{
			Name:       "atuin",
			Repo:       "atuinsh/atuin",
			BinaryName: "atuin",
		},
		{
			Name:       "ripgrep",
			Repo:       "BurntSushi/ripgrep",
			BinaryName: "rg",
		},
		{
			Name:           "helix",
			Repo:           "helix-editor/helix",
			BinaryName:     "hx",
			PathInArchive:  "hx",
			Variant:        VariantVersionLocked,
			VersionPattern: `helix (\d+\.\d+)`,
		},
	}
}
