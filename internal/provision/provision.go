package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/sirupsen/logrus"

	"github.com/kodematthieu/isoterm/internal/archive"
	"github.com/kodematthieu/isoterm/internal/symlink"
)

// ProvisionTool applies the three-tier acquisition policy to one tool:
// present in the environment already, linked from a system-wide install, or
// installed from a release. Each tool touches only its own subpaths of the
// environment, so concurrent calls need no coordination.
func ProvisionTool(ctx context.Context, pc *Context, spec ToolSpec) Outcome {
	log := logrus.WithField("tool", spec.Name)
	binPath := pc.Env.BinPath(spec.BinaryName)

	// Lstat, not Stat: a dangling symlink still counts as provisioned
	// rather than silently shadowed by a fresh install.
	if _, err := os.Lstat(binPath); err == nil {
		log.Debug("already present in environment")
		return Outcome{Tool: spec.Name, Status: StatusAlreadyPresent}
	}

	if systemPath, err := pc.lookPath(spec.BinaryName); err == nil {
		log.WithField("path", systemPath).Debug("linking system binary")
		if err := symlink.Create(systemPath, binPath); err != nil {
			return failed(spec, fmt.Errorf("%s: %w", spec.Name, err))
		}
		if err := afterSystemLink(ctx, pc, spec, systemPath); err != nil {
			return failed(spec, fmt.Errorf("%s: %w", spec.Name, err))
		}
		return Outcome{Tool: spec.Name, Status: StatusSymlinkedFromSystem, Source: systemPath}
	}

	source, err := installFromRelease(ctx, pc, spec)
	if err != nil {
		return failed(spec, fmt.Errorf("%s: %w", spec.Name, err))
	}
	log.WithField("asset", source).Info("installed from release")
	return Outcome{Tool: spec.Name, Status: StatusInstalledFromRelease, Source: source}
}

func failed(spec ToolSpec, err error) Outcome {
	return Outcome{Tool: spec.Name, Status: StatusFailed, Err: err}
}

// afterSystemLink runs the variant-specific follow-up once a system binary
// has been linked in. A failure here fails the tool outright; falling back
// to a release install would leave the link and the install racing for the
// same bin path.
func afterSystemLink(ctx context.Context, pc *Context, spec ToolSpec, systemPath string) error {
	if spec.Variant != VariantVersionLocked {
		return nil
	}
	return ensureLockedRuntime(ctx, pc, spec, systemPath)
}

// installFromRelease resolves the latest release asset for the tool,
// downloads it, and installs it according to the tool's variant. It returns
// the asset name the install came from.
func installFromRelease(ctx context.Context, pc *Context, spec ToolSpec) (string, error) {
	asset, err := pc.Resolver.ResolveAsset(ctx, pc.query(spec, ""))
	if err != nil {
		return "", err
	}

	// Decide the codec before spending bandwidth on the download.
	format, err := archive.FormatFromName(asset.Name)
	if err != nil {
		return "", err
	}

	handle, err := pc.Fetcher.Fetch(ctx, asset.DownloadURL, asset.Name)
	if err != nil {
		return "", err
	}
	defer handle.Close()

	switch spec.Variant {
	case VariantAuxData:
		err = installWithAuxData(ctx, pc, spec, handle.Path, format)
	default:
		err = installArchive(pc, spec, handle.Path, format, pc.Env.ToolDir(spec.Name))
	}
	if err != nil {
		return "", err
	}
	return asset.Name, nil
}

// installArchive is the common install path. Single-binary archives have
// the binary extracted straight into bin/; full archives are unpacked into
// toolDir and the binary symlinked from bin/.
func installArchive(pc *Context, spec ToolSpec, archivePath string, format archive.Format, toolDir string) error {
	if spec.PathInArchive == "" {
		return archive.ExtractFile(archivePath, format, pc.Env.BinDir(), spec.BinaryName)
	}

	if err := archive.ExtractAll(archivePath, format, toolDir); err != nil {
		return err
	}
	binary := filepath.Join(toolDir, filepath.FromSlash(spec.PathInArchive))
	if err := os.Chmod(binary, 0755); err != nil {
		return fmt.Errorf("mark %s executable: %w", binary, err)
	}
	return symlink.Create(binary, pc.Env.BinPath(spec.BinaryName))
}

// installWithAuxData unpacks the full archive into the tool's runtime
// directory, then backfills the auxiliary data directory from the release's
// source tarball when the platform archive ships without it.
func installWithAuxData(ctx context.Context, pc *Context, spec ToolSpec, archivePath string, format archive.Format) error {
	runtimeDir := pc.Env.RuntimeDir(spec.Name)
	if err := installArchive(pc, spec, archivePath, format, runtimeDir); err != nil {
		return err
	}

	auxDir := filepath.Join(runtimeDir, spec.AuxDataDir)
	if _, err := os.Stat(auxDir); err == nil {
		return nil
	}
	logrus.WithFields(logrus.Fields{
		"tool": spec.Name,
		"dir":  spec.AuxDataDir,
	}).Debug("platform archive lacks data directory, fetching source tarball")

	url, tag, err := pc.Resolver.ResolveSourceTarball(ctx, spec.Repo)
	if err != nil {
		return err
	}
	handle, err := pc.Fetcher.Fetch(ctx, url, spec.Name+"-"+tag+".tar.gz")
	if err != nil {
		return err
	}
	defer handle.Close()

	return archive.ExtractSubdir(handle.Path, archive.FormatTarGz, auxDir, spec.AuxDataDir)
}

// ensureLockedRuntime keeps a version-locked tool's runtime directory in
// lockstep with the system binary it was linked from. A user-global runtime
// takes precedence; otherwise the binary's reported version selects the
// exact release to pull the runtime from.
func ensureLockedRuntime(ctx context.Context, pc *Context, spec ToolSpec, systemPath string) error {
	home, err := pc.homeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}
	userRuntime := filepath.Join(home, ".config", spec.Name, "runtime")
	if _, err := os.Stat(userRuntime); err == nil {
		logrus.WithField("tool", spec.Name).Debug("user-global runtime found, skipping")
		return nil
	}

	pattern, err := regexp.Compile(spec.VersionPattern)
	if err != nil {
		return fmt.Errorf("version pattern for %s: %w", spec.Name, err)
	}
	version, err := binaryVersion(ctx, spec.Name, systemPath, pattern)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"tool":    spec.Name,
		"version": version,
	}).Debug("fetching runtime matching system binary")

	asset, err := pc.Resolver.ResolveAsset(ctx, pc.query(spec, version))
	if err != nil {
		return err
	}
	format, err := archive.FormatFromName(asset.Name)
	if err != nil {
		return err
	}
	handle, err := pc.Fetcher.Fetch(ctx, asset.DownloadURL, asset.Name)
	if err != nil {
		return err
	}
	defer handle.Close()

	dest := filepath.Join(pc.Env.ToolDir(spec.Name), "runtime")
	return archive.ExtractSubdir(handle.Path, format, dest, "runtime")
}
