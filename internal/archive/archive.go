package archive

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ExtractFile scans the archive for the first regular entry whose base name
// equals name and writes it to destDir/name with executable permissions.
func ExtractFile(archivePath string, format Format, destDir, name string) error {
	target := filepath.Join(destDir, name)
	found := false

	var err error
	if format == FormatZip {
		err = walkZip(archivePath, func(f *zip.File) (bool, error) {
			if f.FileInfo().IsDir() || path.Base(f.Name) != name {
				return false, nil
			}
			rc, err := f.Open()
			if err != nil {
				return false, fmt.Errorf("open zip entry %s: %w", f.Name, err)
			}
			defer rc.Close()
			if err := writeEntry(target, rc, 0755); err != nil {
				return false, err
			}
			found = true
			return true, nil
		})
	} else {
		err = walkTar(archivePath, format, func(hdr *tar.Header, r io.Reader) (bool, error) {
			if hdr.Typeflag != tar.TypeReg || path.Base(hdr.Name) != name {
				return false, nil
			}
			if err := writeEntry(target, r, 0755); err != nil {
				return false, err
			}
			found = true
			return true, nil
		})
	}
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%q: %w", name, ErrEntryNotFound)
	}
	return nil
}

// ExtractAll unpacks the whole archive into destDir, stripping the first
// path component of every entry (the release's wrapping directory).
// Directory structure below the wrapper is preserved, as are zip permission
// bits and tar file modes.
func ExtractAll(archivePath string, format Format, destDir string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	if format == FormatZip {
		return walkZip(archivePath, func(f *zip.File) (bool, error) {
			rel := stripTopLevel(f.Name, f.FileInfo().IsDir())
			if rel == "" {
				return false, nil
			}
			target, err := securePath(destDir, rel)
			if err != nil {
				return false, err
			}
			if f.FileInfo().IsDir() {
				return false, os.MkdirAll(target, 0755)
			}
			rc, err := f.Open()
			if err != nil {
				return false, fmt.Errorf("open zip entry %s: %w", f.Name, err)
			}
			defer rc.Close()
			return false, writeEntry(target, rc, f.Mode().Perm())
		})
	}

	return walkTar(archivePath, format, func(hdr *tar.Header, r io.Reader) (bool, error) {
		rel := stripTopLevel(hdr.Name, hdr.Typeflag == tar.TypeDir)
		if rel == "" {
			return false, nil
		}
		target, err := securePath(destDir, rel)
		if err != nil {
			return false, err
		}
		return false, unpackTarEntry(hdr, r, target)
	})
}

// ExtractSubdir unpacks only the entries whose path contains the named
// segment, re-rooting everything after the segment under destDir. The
// segment itself and everything before it are excluded from output paths.
func ExtractSubdir(archivePath string, format Format, destDir, segment string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}
	pattern := "/" + segment + "/"

	if format == FormatZip {
		return walkZip(archivePath, func(f *zip.File) (bool, error) {
			rel, ok := subdirPath(f.Name, pattern)
			if !ok {
				return false, nil
			}
			if rel == "" {
				return false, nil
			}
			target, err := securePath(destDir, rel)
			if err != nil {
				return false, err
			}
			if f.FileInfo().IsDir() {
				return false, os.MkdirAll(target, 0755)
			}
			rc, err := f.Open()
			if err != nil {
				return false, fmt.Errorf("open zip entry %s: %w", f.Name, err)
			}
			defer rc.Close()
			return false, writeEntry(target, rc, f.Mode().Perm())
		})
	}

	return walkTar(archivePath, format, func(hdr *tar.Header, r io.Reader) (bool, error) {
		rel, ok := subdirPath(hdr.Name, pattern)
		if !ok || rel == "" {
			return false, nil
		}
		target, err := securePath(destDir, rel)
		if err != nil {
			return false, err
		}
		return false, unpackTarEntry(hdr, r, target)
	})
}

// unpackTarEntry materializes a single tar entry at target. Entry types
// other than directories, regular files, and symlinks are skipped.
func unpackTarEntry(hdr *tar.Header, r io.Reader, target string) error {
	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(target, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", target, err)
		}
	case tar.TypeReg:
		if err := writeEntry(target, r, os.FileMode(hdr.Mode).Perm()); err != nil {
			return err
		}
	case tar.TypeSymlink:
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("create parent dir for %s: %w", target, err)
		}
		if err := os.Symlink(hdr.Linkname, target); err != nil {
			return fmt.Errorf("create symlink %s: %w", target, err)
		}
	}
	return nil
}

// stripTopLevel removes the first path component of an archive entry name.
// The wrapping directory itself maps to "" and is skipped; a flat file with
// no directory prefix is kept unchanged.
func stripTopLevel(name string, isDir bool) string {
	name = strings.TrimSuffix(strings.TrimPrefix(name, "./"), "/")
	i := strings.Index(name, "/")
	if i < 0 {
		if isDir {
			return ""
		}
		return name
	}
	return name[i+1:]
}

// subdirPath reports whether an entry belongs to the requested sub-tree and
// returns its path relative to the segment. The second return is false for
// entries outside the sub-tree.
func subdirPath(name, pattern string) (string, bool) {
	name = strings.TrimPrefix(name, "./")
	i := strings.Index(name, pattern)
	if i < 0 {
		return "", false
	}
	return strings.TrimPrefix(name[i+len(pattern):], "/"), true
}

// securePath joins rel under destDir, rejecting entries that would escape
// the destination tree.
func securePath(destDir, rel string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(rel))
	if target != filepath.Clean(destDir) &&
		!strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal entry path: %s", rel)
	}
	return target, nil
}
