// Package archive extracts release archives in the three shapes the
// provisioner needs: a single named file, the whole tree with its wrapping
// directory stripped, or one named subdirectory re-rooted at the target.
// Shape and compression format are independent parameters.
package archive

import (
	"errors"
	"fmt"
	"strings"
)

// Format identifies the archive container and compression.
type Format int

const (
	// FormatTarGz is a gzip-compressed tar archive (.tar.gz).
	FormatTarGz Format = iota
	// FormatTarXz is an xz-compressed tar archive (.tar.xz).
	FormatTarXz
	// FormatZip is a zip archive (.zip).
	FormatZip
)

// String returns the conventional file extension for the format.
func (f Format) String() string {
	switch f {
	case FormatTarGz:
		return "tar.gz"
	case FormatTarXz:
		return "tar.xz"
	case FormatZip:
		return "zip"
	default:
		return "unknown"
	}
}

// ErrEntryNotFound is returned when an expected entry is absent from an
// archive. Callers wrap it with the entry name.
var ErrEntryNotFound = errors.New("entry not found in archive")

// UnsupportedFormatError indicates an asset name with an extension none of
// the extractors understand. Detected before any download happens.
type UnsupportedFormatError struct {
	Name string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported archive format: %s", e.Name)
}

// FormatFromName determines the archive format from an asset file name.
func FormatFromName(name string) (Format, error) {
	switch {
	case strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz"):
		return FormatTarGz, nil
	case strings.HasSuffix(name, ".tar.xz"):
		return FormatTarXz, nil
	case strings.HasSuffix(name, ".zip"):
		return FormatZip, nil
	default:
		return 0, &UnsupportedFormatError{Name: name}
	}
}
