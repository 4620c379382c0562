package archive

import (
	"archive/zip"
	"fmt"
)

// walkZip opens a zip archive and calls fn for each entry. fn returns true
// to stop the walk early.
func walkZip(archivePath string, fn func(f *zip.File) (bool, error)) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		stop, err := fn(f)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}
