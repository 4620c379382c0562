// Package symlink creates relocatable symbolic links: link targets are
// stored as paths relative to the link's parent directory, so a linked tree
// keeps working after being moved or renamed.
package symlink

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Create links link to original using a relative target computed from the
// link's parent directory. os.Symlink picks file or directory semantics on
// platforms that distinguish them. Fails when no relative path exists
// between the two locations (for example, across Windows volumes).
func Create(original, link string) error {
	parent := filepath.Dir(link)

	rel, err := filepath.Rel(parent, original)
	if err != nil {
		return fmt.Errorf("compute relative path from %s to %s: %w", parent, original, err)
	}

	logrus.WithFields(logrus.Fields{
		"link":   link,
		"target": rel,
	}).Debug("creating relative symlink")

	if err := os.Symlink(rel, link); err != nil {
		return fmt.Errorf("create symlink: %w", err)
	}
	return nil
}
