// Package fsutil implements the filesystem helpers the client CLI needs
// (spec §1 lists these as external collaborators, out of the core's
// scope): recursive directory listing, mkdir-p, and atomic file saves
// used by -d/-D to persist retrieved or evicted files.
package fsutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// MkdirAll creates dir, and any missing parents, matching mkdir -p.
func MkdirAll(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fsutil: mkdir -p %s: %w", dir, err)
	}

	return nil
}

// ListFilesRecursive returns every regular file under root, relative to
// root, in lexical order.
func ListFilesRecursive(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		files = append(files, rel)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fsutil: list %s: %w", root, err)
	}

	return files, nil
}

// SaveFile atomically writes content to dir/name, creating dir if
// necessary. A write-to-temp-then-rename is used (via
// github.com/natefinch/atomic) so a crash mid-persist never leaves a
// half-written file where -d/-D expect a complete one.
func SaveFile(dir, name string, content []byte) error {
	if err := MkdirAll(dir); err != nil {
		return err
	}

	path := filepath.Join(dir, name)

	if parent := filepath.Dir(path); parent != dir {
		if err := MkdirAll(parent); err != nil {
			return err
		}
	}

	if err := atomic.WriteFile(path, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("fsutil: save %s: %w", path, err)
	}

	return nil
}
