package repositories

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const tempFilePrefix = ".tmp-"

// renameFile is the final step of an atomic write. Tests swap it to simulate a crash
// between writing the temp file and replacing the canonical one.
var renameFile = os.Rename

// writeFileAtomic writes data next to path and renames it into place.
// Readers see either the previous complete file or the new complete file, never a prefix.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	// Same directory so the rename stays on one filesystem
	f, err := os.CreateTemp(dir, tempFilePrefix)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := f.Name()

	success := false
	defer func() {
		if !success {
			f.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync data to disk: %w", err)
	}

	// Close before rename, required on Windows
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tempPath, perm); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}

	if err := renameFile(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// isTempFile reports whether name is a leftover from an interrupted write
func isTempFile(name string) bool {
	return strings.HasPrefix(name, tempFilePrefix)
}
