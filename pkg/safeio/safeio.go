package safeio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideBase is returned for paths that resolve outside the base directory.
var ErrOutsideBase = errors.New("path is outside base directory")

// Contained resolves filePath to an absolute path and verifies it lies
// within baseDir.
func Contained(baseDir, filePath string) (string, error) {
	baseDirAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return "", errors.New("failed to resolve base directory")
	}
	filePathAbs, err := filepath.Abs(filePath)
	if err != nil {
		return "", errors.New("failed to resolve file path")
	}

	rel, err := filepath.Rel(baseDirAbs, filePathAbs)
	if err != nil {
		return "", errors.New("failed to compute relative path")
	}
	if strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return "", fmt.Errorf("%w: %s", ErrOutsideBase, filePath)
	}
	return filePathAbs, nil
}

// ReadFileContained reads a file only if it is contained within baseDir.
func ReadFileContained(baseDir, filePath string) ([]byte, error) {
	abs, err := Contained(baseDir, filePath)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- abs has been verified to be contained within baseDir
	return os.ReadFile(abs)
}

// RemoveContained deletes a regular file only if it is contained within
// baseDir. Directories are refused.
func RemoveContained(baseDir, filePath string) error {
	abs, err := Contained(baseDir, filePath)
	if err != nil {
		return err
	}
	info, err := os.Lstat(abs)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("refusing to remove non-regular file %s", filePath)
	}
	return os.Remove(abs)
}

// WriteFilePreservePerms writes data to path preserving existing file mode when possible.
// When the file does not exist, it uses a sane default of 0644.
func WriteFilePreservePerms(path string, data []byte) error {
	var mode os.FileMode = 0o644
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode() & 0o777
		if mode == 0 {
			mode = 0o644
		}
	}
	return os.WriteFile(path, data, mode)
}
