// Package safe provides validated access to local files named by the user.
package safe

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultMaxFileSize is the default maximum file size for safe file operations (1MB).
const DefaultMaxFileSize = 1 << 20

// FileOptions configures OpenFile and ReadFile.
type FileOptions struct {
	// MaxSize is the maximum allowed file size in bytes. Zero means DefaultMaxFileSize.
	MaxSize int64
	// AllowSymlinks allows opening symlinks. Default is false for security.
	AllowSymlinks bool
}

// validate checks that path names a regular file within the size limit and
// returns its cleaned form.
func validate(path string, opts *FileOptions) (string, error) {
	if opts == nil {
		opts = &FileOptions{}
	}
	maxSize := opts.MaxSize
	if maxSize == 0 {
		maxSize = DefaultMaxFileSize
	}

	// Clean and validate the path.
	cleanPath := filepath.Clean(path)

	// Check file info without following symlinks.
	info, err := os.Lstat(cleanPath)
	if err != nil {
		return "", err
	}

	// Reject symlinks unless explicitly allowed.
	if info.Mode()&os.ModeSymlink != 0 && !opts.AllowSymlinks {
		return "", fmt.Errorf("file %q is a symlink, which is not allowed for security reasons", path)
	}

	// If it's a symlink and allowed, follow it to get the real file info.
	if info.Mode()&os.ModeSymlink != 0 {
		info, err = os.Stat(cleanPath)
		if err != nil {
			return "", err
		}
	}

	// Reject non-regular files.
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("path %q is not a regular file", path)
	}

	// Check file size to prevent resource exhaustion.
	if info.Size() > maxSize {
		return "", fmt.Errorf("file exceeds maximum allowed size of %d bytes", maxSize)
	}

	return cleanPath, nil
}

// OpenFile opens a file for reading after validating it.
// The caller closes the returned file.
func OpenFile(path string, opts *FileOptions) (*os.File, error) {
	cleanPath, err := validate(path, opts)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - we have validated the file prior to this.
	return os.Open(cleanPath)
}

// ReadFile reads a whole file after validating it.
func ReadFile(path string, opts *FileOptions) ([]byte, error) {
	cleanPath, err := validate(path, opts)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - we have validated the file prior to this.
	return os.ReadFile(cleanPath)
}
