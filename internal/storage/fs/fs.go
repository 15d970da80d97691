package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/opchan-dev/opchan/internal/service"
)

// Storage persists attachment bytes on the local filesystem under a single
// media root. Uploaded files are never mutated after Save.
type Storage struct {
	rootPath string
}

// Ensure Storage struct implements the interface at compile time.
var _ service.MediaStorage = (*Storage)(nil)

func New(rootPath string) (*Storage, error) {
	// Use filepath.Clean to prevent path traversal issues like "media/../"
	p := filepath.Clean(rootPath)

	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage directory %s: %w", p, err)
	}

	return &Storage{rootPath: p}, nil
}

// Save writes a file under subdir and returns its path relative to the root.
// The filename is generated by the caller (UUID-based), never taken from the
// client, so no sanitization beyond rejecting separators is needed.
func (s *Storage) Save(fileData io.Reader, subdir, filename string) (string, error) {
	if strings.ContainsAny(filename, `/\`) || filename == "" {
		return "", fmt.Errorf("invalid attachment filename: %q", filename)
	}

	relativePath := filepath.Join(filepath.Clean(subdir), filename)
	fullPath := filepath.Join(s.rootPath, relativePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create subdirectories: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, fileData); err != nil {
		// If the copy fails, clean up the partial file. Best effort.
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to copy file data: %w", err)
	}

	return relativePath, nil
}

// Read opens a stored file for reading given its relative path.
func (s *Storage) Read(filePath string) (io.ReadCloser, error) {
	fullPath := filepath.Join(s.rootPath, filepath.Clean(filePath))

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("attachment not found: %w", err)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes a single file from storage. Deleting a file that is already
// gone is not an error.
func (s *Storage) Delete(filePath string) error {
	fullPath := filepath.Join(s.rootPath, filepath.Clean(filePath))

	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
