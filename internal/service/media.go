package service

import "io"

// MediaStorage persists raw attachment bytes. Implemented by storage/fs;
// an object-store implementation would satisfy the same contract.
type MediaStorage interface {
	// Save stores a file's content under subdir and returns the relative
	// path where the file was stored.
	Save(fileData io.Reader, subdir, filename string) (string, error)

	// Read opens a file for reading given its relative path.
	Read(filePath string) (io.ReadCloser, error)

	// Delete removes a single file.
	Delete(filePath string) error
}
