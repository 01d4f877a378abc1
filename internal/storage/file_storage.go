// Package storage persists attachment content on the local filesystem. Rows
// in the attachments table reference content by storage URL; the files
// themselves live under a configured base directory.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage errors
var (
	ErrPathTraversal = errors.New("path traversal detected")
	ErrFileNotFound  = errors.New("file not found")
	ErrFileTooLarge  = errors.New("file exceeds size limit")
	ErrBlockedExt    = errors.New("file extension is blocked")
)

// MaxAttachmentSize is the maximum allowed attachment size (25 MB)
const MaxAttachmentSize = 25 * 1024 * 1024

// urlPrefix is prepended to stored paths to form the storage URL carried by
// attachment rows and compose requests.
const urlPrefix = "/attachments/"

// BlockedExtensions contains file extensions that are not allowed
var BlockedExtensions = map[string]bool{
	".exe": true, ".bat": true, ".cmd": true, ".com": true,
	".pif": true, ".scr": true, ".vbs": true, ".js": true,
	".jar": true, ".ps1": true, ".sh": true, ".bash": true,
	".msi": true, ".dll": true, ".sys": true,
}

// AttachmentStorage defines the interface for attachment content operations.
// Save returns the storage URL referencing the stored content.
type AttachmentStorage interface {
	Save(filename string, content io.Reader) (string, int64, error)
	Get(storageURL string) (io.ReadCloser, error)
	Delete(storageURL string) error
}

// localStorage implements AttachmentStorage using the local filesystem
type localStorage struct {
	basePath string
}

// NewLocalStorage creates a new localStorage instance
func NewLocalStorage(basePath string) (AttachmentStorage, error) {
	// Ensure base directory exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &localStorage{basePath: basePath}, nil
}

// relPath strips the URL prefix from a storage URL, yielding the path
// relative to the base directory.
func relPath(storageURL string) string {
	return strings.TrimPrefix(storageURL, urlPrefix)
}

// validatePath ensures path is within basePath (prevents traversal)
func (s *localStorage) validatePath(filePath string) (string, error) {
	// Clean the path
	cleanPath := filepath.Clean(filePath)

	// Prevent absolute paths
	if filepath.IsAbs(cleanPath) {
		return "", ErrPathTraversal
	}

	// Prevent path traversal
	if strings.Contains(cleanPath, "..") {
		return "", ErrPathTraversal
	}

	// Build full path
	fullPath := filepath.Join(s.basePath, cleanPath)

	// Get absolute paths for comparison
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	// Security check: ensure file is within allowed directory
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) &&
		absPath != absBase {
		return "", ErrPathTraversal
	}

	return absPath, nil
}

// ValidateUpload checks file extension and declared size
func ValidateUpload(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))

	if BlockedExtensions[ext] {
		return ErrBlockedExt
	}

	if size > MaxAttachmentSize {
		return ErrFileTooLarge
	}

	return nil
}

// Save stores attachment content and returns its storage URL and the number
// of bytes written. Content exceeding MaxAttachmentSize is rejected and the
// partial file removed.
func (s *localStorage) Save(filename string, content io.Reader) (string, int64, error) {
	// Generate unique filename to prevent conflicts
	ext := filepath.Ext(filename)
	uniqueName := fmt.Sprintf("%s%s", uuid.New().String(), ext)

	// Create subdirectory based on first 2 chars of UUID for better distribution
	subDir := uniqueName[:2]
	dirPath := filepath.Join(s.basePath, subDir)

	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create subdirectory: %w", err)
	}

	filePath := filepath.Join(subDir, uniqueName)
	fullPath := filepath.Join(s.basePath, filePath)

	file, err := os.Create(fullPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	// Read one byte beyond the limit so oversized content is detected even
	// when the declared size lied.
	written, err := io.Copy(file, io.LimitReader(content, MaxAttachmentSize+1))
	if err != nil {
		os.Remove(fullPath)
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}
	if written > MaxAttachmentSize {
		os.Remove(fullPath)
		return "", 0, ErrFileTooLarge
	}

	return urlPrefix + filepath.ToSlash(filePath), written, nil
}

// Get retrieves attachment content by its storage URL
func (s *localStorage) Get(storageURL string) (io.ReadCloser, error) {
	// Validate path to prevent traversal
	fullPath, err := s.validatePath(relPath(storageURL))
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes attachment content by its storage URL
func (s *localStorage) Delete(storageURL string) error {
	// Validate path to prevent traversal
	fullPath, err := s.validatePath(relPath(storageURL))
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			// File already doesn't exist, not an error
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
