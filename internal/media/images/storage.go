// Package images stores and processes album cover art for releases.
package images

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage manages cover art on the filesystem.
// Thread-safe for concurrent operations.
type Storage struct {
	basePath string
	mu       sync.RWMutex // Protects file operations
}

// NewStorage creates a Storage rooted at the metadata directory
// (e.g., ~/VinylFlow/metadata). Covers are stored in {basePath}/covers/.
func NewStorage(basePath string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	storagePath := filepath.Join(basePath, "covers")

	// Create directory if it doesn't exist.
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create covers directory: %w", err)
	}

	return &Storage{
		basePath: storagePath,
	}, nil
}

// Save stores cover data for a release.
// Filename format: {id}.jpg.
func (s *Storage) Save(id string, imgData []byte) error {
	if id == "" {
		return fmt.Errorf("release ID cannot be empty")
	}

	if len(imgData) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(id)

	if err := os.WriteFile(path, imgData, 0644); err != nil {
		return fmt.Errorf("failed to write cover file: %w", err)
	}

	return nil
}

// Get retrieves cover data for a release.
func (s *Storage) Get(id string) ([]byte, error) {
	if id == "" {
		return nil, fmt.Errorf("release ID cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.Path(id)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("cover not found for %s: %w", id, err)
		}
		return nil, fmt.Errorf("failed to read cover file: %w", err)
	}

	return data, nil
}

// Exists checks if a cover exists for a release.
func (s *Storage) Exists(id string) bool {
	if id == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.Path(id)
	_, err := os.Stat(path)
	return err == nil
}

// Delete removes a release's cover.
func (s *Storage) Delete(id string) error {
	if id == "" {
		return fmt.Errorf("release ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(id)

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			// Already deleted, not an error.
			return nil
		}
		return fmt.Errorf("failed to delete cover file: %w", err)
	}

	return nil
}

// Hash computes the SHA256 of a stored cover.
// Returns a hex-encoded string for ETag/cache validation.
func (s *Storage) Hash(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("release ID cannot be empty")
	}

	data, err := s.Get(id)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// Path returns the full filesystem path for a release's cover.
func (s *Storage) Path(id string) string {
	return filepath.Join(s.basePath, fmt.Sprintf("%s.jpg", id))
}
