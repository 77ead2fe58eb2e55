package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Validation errors surfaced as client errors at the HTTP boundary.
var (
	ErrFileTooLarge   = errors.New("media: file too large")
	ErrTypeNotAllowed = errors.New("media: file type not allowed")
	ErrNotOwner       = errors.New("media: not the owner of this file")
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".mp4":  true,
	".mov":  true,
}

// LocalStore keeps uploaded media on the local filesystem, namespaced per
// user, and serves it under a URL prefix.
type LocalStore struct {
	dir     string
	baseURL string
	maxSize int64
}

func NewLocalStore(dir, baseURL string, maxSize int64) *LocalStore {
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: maxSize,
	}
}

// Dir returns the directory files are stored in, for static file serving.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Store validates and writes data under the given relative path
// ("userID/name.ext") and returns the URL it is served at.
func (s *LocalStore) Store(data []byte, path string) (string, error) {
	if int64(len(data)) > s.maxSize {
		return "", ErrFileTooLarge
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(path))] {
		return "", ErrTypeNotAllowed
	}

	clean := filepath.Clean("/" + path)[1:] // strip traversal attempts
	full := filepath.Join(s.dir, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("media: creating directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return "", fmt.Errorf("media: writing file: %w", err)
	}

	return s.baseURL + "/" + filepath.ToSlash(clean), nil
}

// Delete removes a stored file. Only the owning user (the leading path
// segment) may delete it.
func (s *LocalStore) Delete(path, userID string) error {
	clean := filepath.Clean("/" + path)[1:]
	if !strings.HasPrefix(clean, userID+string(filepath.Separator)) && !strings.HasPrefix(clean, userID+"/") {
		return ErrNotOwner
	}
	if err := os.Remove(filepath.Join(s.dir, clean)); err != nil {
		return fmt.Errorf("media: deleting file: %w", err)
	}
	return nil
}
