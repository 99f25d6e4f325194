package storage

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// LocalStore writes objects below a directory and serves them from BaseURL.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the directory if needed.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("local storage directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: baseURL}, nil
}

// Upload writes data to dir/key.
func (s *LocalStore) Upload(ctx context.Context, data []byte, contentType, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyObject
	}
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save object: %w", err)
	}

	if s.baseURL == "" {
		return "file://" + filepath.ToSlash(path), nil
	}
	return joinURL(s.baseURL, key), nil
}

// Handler serves stored objects; mount it under the BaseURL path.
func (s *LocalStore) Handler() http.Handler {
	return http.FileServer(http.Dir(s.dir))
}
