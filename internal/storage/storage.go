// Package storage uploads generated media and returns public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"seoforge/internal/config"
)

var (
	// ErrNotFound is returned when a download target does not exist
	ErrNotFound = errors.New("object not found")
	// ErrEmptyObject is returned when uploading or downloading zero bytes
	ErrEmptyObject = errors.New("empty object")
)

// MaxDownloadBytes caps Download.
const MaxDownloadBytes = 20 << 20

// ObjectStore uploads bytes under a key and returns their public URL.
type ObjectStore interface {
	Upload(ctx context.Context, data []byte, contentType, key string) (string, error)
}

// New builds the configured store.
func New(ctx context.Context, cfg config.Storage) (ObjectStore, error) {
	switch cfg.Provider {
	case "", "local":
		return NewLocalStore(cfg.Local.Directory, cfg.Local.BaseURL)
	case "gcs":
		return NewGCSStore(ctx, GCSOptions{
			Bucket:          cfg.GCS.Bucket,
			CredentialsFile: cfg.GCS.CredentialsFile,
			PublicBaseURL:   cfg.GCS.PublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}

// Download fetches a remote object, typically an image-service URL that is
// about to be re-hosted. It returns the bytes and their content type.
func Download(ctx context.Context, client *http.Client, url string) ([]byte, string, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, "", fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode != http.StatusOK:
		return nil, "", fmt.Errorf("failed to download %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", url, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: %s", ErrEmptyObject, url)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mt
	}
	return data, contentType, nil
}

// Extension returns the file extension (without dot) for an image content type.
func Extension(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	case "image/svg+xml":
		return "svg"
	default:
		return "png"
	}
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.ReplaceAll(key, "\\", "/"), "/")
	if key == "" {
		return "", errors.New("object key is empty")
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("invalid object key %q", key)
		}
	}
	return key, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
