package storage

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSOptions configures a GCSStore.
type GCSOptions struct {
	Bucket          string
	CredentialsFile string // Empty uses application default credentials
	PublicBaseURL   string // Defaults to https://storage.googleapis.com/<bucket>
}

// GCSStore uploads objects to a Google Cloud Storage bucket.
type GCSStore struct {
	client  *gcs.Client
	bucket  string
	baseURL string
}

// NewGCSStore creates a GCS-backed store.
func NewGCSStore(ctx context.Context, opts GCSOptions) (*GCSStore, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	baseURL := opts.PublicBaseURL
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com/" + opts.Bucket
	}
	return &GCSStore{client: client, bucket: opts.Bucket, baseURL: baseURL}, nil
}

// Upload writes data to the bucket under key.
func (s *GCSStore) Upload(ctx context.Context, data []byte, contentType, key string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyObject
	}
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000, immutable"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write gs://%s/%s: %w", s.bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize gs://%s/%s: %w", s.bucket, key, err)
	}
	return joinURL(s.baseURL, key), nil
}

// Close releases the client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
