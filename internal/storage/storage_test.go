package storage

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"seoforge/internal/config"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func TestLocalStoreUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost:8080/media/")
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	url, err := store.Upload(context.Background(), pngHeader, "image/png", "articles/a1/0-hero-x.png")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if url != "http://localhost:8080/media/articles/a1/0-hero-x.png" {
		t.Errorf("unexpected url %s", url)
	}
	got, err := os.ReadFile(filepath.Join(dir, "articles", "a1", "0-hero-x.png"))
	if err != nil {
		t.Fatalf("file not written: %v", err)
	}
	if !bytes.Equal(got, pngHeader) {
		t.Error("file content mismatch")
	}

	srv := httptest.NewServer(http.StripPrefix("/media/", store.Handler()))
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/media/articles/a1/0-hero-x.png")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 from handler, got %d", resp.StatusCode)
	}
}

func TestLocalStoreRejects(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Upload(ctx, nil, "image/png", "a.png"); !errors.Is(err, ErrEmptyObject) {
		t.Errorf("Expected ErrEmptyObject, got %v", err)
	}
	if _, err := store.Upload(ctx, pngHeader, "image/png", "../escape.png"); err == nil {
		t.Error("Expected path traversal to be rejected")
	}
	url, err := store.Upload(ctx, pngHeader, "image/png", "/lead.png")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if filepath.Base(url) != "lead.png" || url[:7] != "file://" {
		t.Errorf("unexpected file url %s", url)
	}
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/img.png":
			w.Header().Set("Content-Type", "image/png; charset=binary")
			_, _ = w.Write(pngHeader)
		case "/sniff":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(pngHeader)
		case "/empty":
		case "/boom":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	data, ct, err := Download(ctx, srv.Client(), srv.URL+"/img.png")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if ct != "image/png" || !bytes.Equal(data, pngHeader) {
		t.Errorf("unexpected download: %s %q", ct, data)
	}

	if _, ct, _ := Download(ctx, srv.Client(), srv.URL+"/sniff"); ct != "image/png" {
		t.Errorf("Expected sniffed image/png, got %s", ct)
	}
	if _, _, err := Download(ctx, srv.Client(), srv.URL+"/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, _, err := Download(ctx, srv.Client(), srv.URL+"/empty"); !errors.Is(err, ErrEmptyObject) {
		t.Errorf("Expected ErrEmptyObject, got %v", err)
	}
	if _, _, err := Download(ctx, srv.Client(), srv.URL+"/boom"); err == nil {
		t.Error("Expected error on 500")
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	store, err := New(ctx, config.Storage{Provider: "local", Local: config.LocalStorage{Directory: t.TempDir()}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := store.(*LocalStore); !ok {
		t.Errorf("Expected *LocalStore, got %T", store)
	}
	if _, err := New(ctx, config.Storage{Provider: "s3"}); err == nil {
		t.Error("Expected unsupported provider error")
	}
	if _, err := New(ctx, config.Storage{Provider: "gcs"}); err == nil {
		t.Error("Expected missing bucket error")
	}
}

func TestExtension(t *testing.T) {
	for ct, want := range map[string]string{"image/jpeg": "jpg", "image/webp": "webp", "": "png", "IMAGE/PNG": "png"} {
		if got := Extension(ct); got != want {
			t.Errorf("Extension(%q) = %s, want %s", ct, got, want)
		}
	}
}
