package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"seoforge/internal/config"
	"seoforge/internal/core"
	"seoforge/internal/persistence"
	"seoforge/internal/pipeline"
)

type fakeStore struct {
	pingErr error
	saved   map[string]core.GeneratedArticle
	saveErr error
	pubs    map[string]string
	pubErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: map[string]core.GeneratedArticle{}, pubs: map[string]string{}}
}

func (f *fakeStore) SaveGeneratedArticle(ctx context.Context, articleID string, article core.GeneratedArticle, images []core.GeneratedImage) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[articleID] = article
	return nil
}

func (f *fakeStore) RecordPublication(ctx context.Context, articleID, url string, publishedAt time.Time) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.pubs[articleID] = url
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

type fakeGenerator struct {
	report *pipeline.RunReport
	err    error
}

func (f *fakeGenerator) Run(ctx context.Context, articleID string) (*pipeline.RunReport, error) {
	return f.report, f.err
}

func sampleReport() *pipeline.RunReport {
	start := time.Now()
	return &pipeline.RunReport{
		Article: core.GeneratedArticle{
			Title:   "CRM Guide",
			Content: "## Pricing\n\nPlans start at $10.",
			Slug:    "crm-guide",
		},
		Images: []core.GeneratedImage{{URL: "https://cdn.test/0-hero.png", Type: core.ImageTypeHero, Placement: "hero"}},
		Stats: pipeline.Stats{
			RunID:               "run-1",
			CompetitorsAnalyzed: 2,
			Degraded:            []pipeline.StageID{pipeline.StageFetchCompetitors},
			StartTime:           start,
			EndTime:             start.Add(3 * time.Second),
		},
	}
}

func do(t *testing.T, s *Server, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleGenerate(t *testing.T) {
	store := newFakeStore()
	s := New(store, &fakeGenerator{report: sampleReport()}, config.Server{})

	rec := do(t, s, http.MethodPost, "/api/articles/art-1/generate?format=html", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp GenerateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ArticleID != "art-1" || resp.RunID != "run-1" || resp.Slug != "crm-guide" {
		t.Errorf("unexpected response identity: %+v", resp)
	}
	if !strings.Contains(resp.HTML, "<h2") {
		t.Errorf("html = %q, want rendered heading", resp.HTML)
	}
	if resp.Stats.DurationMs != 3000 || resp.Stats.CompetitorsAnalyzed != 2 {
		t.Errorf("stats = %+v", resp.Stats)
	}
	if len(resp.Stats.DegradedStages) != 1 || resp.Stats.DegradedStages[0] != "fetch_competitors" {
		t.Errorf("degraded = %v", resp.Stats.DegradedStages)
	}
	if store.saved["art-1"].Title != "CRM Guide" {
		t.Error("generated article was not saved")
	}
}

func TestHandleGenerateErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantStage string
	}{
		{
			name:      "not found",
			err:       &pipeline.StageError{Stage: pipeline.StageLoadArticle, Err: fmt.Errorf("%w: art-1", persistence.ErrArticleNotFound)},
			wantCode:  http.StatusNotFound,
			wantStage: "load_article",
		},
		{
			name:      "invalid request",
			err:       &pipeline.StageError{Stage: pipeline.StageLoadArticle, Err: core.ErrInvalidRequest},
			wantCode:  http.StatusUnprocessableEntity,
			wantStage: "load_article",
		},
		{
			name:      "content failed",
			err:       &pipeline.StageError{Stage: pipeline.StageGenerateContent, Err: errors.New("model refused")},
			wantCode:  http.StatusBadGateway,
			wantStage: "generate_content",
		},
		{
			name:      "timeout",
			err:       &pipeline.StageError{Stage: pipeline.StageGenerateContent, Err: context.DeadlineExceeded},
			wantCode:  http.StatusGatewayTimeout,
			wantStage: "generate_content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			s := New(store, &fakeGenerator{err: tt.err}, config.Server{})

			rec := do(t, s, http.MethodPost, "/api/articles/art-1/generate", "", nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			var resp errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Stage != tt.wantStage {
				t.Errorf("stage = %q, want %q", resp.Stage, tt.wantStage)
			}
			if len(store.saved) != 0 {
				t.Error("nothing should be saved on failure")
			}
		})
	}
}

func TestHandleGenerateSaveFailure(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("disk full")
	s := New(store, &fakeGenerator{report: sampleReport()}, config.Server{})

	rec := do(t, s, http.MethodPost, "/api/articles/art-1/generate", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHandlePublication(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		pubErr   error
		wantCode int
	}{
		{name: "ok", body: `{"url":"https://acme.test/blog/crm"}`, wantCode: http.StatusNoContent},
		{name: "relative url", body: `{"url":"/blog/crm"}`, wantCode: http.StatusBadRequest},
		{name: "bad json", body: `{`, wantCode: http.StatusBadRequest},
		{name: "unknown article", body: `{"url":"https://acme.test/x"}`, pubErr: persistence.ErrArticleNotFound, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.pubErr = tt.pubErr
			s := New(store, &fakeGenerator{}, config.Server{})

			rec := do(t, s, http.MethodPost, "/api/articles/art-1/publications", tt.body, map[string]string{"Content-Type": "application/json"})
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func TestHealth(t *testing.T) {
	store := newFakeStore()
	s := New(store, &fakeGenerator{}, config.Server{})
	if rec := do(t, s, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	store.pingErr = errors.New("connection refused")
	if rec := do(t, s, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestAPIKey(t *testing.T) {
	s := New(newFakeStore(), &fakeGenerator{report: sampleReport()}, config.Server{}, WithAPIKey("secret"))

	if rec := do(t, s, http.MethodPost, "/api/articles/art-1/generate", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key: status = %d, want 401", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/articles/art-1/generate", "", map[string]string{"Authorization": "Bearer nope"}); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/articles/art-1/generate", "", map[string]string{"Authorization": "Bearer secret"}); rec.Code != http.StatusOK {
		t.Errorf("valid key: status = %d, want 200", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Errorf("health should not need a key, status = %d", rec.Code)
	}
}

func TestMedia(t *testing.T) {
	media := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, r.URL.Path)
	})
	s := New(newFakeStore(), &fakeGenerator{}, config.Server{}, WithMedia(media))

	rec := do(t, s, http.MethodGet, "/media/articles/a1/0-hero.png", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "/articles/a1/0-hero.png" {
		t.Errorf("media handler saw %q", got)
	}
	if !strings.Contains(rec.Header().Get("Cache-Control"), "immutable") {
		t.Error("media responses should be cacheable")
	}
}
