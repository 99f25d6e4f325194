package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"seoforge/internal/core"
	"seoforge/internal/markdown"
	"seoforge/internal/persistence"
	"seoforge/internal/pipeline"
)

// HealthResponse is returned by /healthz
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// GenerateResponse is returned by POST /api/articles/{id}/generate
type GenerateResponse struct {
	ArticleID       string                `json:"article_id"`
	RunID           string                `json:"run_id"`
	Title           string                `json:"title"`
	Slug            string                `json:"slug"`
	MetaDescription string                `json:"meta_description"`
	Content         string                `json:"content"`
	HTML            string                `json:"html,omitempty"`
	Images          []core.GeneratedImage `json:"images"`
	Stats           StatsResponse         `json:"stats"`
}

// StatsResponse summarizes a run
type StatsResponse struct {
	DurationMs           int64    `json:"duration_ms"`
	CompetitorsAnalyzed  int      `json:"competitors_analyzed"`
	CompetitorsAttempted int      `json:"competitors_attempted"`
	LinksEmbedded        int      `json:"links_embedded"`
	ImagesGenerated      int      `json:"images_generated"`
	ImagesPlanned        int      `json:"images_planned"`
	WordCount            int      `json:"word_count"`
	DegradedStages       []string `json:"degraded_stages"`
	QualityWarnings      []string `json:"quality_warnings"`
}

// PublicationRequest is the body of POST /api/articles/{id}/publications
type PublicationRequest struct {
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

var serverStartTime = time.Now()

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"uptime": time.Since(serverStartTime).Round(time.Second).String()}

	if err := s.store.Ping(r.Context()); err != nil {
		checks["database"] = "error"
		s.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Checks: checks})
		return
	}
	checks["database"] = "ok"
	s.respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Checks: checks})
}

// handleGenerate runs the pipeline and stores the result. ?format=html adds
// a rendered copy of the body.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "id")

	report, err := s.generator.Run(r.Context(), articleID)
	if err != nil {
		s.respondPipelineError(w, articleID, err)
		return
	}

	// The client may go away during a long run; the article is still saved.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 10*time.Second)
	defer cancel()
	if err := s.store.SaveGeneratedArticle(saveCtx, articleID, report.Article, report.Images); err != nil {
		s.log.Error().Err(err).Str("article_id", articleID).Msg("Failed to save generated article")
		s.respondError(w, http.StatusInternalServerError, "failed to save generated article")
		return
	}

	resp := GenerateResponse{
		ArticleID:       articleID,
		RunID:           report.Stats.RunID,
		Title:           report.Article.Title,
		Slug:            report.Article.Slug,
		MetaDescription: report.Article.MetaDescription,
		Content:         report.Article.Content,
		Images:          report.Images,
		Stats:           statsResponse(report.Stats),
	}
	if r.URL.Query().Get("format") == "html" {
		html, err := markdown.ToHTML(report.Article.Content)
		if err != nil {
			s.log.Warn().Err(err).Str("article_id", articleID).Msg("Failed to render HTML")
		}
		resp.HTML = html
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePublication(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "id")

	var req PublicationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	u, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		s.respondError(w, http.StatusBadRequest, "url must be an absolute http(s) URL")
		return
	}

	if err := s.store.RecordPublication(r.Context(), articleID, u.String(), req.PublishedAt); err != nil {
		if errors.Is(err, persistence.ErrArticleNotFound) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.log.Error().Err(err).Str("article_id", articleID).Msg("Failed to record publication")
		s.respondError(w, http.StatusInternalServerError, "failed to record publication")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondPipelineError(w http.ResponseWriter, articleID string, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, persistence.ErrArticleNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInvalidRequest):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// Client closed the request
		status = 499
	}

	resp := errorResponse{Error: err.Error()}
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		resp.Stage = string(stageErr.Stage)
	}
	s.log.Error().Err(err).Str("article_id", articleID).Str("stage", resp.Stage).Int("status", status).Msg("Article generation failed")
	s.respondJSON(w, status, resp)
}

func statsResponse(st pipeline.Stats) StatsResponse {
	degraded := make([]string, 0, len(st.Degraded))
	for _, id := range st.Degraded {
		degraded = append(degraded, string(id))
	}
	warnings := st.QualityWarnings
	if warnings == nil {
		warnings = []string{}
	}
	return StatsResponse{
		DurationMs:           st.Duration().Milliseconds(),
		CompetitorsAnalyzed:  st.CompetitorsAnalyzed,
		CompetitorsAttempted: st.CompetitorsAttempted,
		LinksEmbedded:        st.LinksEmbedded,
		ImagesGenerated:      st.ImagesGenerated,
		ImagesPlanned:        st.ImagesPlanned,
		WordCount:            st.WordCount,
		DegradedStages:       degraded,
		QualityWarnings:      warnings,
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}
