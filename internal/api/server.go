package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"scholarcast/internal/config"
	"scholarcast/internal/digest"
	"scholarcast/internal/logging"
	"scholarcast/internal/pipeline"
	"scholarcast/internal/search"
	"scholarcast/internal/services"
	"scholarcast/internal/store"
)

const maxRequestBody = 1 << 20

// Server exposes the paper and video services over HTTP.
type Server struct {
	bind           string
	token          string
	requestTimeout time.Duration
	logger         *slog.Logger

	store    *store.Store
	search   *search.Service
	digest   *digest.Service
	audio    *digest.AudioSummarizer
	pipeline *pipeline.Pipeline

	listener net.Listener
	server   *http.Server
}

// NewServer builds the HTTP server. Returns nil when no bind address is
// configured, so callers can skip serving entirely.
func NewServer(cfg *config.Config, st *store.Store, searchSvc *search.Service, digestSvc *digest.Service, audioSvc *digest.AudioSummarizer, pipe *pipeline.Pipeline, logger *slog.Logger) *Server {
	if cfg == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.Server.Bind)
	if bind == "" {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	srv := &Server{
		bind:           bind,
		token:          strings.TrimSpace(cfg.Server.APIToken),
		requestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		logger:         logging.NewComponentLogger(logger, "api-server"),
		store:          st,
		search:         searchSvc,
		digest:         digestSvc,
		audio:          audioSvc,
		pipeline:       pipe,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.wrap(srv.handleStatus))
	mux.HandleFunc("/api/papers/search", srv.wrap(srv.handleSearch))
	mux.HandleFunc("/api/papers", srv.wrap(srv.handlePapers))
	mux.HandleFunc("/api/papers/", srv.wrap(srv.handlePaperResource))
	mux.HandleFunc("/api/videos", srv.wrap(srv.handleVideos))
	mux.HandleFunc("/api/videos/", srv.wrap(srv.handleVideoResource))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// Start begins serving. The server shuts down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

// Addr reports the bound listen address, useful when bind uses port 0.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler exposes the routing for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// wrap applies bearer auth, request correlation, and the configured request
// timeout around a handler.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.token {
				s.writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}

		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := services.WithRequestID(r.Context(), requestID)
		if s.requestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
			defer cancel()
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StatusResponse{
		Papers:     stats.Papers,
		Videos:     stats.Videos,
		Processing: stats.Processing,
		Completed:  stats.Completed,
		Failed:     stats.Failed,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	results, err := s.search.Search(r.Context(), search.Query{
		Text:       req.Query,
		Category:   req.Category,
		MaxResults: req.MaxResults,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

func (s *Server) handlePapers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	papers, err := s.store.ListPapers(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]Paper, 0, len(papers))
	for _, paper := range papers {
		out = append(out, fromStorePaper(paper))
	}
	s.writeJSON(w, http.StatusOK, PaperListResponse{Papers: out})
}

// handlePaperResource routes /api/papers/{id} and its download, summary,
// quiz, and tts sub-resources. Paper ids may contain slashes (legacy arXiv
// ids), so the action is split off the end of the path.
func (s *Server) handlePaperResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/papers/"), "/")
	if rest == "" {
		s.writeError(w, http.StatusNotFound, "paper not found")
		return
	}

	paperID := rest
	action := ""
	if idx := strings.LastIndex(rest, "/"); idx >= 0 {
		switch rest[idx+1:] {
		case "download", "summary", "quiz", "tts":
			paperID, action = rest[:idx], rest[idx+1:]
		}
	}

	switch action {
	case "":
		s.handleGetPaper(w, r, paperID)
	case "download":
		s.handleDownload(w, r, paperID)
	case "summary":
		s.handleSummary(w, r, paperID)
	case "quiz":
		s.handleQuiz(w, r, paperID)
	case "tts":
		s.handleAudioSummary(w, r, paperID)
	}
}

func (s *Server) handleGetPaper(w http.ResponseWriter, r *http.Request, paperID string) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	paper, err := s.store.GetPaper(r.Context(), paperID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if paper == nil {
		s.writeError(w, http.StatusNotFound, "paper not found")
		return
	}
	s.writeJSON(w, http.StatusOK, fromStorePaper(paper))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request, paperID string) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	paper, err := s.search.DownloadPDF(r.Context(), paperID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fromStorePaper(paper))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, paperID string) {
	var (
		summary *digest.Summary
		err     error
	)
	switch r.Method {
	case http.MethodPost:
		summary, err = s.digest.GenerateSummary(r.Context(), paperID)
	case http.MethodGet:
		summary, err = s.digest.GetSummary(r.Context(), paperID)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SummaryResponse{PaperID: paperID, Summary: *summary})
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request, paperID string) {
	var (
		quiz *store.Quiz
		err  error
	)
	switch r.Method {
	case http.MethodPost:
		quiz, err = s.digest.GenerateQuiz(r.Context(), paperID)
	case http.MethodGet:
		quiz, err = s.digest.GetQuiz(r.Context(), paperID)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, QuizResponse{PaperID: paperID, Questions: quiz.Questions})
}

func (s *Server) handleAudioSummary(w http.ResponseWriter, r *http.Request, paperID string) {
	switch r.Method {
	case http.MethodPost:
		var req AudioSummaryRequest
		if r.ContentLength != 0 && !s.decode(w, r, &req) {
			return
		}
		artifact, err := s.audio.Generate(r.Context(), paperID, req.ForceRegenerate)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, artifact)
	case http.MethodGet:
		artifact, err := s.audio.Get(r.Context(), paperID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, artifact)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req GenerateRequest
	if !s.decode(w, r, &req) {
		return
	}
	artifact, err := s.pipeline.Generate(r.Context(), req.PaperID, req.ForceRegenerate)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, artifact)
}

// handleVideoResource routes /api/videos/{id} and /api/videos/{id}/stream.
func (s *Server) handleVideoResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/videos/"), "/")
	if rest == "" {
		s.writeError(w, http.StatusNotFound, "video not found")
		return
	}

	paperID := rest
	stream := false
	if strings.HasSuffix(rest, "/stream") {
		paperID = strings.TrimSuffix(rest, "/stream")
		stream = true
	}

	artifact, err := s.pipeline.GetArtifact(r.Context(), paperID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !stream {
		s.writeJSON(w, http.StatusOK, artifact)
		return
	}

	target := artifact.PresignedURL
	if target == "" {
		target = artifact.ArtifactURL
	}
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	http.ServeFile(w, r, target)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", logging.Error(err))
	}
	s.writeError(w, status, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
