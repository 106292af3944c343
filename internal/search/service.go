package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"scholarcast/internal/config"
	"scholarcast/internal/logging"
	"scholarcast/internal/services"
	"scholarcast/internal/store"
	"scholarcast/internal/textutil"
)

// Service discovers papers across the configured backends and downloads
// their PDFs into the workspace.
type Service struct {
	arxiv      *arxivClient
	semantic   *semanticClient
	httpClient *http.Client
	store      *store.Store
	papersDir  string
	maxResults int
	logger     *slog.Logger
}

// NewService constructs a search service backed by arXiv and Semantic
// Scholar.
func NewService(cfg *config.Config, st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	httpClient := &http.Client{Timeout: time.Duration(cfg.Search.RequestTimeout) * time.Second}
	return &Service{
		arxiv: &arxivClient{
			baseURL:    cfg.Search.ArxivBaseURL,
			httpClient: httpClient,
		},
		semantic: &semanticClient{
			baseURL:    cfg.Search.SemanticScholarBaseURL,
			apiKey:     cfg.Search.SemanticScholarAPIKey,
			httpClient: httpClient,
		},
		httpClient: httpClient,
		store:      st,
		papersDir:  cfg.PapersDir(),
		maxResults: cfg.Search.MaxResults,
		logger:     logging.NewComponentLogger(logger, "search"),
	}
}

// Search queries both backends, merges the results by paper id, and
// persists every hit. A single backend failing degrades the result set
// rather than failing the search; the error is returned only when no
// backend produced results.
func (s *Service) Search(ctx context.Context, query Query) ([]Result, error) {
	if strings.TrimSpace(query.Text) == "" && strings.TrimSpace(query.Category) == "" {
		return nil, services.Wrap(services.ErrValidation, "search", "query", "query text is required", nil)
	}
	if query.MaxResults <= 0 || query.MaxResults > s.maxResults {
		query.MaxResults = s.maxResults
	}

	arxivResults, arxivErr := s.arxiv.search(ctx, query)
	if arxivErr != nil {
		s.logger.WarnContext(ctx, "arxiv search failed", logging.Error(arxivErr))
	}
	semanticResults, semanticErr := s.semantic.search(ctx, query)
	if semanticErr != nil {
		s.logger.WarnContext(ctx, "semantic scholar search failed", logging.Error(semanticErr))
	}
	if arxivErr != nil && semanticErr != nil {
		return nil, arxivErr
	}

	merged := mergeResults(arxivResults, semanticResults)
	for _, result := range merged {
		if _, err := s.store.UpsertPaper(ctx, paperFromResult(result)); err != nil {
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "search complete",
		logging.String("query", query.Text),
		logging.Int("arxiv_results", len(arxivResults)),
		logging.Int("semantic_results", len(semanticResults)),
		logging.Int("merged_results", len(merged)))
	return merged, nil
}

// DownloadPDF fetches the PDF for a previously searched paper into the
// papers directory and records its location.
func (s *Service) DownloadPDF(ctx context.Context, paperID string) (*store.Paper, error) {
	paper, err := s.store.GetPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if paper == nil {
		return nil, services.Wrap(services.ErrNotFound, "search", "download", fmt.Sprintf("paper %s not found", paperID), nil)
	}
	if paper.LocalPath != "" {
		if _, statErr := os.Stat(paper.LocalPath); statErr == nil {
			return paper, nil
		}
	}
	if paper.PDFURL == "" {
		return nil, services.Wrap(services.ErrPrecondition, "search", "download", fmt.Sprintf("paper %s has no pdf url", paperID), nil)
	}

	destPath := filepath.Join(s.papersDir, sanitizeFilename(paperID)+".pdf")
	if err := s.fetchPDF(ctx, paper.PDFURL, destPath); err != nil {
		return nil, err
	}
	if err := s.store.SetPaperLocalPath(ctx, paperID, destPath); err != nil {
		return nil, err
	}
	paper.LocalPath = destPath

	s.logger.InfoContext(ctx, "pdf downloaded",
		logging.String(logging.FieldPaperID, paperID),
		logging.String("path", destPath))
	return paper, nil
}

func (s *Service) fetchPDF(ctx context.Context, pdfURL string, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return services.Wrap(services.ErrFetch, "search", "download", "create request", err)
	}

	resp, err := doWithRetry(ctx, s.httpClient, req)
	if err != nil {
		return services.Wrap(services.ErrFetch, "search", "download", "fetch pdf", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrFetch, "search", "download", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return services.Wrap(services.ErrStorage, "search", "download", "create papers directory", err)
	}
	tmpPath := destPath + ".partial"
	file, err := os.Create(tmpPath)
	if err != nil {
		return services.Wrap(services.ErrStorage, "search", "download", "create pdf file", err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return services.Wrap(services.ErrFetch, "search", "download", "write pdf", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return services.Wrap(services.ErrStorage, "search", "download", "close pdf file", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return services.Wrap(services.ErrStorage, "search", "download", "finalize pdf file", err)
	}
	return nil
}

// duplicateTitleThreshold is the cosine similarity above which two result
// titles are treated as the same paper listed under different identifiers.
const duplicateTitleThreshold = 0.9

// mergeResults combines backend result sets, deduplicating by paper id and
// by near-identical title (the same paper often carries distinct identifiers
// on arXiv and Semantic Scholar). arXiv entries win ties because they carry
// a canonical PDF URL. The merged set is ordered by relevance.
func mergeResults(primary, secondary []Result) []Result {
	seen := make(map[string]bool, len(primary)+len(secondary))
	titles := make([]*textutil.Fingerprint, 0, len(primary)+len(secondary))
	merged := make([]Result, 0, len(primary)+len(secondary))

	add := func(result Result) {
		if seen[result.PaperID] {
			return
		}
		fp := textutil.NewFingerprint(result.Title)
		for _, existing := range titles {
			if textutil.CosineSimilarity(fp, existing) >= duplicateTitleThreshold {
				return
			}
		}
		seen[result.PaperID] = true
		titles = append(titles, fp)
		result.Title = textutil.NormalizeTitle(result.Title)
		merged = append(merged, result)
	}

	for _, result := range primary {
		add(result)
	}
	for _, result := range secondary {
		add(result)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Relevance > merged[j].Relevance
	})
	return merged
}

func paperFromResult(result Result) *store.Paper {
	return &store.Paper{
		PaperID:       result.PaperID,
		Title:         result.Title,
		Authors:       result.Authors,
		Abstract:      result.Abstract,
		URL:           result.URL,
		PDFURL:        result.PDFURL,
		PublishedDate: result.PublishedDate,
		Source:        result.Source,
	}
}

func sanitizeFilename(value string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_")
	return replacer.Replace(value)
}
