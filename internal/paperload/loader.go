package paperload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"scholarcast/internal/logging"
	"scholarcast/internal/services"
)

// Document is the extracted content of a paper.
type Document struct {
	FullText string
	Sections map[string]string
}

// Loader fetches paper PDFs and extracts their text.
type Loader struct {
	httpClient       *http.Client
	sectionCharLimit int
	logger           *slog.Logger
}

// NewLoader constructs a paper loader. sectionCharLimit caps the length of
// each located section.
func NewLoader(timeout time.Duration, sectionCharLimit int, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = logging.NewNop()
	}
	if sectionCharLimit <= 0 {
		sectionCharLimit = 2000
	}
	return &Loader{
		httpClient:       &http.Client{Timeout: timeout},
		sectionCharLimit: sectionCharLimit,
		logger:           logging.NewComponentLogger(logger, "paperload"),
	}
}

// Load reads the PDF at source, which is either a local path or an http(s)
// URL, and returns the extracted document. A single failed attempt aborts
// the stage; transport retries belong to the layer that downloaded the
// paper in the first place.
func (l *Loader) Load(ctx context.Context, source string) (Document, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Document{}, services.Wrap(services.ErrValidation, "load", "source", "empty source", nil)
	}

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = l.fetch(ctx, source)
	} else {
		data, err = os.ReadFile(source)
		if err != nil {
			err = services.Wrap(services.ErrFetch, "load", "read", fmt.Sprintf("read %s", source), err)
		}
	}
	if err != nil {
		return Document{}, err
	}

	text, err := extractText(data)
	if err != nil {
		return Document{}, services.Wrap(services.ErrParse, "load", "extract", "extract pdf text", err)
	}
	if strings.TrimSpace(text) == "" {
		return Document{}, services.Wrap(services.ErrParse, "load", "extract", "pdf produced no text", nil)
	}

	doc := Document{
		FullText: text,
		Sections: splitSections(text, l.sectionCharLimit),
	}
	l.logger.InfoContext(ctx, "paper loaded",
		logging.Int("text_chars", len(doc.FullText)),
		logging.Int("sections", len(doc.Sections)))
	return doc, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "load", "fetch", "create request", err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "load", "fetch", fmt.Sprintf("fetch %s", url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrFetch, "load", "fetch", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "load", "fetch", "read response body", err)
	}
	return data, nil
}

// extractText turns PDF bytes into concatenated page text.
func extractText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty pdf content")
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, textReader); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sectionHeaders are matched in order; later headers terminate the section
// opened by an earlier one.
var sectionHeaders = []string{"abstract", "introduction", "methods", "results", "conclusion"}

// splitSections locates conventional paper sections by header keyword. The
// heuristic is deliberately loose: headers are matched case-insensitively at
// line starts, each section runs until the next recognized header, and each
// is capped at charLimit characters. Papers without recognizable headers
// yield an empty map.
func splitSections(text string, charLimit int) map[string]string {
	lower := strings.ToLower(text)

	type mark struct {
		name  string
		start int
	}
	var marks []mark
	for _, header := range sectionHeaders {
		idx := indexAtLineStart(lower, header)
		if idx < 0 {
			continue
		}
		marks = append(marks, mark{name: header, start: idx})
	}
	if len(marks) == 0 {
		return map[string]string{}
	}

	// Order by position in the document, not header list order.
	for i := 0; i < len(marks); i++ {
		for j := i + 1; j < len(marks); j++ {
			if marks[j].start < marks[i].start {
				marks[i], marks[j] = marks[j], marks[i]
			}
		}
	}

	sections := make(map[string]string, len(marks))
	for i, m := range marks {
		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1].start
		}
		body := strings.TrimSpace(text[m.start+len(m.name) : end])
		if len(body) > charLimit {
			body = body[:charLimit]
		}
		if body != "" {
			sections[m.name] = body
		}
	}
	return sections
}

// indexAtLineStart finds the first occurrence of keyword at the start of a
// line, tolerating a numeric prefix like "1. Introduction".
func indexAtLineStart(lower, keyword string) int {
	offset := 0
	for {
		idx := strings.Index(lower[offset:], keyword)
		if idx < 0 {
			return -1
		}
		abs := offset + idx
		if atLineStart(lower, abs) {
			return abs
		}
		offset = abs + len(keyword)
	}
}

func atLineStart(text string, idx int) bool {
	i := idx - 1
	for i >= 0 {
		switch text[i] {
		case '\n':
			return true
		case ' ', '\t', '.', ')':
			i--
		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			i--
		default:
			return false
		}
	}
	return true
}
