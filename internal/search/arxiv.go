package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"scholarcast/internal/services"
)

const arxivSourceName = "arxiv"

// arxivClient queries the arXiv Atom export API.
type arxivClient struct {
	baseURL    string
	httpClient *http.Client
}

func (c *arxivClient) search(ctx context.Context, query Query) ([]Result, error) {
	terms := buildArxivQuery(query)
	if terms == "" {
		return nil, services.Wrap(services.ErrValidation, "search", "arxiv", "empty query", nil)
	}

	params := url.Values{
		"search_query": {terms},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(query.MaxResults)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "search", "arxiv", "create request", err)
	}

	resp, err := doWithRetry(ctx, c.httpClient, req)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "search", "arxiv", "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrFetch, "search", "arxiv", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, services.Wrap(services.ErrParse, "search", "arxiv", "decode atom feed", err)
	}

	total := len(feed.Entries)
	results := make([]Result, 0, total)
	for i, entry := range feed.Entries {
		arxivID := extractArxivID(entry.ID)
		if arxivID == "" {
			continue
		}

		result := Result{
			PaperID:   arxivID,
			Title:     collapseWhitespace(entry.Title),
			Abstract:  collapseWhitespace(entry.Summary),
			URL:       fmt.Sprintf("https://arxiv.org/abs/%s", arxivID),
			PDFURL:    fmt.Sprintf("https://arxiv.org/pdf/%s.pdf", arxivID),
			Source:    arxivSourceName,
			Relevance: positionRelevance(i, total),
		}
		for _, author := range entry.Authors {
			result.Authors = append(result.Authors, strings.TrimSpace(author.Name))
		}
		if published, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			result.PublishedDate = published.Format("2006-01-02")
		}

		results = append(results, result)
	}
	return results, nil
}

// buildArxivQuery constructs the search_query parameter from the query
// fields using arXiv's field-prefix syntax.
func buildArxivQuery(query Query) string {
	var parts []string
	if text := strings.TrimSpace(query.Text); text != "" {
		parts = append(parts, "all:"+strings.Join(strings.Fields(text), "+"))
	}
	if category := strings.TrimSpace(query.Category); category != "" {
		parts = append(parts, "cat:"+category)
	}
	return strings.Join(parts, "+AND+")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" becomes "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

// collapseWhitespace normalizes the newline-wrapped text arXiv returns in
// titles and abstracts.
func collapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// positionRelevance assigns a score from result ordering, 1.0 for the first
// result decaying linearly to 0.1 for the last.
func positionRelevance(index, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(index)/float64(total-1)*0.9
}
