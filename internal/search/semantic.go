package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"scholarcast/internal/services"
)

const (
	semanticSourceName = "semantic_scholar"
	semanticFields     = "title,abstract,authors,externalIds,url,openAccessPdf,publicationDate,year"
)

// semanticClient queries the Semantic Scholar graph API.
type semanticClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func (c *semanticClient) search(ctx context.Context, query Query) ([]Result, error) {
	text := strings.TrimSpace(query.Text)
	if query.Category != "" {
		text = strings.TrimSpace(text + " " + query.Category)
	}
	if text == "" {
		return nil, services.Wrap(services.ErrValidation, "search", "semantic_scholar", "empty query", nil)
	}

	params := url.Values{
		"query":  {text},
		"limit":  {strconv.Itoa(query.MaxResults)},
		"fields": {semanticFields},
	}
	reqURL := c.baseURL + "/paper/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "search", "semantic_scholar", "create request", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := doWithRetry(ctx, c.httpClient, req)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "search", "semantic_scholar", "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrFetch, "search", "semantic_scholar", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var payload semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrParse, "search", "semantic_scholar", "decode response", err)
	}

	total := len(payload.Data)
	results := make([]Result, 0, total)
	for i, paper := range payload.Data {
		result := Result{
			Title:     strings.TrimSpace(paper.Title),
			Abstract:  strings.TrimSpace(paper.Abstract),
			URL:       paper.URL,
			Source:    semanticSourceName,
			Relevance: positionRelevance(i, total),
		}
		for _, author := range paper.Authors {
			result.Authors = append(result.Authors, author.Name)
		}
		if paper.PublicationDate != "" {
			result.PublishedDate = paper.PublicationDate
		} else if paper.Year > 0 {
			result.PublishedDate = fmt.Sprintf("%d-01-01", paper.Year)
		}

		// Prefer the arXiv identifier so both backends converge on the
		// same paper id, then DOI, then the Semantic Scholar corpus id.
		switch {
		case paper.ExternalIDs.ArXiv != "":
			result.PaperID = paper.ExternalIDs.ArXiv
			result.PDFURL = fmt.Sprintf("https://arxiv.org/pdf/%s.pdf", paper.ExternalIDs.ArXiv)
		case paper.ExternalIDs.DOI != "":
			result.PaperID = paper.ExternalIDs.DOI
		default:
			result.PaperID = paper.PaperID
		}
		if paper.OpenAccessPDF.URL != "" {
			result.PDFURL = paper.OpenAccessPDF.URL
		}
		if result.PaperID == "" {
			continue
		}

		results = append(results, result)
	}
	return results, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	URL             string              `json:"url"`
	Year            int                 `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
	OpenAccessPDF   semanticOpenAccess  `json:"openAccessPdf"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

type semanticOpenAccess struct {
	URL string `json:"url"`
}
