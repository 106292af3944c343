package api

import (
	"scholarcast/internal/digest"
	"scholarcast/internal/search"
	"scholarcast/internal/store"
)

// SearchRequest is the payload for POST /api/papers/search.
type SearchRequest struct {
	Query      string `json:"query"`
	Category   string `json:"category,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// SearchResponse lists papers matching a search query, best match first.
type SearchResponse struct {
	Results []search.Result `json:"results"`
}

// GenerateRequest is the payload for POST /api/videos.
type GenerateRequest struct {
	PaperID         string `json:"paper_id"`
	ForceRegenerate bool   `json:"force_regenerate,omitempty"`
}

// AudioSummaryRequest is the optional payload for POST /api/papers/{id}/tts.
type AudioSummaryRequest struct {
	ForceRegenerate bool `json:"force_regenerate,omitempty"`
}

// Paper is the wire form of a stored paper record.
type Paper struct {
	PaperID       string   `json:"paper_id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors,omitempty"`
	Abstract      string   `json:"abstract,omitempty"`
	URL           string   `json:"url,omitempty"`
	PDFURL        string   `json:"pdf_url,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Source        string   `json:"source,omitempty"`
	Downloaded    bool     `json:"downloaded"`
}

// PaperListResponse lists stored papers.
type PaperListResponse struct {
	Papers []Paper `json:"papers"`
}

// SummaryResponse wraps a generated paper summary.
type SummaryResponse struct {
	PaperID string         `json:"paper_id"`
	Summary digest.Summary `json:"summary"`
}

// QuizResponse wraps a generated multiple-choice quiz.
type QuizResponse struct {
	PaperID   string               `json:"paper_id"`
	Questions []store.QuizQuestion `json:"questions"`
}

// StatusResponse reports aggregate paper and video counts.
type StatusResponse struct {
	Papers     int `json:"papers"`
	Videos     int `json:"videos"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

func fromStorePaper(paper *store.Paper) Paper {
	return Paper{
		PaperID:       paper.PaperID,
		Title:         paper.Title,
		Authors:       paper.Authors,
		Abstract:      paper.Abstract,
		URL:           paper.URL,
		PDFURL:        paper.PDFURL,
		PublishedDate: paper.PublishedDate,
		Source:        paper.Source,
		Downloaded:    paper.LocalPath != "",
	}
}
