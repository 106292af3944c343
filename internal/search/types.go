package search

// Result is a single paper returned by a search backend.
type Result struct {
	PaperID       string   `json:"paper_id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Abstract      string   `json:"abstract"`
	URL           string   `json:"url"`
	PDFURL        string   `json:"pdf_url"`
	PublishedDate string   `json:"published_date"`
	Source        string   `json:"source"`
	Relevance     float64  `json:"relevance"`
}

// Query captures the caller's search intent. Category narrows arXiv results
// to a subject class (e.g. "cs.LG"); backends that have no category concept
// fold it into the free-text query.
type Query struct {
	Text       string
	Category   string
	MaxResults int
}
