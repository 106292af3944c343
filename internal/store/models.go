package store

import (
	"encoding/json"
	"strings"
	"time"
)

// VideoStatus represents the lifecycle of a generated video.
type VideoStatus string

const (
	StatusPending    VideoStatus = "pending"
	StatusProcessing VideoStatus = "processing"
	StatusCompleted  VideoStatus = "completed"
	StatusFailed     VideoStatus = "failed"
)

var allStatuses = []VideoStatus{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[VideoStatus]struct{} {
	set := make(map[VideoStatus]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []VideoStatus {
	cp := make([]VideoStatus, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known VideoStatus.
func ParseStatus(value string) (VideoStatus, bool) {
	normalized := VideoStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Paper represents a discovered or downloaded paper persisted in SQLite.
type Paper struct {
	ID            int64
	PaperID       string
	Title         string
	Authors       []string
	Abstract      string
	URL           string
	PDFURL        string
	PublishedDate string
	Source        string
	LocalPath     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Video represents a generated presentation video keyed by paper identifier.
type Video struct {
	ID              int64
	PaperID         string
	VideoPath       string
	DurationSeconds float64
	SlideCount      int
	Status          VideoStatus
	ErrorMessage    string
	StorageKey      string
	StorageURL      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Summary holds a generated plain-language summary for a paper.
type Summary struct {
	ID        int64
	PaperID   string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AudioSummary holds the spoken rendition of a paper summary.
type AudioSummary struct {
	ID              int64
	PaperID         string
	AudioPath       string
	DurationSeconds float64
	StorageKey      string
	StorageURL      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// QuizQuestion is a single multiple-choice question.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Quiz holds generated quiz questions for a paper.
type Quiz struct {
	ID        int64
	PaperID   string
	Questions []QuizQuestion
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stats describes aggregated video counts per lifecycle state.
type Stats struct {
	Papers     int
	Videos     int
	Processing int
	Completed  int
	Failed     int
}

func marshalAuthors(authors []string) (string, error) {
	if len(authors) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(authors)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalAuthors(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var authors []string
	if err := json.Unmarshal([]byte(raw), &authors); err != nil {
		return nil
	}
	return authors
}
