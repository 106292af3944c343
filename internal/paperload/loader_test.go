package paperload

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scholarcast/internal/services"
)

func TestLoadRejectsEmptySource(t *testing.T) {
	loader := NewLoader(time.Second, 2000, nil)
	_, err := loader.Load(context.Background(), "  ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadReportsFetchErrorOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	loader := NewLoader(time.Second, 2000, nil)
	_, err := loader.Load(context.Background(), server.URL+"/missing.pdf")
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestLoadReportsParseErrorOnGarbage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("this is not a pdf"))
	}))
	defer server.Close()

	loader := NewLoader(time.Second, 2000, nil)
	_, err := loader.Load(context.Background(), server.URL+"/garbage.pdf")
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoadReportsFetchErrorOnMissingLocalFile(t *testing.T) {
	loader := NewLoader(time.Second, 2000, nil)
	_, err := loader.Load(context.Background(), "/nonexistent/paper.pdf")
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestSplitSectionsLocatesHeaders(t *testing.T) {
	text := "Paper Title\n" +
		"Abstract\nWe study things.\n" +
		"1. Introduction\nDeep learning is popular.\n" +
		"2. Methods\nWe used a model.\n" +
		"3. Results\nIt worked.\n" +
		"4. Conclusion\nThings were studied.\n"

	sections := splitSections(text, 2000)
	for _, name := range []string{"abstract", "introduction", "methods", "results", "conclusion"} {
		if sections[name] == "" {
			t.Errorf("expected %q section to be located, got %v", name, sections)
		}
	}
	if !strings.Contains(sections["abstract"], "We study things.") {
		t.Fatalf("unexpected abstract: %q", sections["abstract"])
	}
	if strings.Contains(sections["abstract"], "Introduction") {
		t.Fatalf("abstract should end at the next header: %q", sections["abstract"])
	}
}

func TestSplitSectionsCapsLength(t *testing.T) {
	text := "Abstract\n" + strings.Repeat("x", 5000)
	sections := splitSections(text, 100)
	if len(sections["abstract"]) != 100 {
		t.Fatalf("expected capped section of 100 chars, got %d", len(sections["abstract"]))
	}
}

func TestSplitSectionsWithoutHeaders(t *testing.T) {
	sections := splitSections("no recognizable structure here", 2000)
	if len(sections) != 0 {
		t.Fatalf("expected no sections, got %v", sections)
	}
}

func TestSplitSectionsIgnoresMidSentenceKeywords(t *testing.T) {
	text := "This paper gives an introduction to methods of study.\nAbstract\nActual abstract text."
	sections := splitSections(text, 2000)
	if _, ok := sections["introduction"]; ok {
		t.Fatal("mid-sentence keyword should not open a section")
	}
	if !strings.Contains(sections["abstract"], "Actual abstract text.") {
		t.Fatalf("expected abstract section, got %v", sections)
	}
}
