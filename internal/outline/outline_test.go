package outline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"scholarcast/internal/paperload"
)

type stubCompleter struct {
	response string
	err      error
	calls    int
}

func (s *stubCompleter) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testDocument() paperload.Document {
	return paperload.Document{
		FullText: "We study attention mechanisms in transformers. The method uses sparse kernels throughout. Results show a clear improvement on benchmarks.",
		Sections: map[string]string{
			"abstract":   "We study attention mechanisms in transformers at scale.",
			"methods":    "The method uses sparse kernels throughout the network stack.",
			"results":    "Results show a clear improvement on standard benchmarks.",
			"conclusion": "Sparse attention is a practical replacement for dense layers.",
		},
	}
}

const validOutlineResponse = `{"slides": [
	{"title": "Overview", "bullets": ["First point here", "Second point here", "Third point here"]},
	{"title": "Method", "bullets": ["Sparse kernels", "Efficient training", "Scales well", "Low memory"]},
	{"title": "Results", "bullets": ["Better accuracy", "Faster inference", "Open source"]}
]}`

func TestStructureParsesLLMResponse(t *testing.T) {
	client := &stubCompleter{response: validOutlineResponse}
	structurer := NewStructurer(client, 3, nil)

	result := structurer.Structure(context.Background(), "Sparse Attention", testDocument())
	if result.UsedFallback {
		t.Fatal("expected LLM outline, got fallback")
	}
	if len(result.Slides) != 3 {
		t.Fatalf("expected 3 slides, got %d", len(result.Slides))
	}
	if result.Slides[0].Title != "Overview" {
		t.Fatalf("unexpected first slide title: %q", result.Slides[0].Title)
	}
	if len(result.Slides[1].Bullets) != 4 {
		t.Fatalf("expected 4 bullets on slide 2, got %d", len(result.Slides[1].Bullets))
	}
}

func TestStructureFallsBackOnServiceError(t *testing.T) {
	client := &stubCompleter{err: errors.New("service unavailable")}
	structurer := NewStructurer(client, 3, nil)

	result := structurer.Structure(context.Background(), "Sparse Attention", testDocument())
	if !result.UsedFallback {
		t.Fatal("expected fallback outline")
	}
	assertValidOutline(t, result.Slides, 3)
	if result.Slides[0].Title != "Sparse Attention" {
		t.Fatalf("expected paper title on first slide, got %q", result.Slides[0].Title)
	}
}

func TestStructureFallsBackOnUnparseableResponse(t *testing.T) {
	client := &stubCompleter{response: "I could not produce JSON, sorry."}
	structurer := NewStructurer(client, 3, nil)

	result := structurer.Structure(context.Background(), "Paper", testDocument())
	if !result.UsedFallback {
		t.Fatal("expected fallback outline")
	}
	assertValidOutline(t, result.Slides, 3)
}

func TestStructureFallsBackOnWrongSlideCount(t *testing.T) {
	client := &stubCompleter{response: `{"slides": [{"title": "Only one", "bullets": ["a bullet point here"]}]}`}
	structurer := NewStructurer(client, 3, nil)

	result := structurer.Structure(context.Background(), "Paper", testDocument())
	if !result.UsedFallback {
		t.Fatal("expected fallback for short outline")
	}
	assertValidOutline(t, result.Slides, 3)
}

func TestStructureFallbackTotalOnEmptyDocument(t *testing.T) {
	client := &stubCompleter{err: errors.New("down")}
	structurer := NewStructurer(client, 3, nil)

	result := structurer.Structure(context.Background(), "", paperload.Document{Sections: map[string]string{}})
	if !result.UsedFallback {
		t.Fatal("expected fallback outline")
	}
	assertValidOutline(t, result.Slides, 3)
	for _, slide := range result.Slides {
		for _, bullet := range slide.Bullets {
			if strings.TrimSpace(bullet) == "" {
				t.Fatal("fallback produced an empty bullet")
			}
		}
	}
}

func TestNormalizeSlidesTruncatesAndPads(t *testing.T) {
	structurer := NewStructurer(nil, 2, nil)
	slides, err := structurer.normalizeSlides([]Slide{
		{Title: "A", Bullets: []string{"one bullet", "two bullet", "three", "four", "five", "six"}},
		{Title: "B", Bullets: []string{"only one"}},
		{Title: "C", Bullets: []string{"dropped beyond count"}},
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(slides) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(slides))
	}
	if len(slides[0].Bullets) != 5 {
		t.Fatalf("expected bullets capped at 5, got %d", len(slides[0].Bullets))
	}
	if len(slides[1].Bullets) != 3 {
		t.Fatalf("expected bullets padded to 3, got %d", len(slides[1].Bullets))
	}
	if slides[1].Bullets[2] != fillerBullet {
		t.Fatalf("expected filler bullet, got %q", slides[1].Bullets[2])
	}
}

func TestValidFiguresDropsBadEntries(t *testing.T) {
	figures := validFigures([]Figure{
		{Label: "baseline", Value: 71.2},
		{Label: "  ", Value: 80},
		{Label: "ours", Value: 76.4},
	})
	if len(figures) != 2 {
		t.Fatalf("expected 2 figures, got %d", len(figures))
	}
	if figures[1].Label != "ours" {
		t.Fatalf("unexpected figure order: %v", figures)
	}
	if validFigures(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}

func assertValidOutline(t *testing.T, slides []Slide, want int) {
	t.Helper()
	if len(slides) != want {
		t.Fatalf("expected %d slides, got %d", want, len(slides))
	}
	for i, slide := range slides {
		if strings.TrimSpace(slide.Title) == "" {
			t.Fatalf("slide %d has empty title", i)
		}
		if len(slide.Bullets) < minBullets || len(slide.Bullets) > maxBullets {
			t.Fatalf("slide %d has %d bullets", i, len(slide.Bullets))
		}
	}
}
