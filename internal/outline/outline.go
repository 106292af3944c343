package outline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"scholarcast/internal/logging"
	"scholarcast/internal/paperload"
	"scholarcast/internal/services/llm"
)

// Slide is one rendered presentation slide.
type Slide struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
	Figures []Figure `json:"figures,omitempty"`
}

// Figure is a labeled numeric value the structurer pulled from the paper,
// rendered as a bar chart on the slide when present.
type Figure struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Result carries the structured slides plus whether the deterministic
// fallback produced them.
type Result struct {
	Slides       []Slide
	UsedFallback bool
}

// fillerBullet pads slides that come up short of the minimum bullet count.
const fillerBullet = "This slide contains important information from the research paper."

const (
	minBullets = 3
	maxBullets = 5
)

// Completer is the LLM surface the structurer needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Structurer turns extracted paper text into a fixed-length slide outline.
type Structurer struct {
	client     Completer
	slideCount int
	logger     *slog.Logger
}

// NewStructurer constructs a structurer producing slideCount slides per
// paper.
func NewStructurer(client Completer, slideCount int, logger *slog.Logger) *Structurer {
	if slideCount <= 0 {
		slideCount = 3
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Structurer{
		client:     client,
		slideCount: slideCount,
		logger:     logging.NewComponentLogger(logger, "outline"),
	}
}

const structureSystemPrompt = "You are an expert at summarizing academic papers into presentation slides. " +
	"Respond with a JSON object of the form {\"slides\": [{\"title\": string, \"bullets\": [string], " +
	"\"figures\": [{\"label\": string, \"value\": number}]}]}. The figures array is optional and should only " +
	"carry comparable numeric results from the paper. Do not include any other keys or commentary."

// Structure produces the slide outline for a document. This stage cannot
// fail outward: any LLM or parse failure degrades to a deterministic
// outline built from the document's located sections.
func (s *Structurer) Structure(ctx context.Context, title string, doc paperload.Document) Result {
	slides, err := s.structureWithLLM(ctx, title, doc)
	if err == nil {
		return Result{Slides: slides}
	}

	s.logger.WarnContext(ctx, "slide structuring degraded to fallback",
		logging.String(logging.FieldEventType, "generation_degraded"),
		logging.Error(err))
	return Result{Slides: s.fallbackSlides(title, doc), UsedFallback: true}
}

func (s *Structurer) structureWithLLM(ctx context.Context, title string, doc paperload.Document) ([]Slide, error) {
	prompt := fmt.Sprintf(
		"Create exactly %d slides for a short video presentation of the paper %q. "+
			"Each slide needs a title and %d to %d concise bullet points.\n\nPaper text:\n%s",
		s.slideCount, title, minBullets, maxBullets, truncateForPrompt(doc.FullText, 12000))

	content, err := s.client.CompleteJSON(ctx, structureSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Slides []Slide `json:"slides"`
	}
	if err := llm.DecodeLLMJSON(content, &payload); err != nil {
		return nil, err
	}
	return s.normalizeSlides(payload.Slides)
}

// normalizeSlides enforces the outline shape: exactly slideCount slides
// with minBullets to maxBullets bullets each. Slides beyond the count are
// dropped; too few slides is unrecoverable and triggers the fallback.
func (s *Structurer) normalizeSlides(slides []Slide) ([]Slide, error) {
	cleaned := make([]Slide, 0, s.slideCount)
	for _, slide := range slides {
		slide.Title = strings.TrimSpace(slide.Title)
		if slide.Title == "" {
			continue
		}
		bullets := make([]string, 0, len(slide.Bullets))
		for _, bullet := range slide.Bullets {
			if bullet = strings.TrimSpace(bullet); bullet != "" {
				bullets = append(bullets, bullet)
			}
		}
		if len(bullets) == 0 {
			continue
		}
		if len(bullets) > maxBullets {
			bullets = bullets[:maxBullets]
		}
		for len(bullets) < minBullets {
			bullets = append(bullets, fillerBullet)
		}
		slide.Bullets = bullets
		slide.Figures = validFigures(slide.Figures)
		cleaned = append(cleaned, slide)
		if len(cleaned) == s.slideCount {
			break
		}
	}
	if len(cleaned) != s.slideCount {
		return nil, fmt.Errorf("expected %d slides, got %d usable", s.slideCount, len(cleaned))
	}
	return cleaned, nil
}

// fallbackSlides builds a deterministic outline from whatever sections were
// located in the document. It always returns exactly slideCount non-empty
// slides.
func (s *Structurer) fallbackSlides(title string, doc paperload.Document) []Slide {
	plans := []struct {
		title    string
		sections []string
	}{
		{title: "Overview", sections: []string{"abstract", "introduction"}},
		{title: "Methodology", sections: []string{"methods"}},
		{title: "Results and Conclusion", sections: []string{"results", "conclusion"}},
	}

	slides := make([]Slide, 0, s.slideCount)
	for i := 0; i < s.slideCount; i++ {
		plan := plans[i%len(plans)]
		slideTitle := plan.title
		if i == 0 && strings.TrimSpace(title) != "" {
			slideTitle = strings.TrimSpace(title)
		}

		var bullets []string
		for _, name := range plan.sections {
			bullets = append(bullets, sentencesToBullets(doc.Sections[name], maxBullets-len(bullets))...)
			if len(bullets) >= maxBullets {
				break
			}
		}
		if len(bullets) == 0 {
			bullets = sentencesToBullets(doc.FullText, minBullets)
		}
		for len(bullets) < minBullets {
			bullets = append(bullets, fillerBullet)
		}
		if len(bullets) > maxBullets {
			bullets = bullets[:maxBullets]
		}
		slides = append(slides, Slide{Title: slideTitle, Bullets: bullets})
	}
	return slides
}

// validFigures drops figures with blank labels or non-finite values and
// caps the set at what fits on a chart.
func validFigures(figures []Figure) []Figure {
	const maxFigures = 6
	kept := make([]Figure, 0, len(figures))
	for _, figure := range figures {
		figure.Label = strings.TrimSpace(figure.Label)
		if figure.Label == "" {
			continue
		}
		if math.IsNaN(figure.Value) || math.IsInf(figure.Value, 0) {
			continue
		}
		kept = append(kept, figure)
		if len(kept) == maxFigures {
			break
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// sentencesToBullets extracts up to limit short sentences from text for use
// as bullet points.
func sentencesToBullets(text string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var bullets []string
	for _, sentence := range strings.Split(text, ". ") {
		sentence = strings.TrimSpace(strings.TrimSuffix(sentence, "."))
		if len(sentence) < 20 {
			continue
		}
		if len(sentence) > 160 {
			sentence = sentence[:157] + "..."
		}
		bullets = append(bullets, sentence+".")
		if len(bullets) == limit {
			break
		}
	}
	return bullets
}

func truncateForPrompt(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
