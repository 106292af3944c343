package narration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"scholarcast/internal/logging"
	"scholarcast/internal/outline"
	"scholarcast/internal/services/llm"
)

// Segment is the narration for a single slide.
type Segment struct {
	SlideIndex      int     `json:"slide_index"`
	Text            string  `json:"text"`
	DurationSeconds float64 `json:"duration_estimate"`
}

// Result carries the composed narration plus whether the deterministic
// fallback produced it.
type Result struct {
	Segments     []Segment
	FullScript   string
	UsedFallback bool
}

// closingLine is appended to the full script after the last segment.
const closingLine = "Thank you for watching this presentation."

// PauseMarker is inserted at sentence boundaries for speech pacing. The
// synthesizer strips it before invoking the TTS engine.
const PauseMarker = "[pause]"

// Completer is the LLM surface the composer needs.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Composer produces spoken-style narration for a slide outline.
type Composer struct {
	client                Completer
	defaultSegmentSeconds float64
	logger                *slog.Logger
}

// NewComposer constructs a narration composer. defaultSegmentSeconds is
// used whenever the LLM does not supply a duration estimate.
func NewComposer(client Completer, defaultSegmentSeconds int, logger *slog.Logger) *Composer {
	if defaultSegmentSeconds <= 0 {
		defaultSegmentSeconds = 20
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Composer{
		client:                client,
		defaultSegmentSeconds: float64(defaultSegmentSeconds),
		logger:                logging.NewComponentLogger(logger, "narration"),
	}
}

const composeSystemPrompt = "You write natural spoken narration for presentation videos. " +
	"Respond with a JSON object of the form {\"segments\": [{\"text\": string, \"duration_estimate\": number}]}, " +
	"one segment per slide in order. Keep each segment to roughly three sentences."

// Compose produces one narration segment per slide. Like the structurer it
// cannot fail outward: LLM or parse failure degrades to templated narration
// built from each slide's title and first bullet.
func (c *Composer) Compose(ctx context.Context, slides []outline.Slide) Result {
	segments, err := c.composeWithLLM(ctx, slides)
	usedFallback := false
	if err != nil {
		c.logger.WarnContext(ctx, "narration degraded to fallback",
			logging.String(logging.FieldEventType, "generation_degraded"),
			logging.Error(err))
		segments = c.fallbackSegments(slides)
		usedFallback = true
	}

	for i := range segments {
		segments[i].Text = SpeechFriendly(segments[i].Text)
	}
	return Result{
		Segments:     segments,
		FullScript:   buildFullScript(segments),
		UsedFallback: usedFallback,
	}
}

func (c *Composer) composeWithLLM(ctx context.Context, slides []outline.Slide) ([]Segment, error) {
	var sb strings.Builder
	for i, slide := range slides {
		fmt.Fprintf(&sb, "Slide %d: %s\n", i+1, slide.Title)
		for _, bullet := range slide.Bullets {
			fmt.Fprintf(&sb, "- %s\n", bullet)
		}
	}
	prompt := fmt.Sprintf("Write narration for these %d slides:\n\n%s", len(slides), sb.String())

	content, err := c.client.CompleteJSON(ctx, composeSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Segments []Segment `json:"segments"`
	}
	if err := llm.DecodeLLMJSON(content, &payload); err != nil {
		return nil, err
	}
	if len(payload.Segments) != len(slides) {
		return nil, fmt.Errorf("expected %d narration segments, got %d", len(slides), len(payload.Segments))
	}

	segments := make([]Segment, len(payload.Segments))
	for i, segment := range payload.Segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			return nil, fmt.Errorf("narration segment %d is empty", i)
		}
		duration := segment.DurationSeconds
		if duration <= 0 {
			duration = c.defaultSegmentSeconds
		}
		segments[i] = Segment{SlideIndex: i, Text: text, DurationSeconds: duration}
	}
	return segments, nil
}

// fallbackSegments builds templated narration from each slide's title and
// first bullet.
func (c *Composer) fallbackSegments(slides []outline.Slide) []Segment {
	segments := make([]Segment, len(slides))
	for i, slide := range slides {
		text := fmt.Sprintf("Let's look at %s.", strings.TrimSpace(slide.Title))
		if len(slide.Bullets) > 0 {
			text += " " + ensureSentence(slide.Bullets[0])
		}
		segments[i] = Segment{SlideIndex: i, Text: text, DurationSeconds: c.defaultSegmentSeconds}
	}
	return segments
}

func buildFullScript(segments []Segment) string {
	parts := make([]string, 0, len(segments)+1)
	for _, segment := range segments {
		parts = append(parts, segment.Text)
	}
	parts = append(parts, closingLine)
	return strings.Join(parts, " "+PauseMarker+" ")
}

// speechSubstitutions expands abbreviations the TTS engine mispronounces.
var speechSubstitutions = strings.NewReplacer(
	"i.e.", "that is",
	"e.g.", "for example",
	"et al.", "and colleagues",
	"vs.", "versus",
	"Fig.", "Figure",
	"Eq.", "Equation",
	"Dr.", "Doctor",
	"Prof.", "Professor",
	"p <", "p less than",
	"p >", "p greater than",
	"%", " percent",
	"&", " and ",
)

// SpeechFriendly applies the fixed substitutions and inserts pause markers
// at sentence and comma boundaries.
func SpeechFriendly(text string) string {
	text = speechSubstitutions.Replace(text)
	text = strings.ReplaceAll(text, ". ", ". "+PauseMarker+" ")
	text = strings.ReplaceAll(text, ", ", ", "+PauseMarker+" ")
	return strings.Join(strings.Fields(text), " ")
}

// StripPauses removes pause markers for consumers that cannot interpret
// them, such as the TTS request payload.
func StripPauses(text string) string {
	text = strings.ReplaceAll(text, PauseMarker, " ")
	return strings.Join(strings.Fields(text), " ")
}

func ensureSentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	if !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "!") && !strings.HasSuffix(text, "?") {
		text += "."
	}
	return text
}
