package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scholarcast/internal/config"
	"scholarcast/internal/logging"
	"scholarcast/internal/media/ffprobe"
	"scholarcast/internal/narration"
	"scholarcast/internal/services"
)

// fillerSentence replaces empty segment text before synthesis. TTS engines
// reject empty input.
const fillerSentence = "This section continues the presentation."

// SegmentAudio is the synthesized audio for one narration segment.
type SegmentAudio struct {
	SlideIndex      int
	Path            string
	DurationSeconds float64
}

// Audio is the synthesized output for a full script.
type Audio struct {
	FullPath        string
	DurationSeconds float64
	Segments        []SegmentAudio
}

// Synthesizer converts narration text to speech through an ElevenLabs-style
// HTTP endpoint.
type Synthesizer struct {
	baseURL       string
	apiKey        string
	voiceID       string
	modelID       string
	outputFormat  string
	ffprobeBinary string
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewSynthesizer constructs a speech synthesizer from configuration.
func NewSynthesizer(cfg config.TTS, ffprobeBinary string, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Synthesizer{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		voiceID:       cfg.VoiceID,
		modelID:       cfg.ModelID,
		outputFormat:  cfg.OutputFormat,
		ffprobeBinary: ffprobeBinary,
		httpClient:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger:        logging.NewComponentLogger(logger, "speech"),
	}
}

// Synthesize produces one audio file for the full script and one per
// segment, all written under dir. Durations are measured from the produced
// files; a failed probe yields 0 rather than aborting.
func (s *Synthesizer) Synthesize(ctx context.Context, fullScript string, segments []narration.Segment, dir string) (Audio, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Audio{}, services.Wrap(services.ErrStorage, "synthesize", "scratch", "create audio directory", err)
	}

	fullPath := filepath.Join(dir, "narration_full.mp3")
	if err := s.synthesizeToFile(ctx, fullScript, fullPath); err != nil {
		return Audio{}, err
	}

	audio := Audio{
		FullPath:        fullPath,
		DurationSeconds: ffprobe.ProbeDuration(ctx, s.ffprobeBinary, fullPath),
	}
	for _, segment := range segments {
		segmentPath := filepath.Join(dir, fmt.Sprintf("narration_%02d.mp3", segment.SlideIndex))
		if err := s.synthesizeToFile(ctx, segment.Text, segmentPath); err != nil {
			return Audio{}, err
		}
		audio.Segments = append(audio.Segments, SegmentAudio{
			SlideIndex:      segment.SlideIndex,
			Path:            segmentPath,
			DurationSeconds: ffprobe.ProbeDuration(ctx, s.ffprobeBinary, segmentPath),
		})
	}

	s.logger.InfoContext(ctx, "speech synthesized",
		logging.Int("segments", len(audio.Segments)),
		logging.Float64("duration_seconds", audio.DurationSeconds))
	return audio, nil
}

// SynthesizeFile produces a single audio file for text at path, creating
// parent directories as needed, and returns the measured duration.
func (s *Synthesizer) SynthesizeFile(ctx context.Context, text string, path string) (float64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, services.Wrap(services.ErrStorage, "synthesize", "scratch", "create audio directory", err)
	}
	if err := s.synthesizeToFile(ctx, text, path); err != nil {
		return 0, err
	}
	return ffprobe.ProbeDuration(ctx, s.ffprobeBinary, path), nil
}

func (s *Synthesizer) synthesizeToFile(ctx context.Context, text string, path string) error {
	data, err := s.request(ctx, text)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrStorage, "synthesize", "write", fmt.Sprintf("write %s", filepath.Base(path)), err)
	}
	return nil
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// request performs a single text-to-speech call. Text is always sanitized
// first: pause markers stripped, and empty input replaced with the filler
// sentence so the engine is never invoked with nothing to say.
func (s *Synthesizer) request(ctx context.Context, text string) ([]byte, error) {
	text = narration.StripPauses(text)
	if strings.TrimSpace(text) == "" {
		text = fillerSentence
	}

	body, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: s.modelID,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "synthesize", "tts", "marshal request", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s", s.baseURL, s.voiceID, s.outputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "synthesize", "tts", "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "synthesize", "tts", "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, services.Wrap(services.ErrExternalTool, "synthesize", "tts",
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "synthesize", "tts", "read audio", err)
	}
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "synthesize", "tts", "engine returned no audio", nil)
	}
	return data, nil
}
