package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"scholarcast/internal/logging"
	"scholarcast/internal/narration"
	"scholarcast/internal/services"
	"scholarcast/internal/storage"
	"scholarcast/internal/store"
)

// AudioArtifact is the caller-facing reference to a spoken summary.
type AudioArtifact struct {
	PaperID         string  `json:"paper_id"`
	AudioURL        string  `json:"audio_url"`
	DurationSeconds float64 `json:"duration_seconds"`
	StorageKey      string  `json:"storage_key,omitempty"`
	PresignedURL    string  `json:"presigned_url,omitempty"`
}

// Speaker converts text into a single audio file.
type Speaker interface {
	SynthesizeFile(ctx context.Context, text string, path string) (float64, error)
}

// Uploader pushes spoken summaries to object storage. A nil Uploader leaves
// them on the local filesystem.
type Uploader interface {
	UploadFile(ctx context.Context, paperID, path string) (storage.Object, error)
	PresignedURL(ctx context.Context, key string) (string, error)
}

// AudioSummarizer turns the stored summary of a paper into narrated audio,
// generating the summary first when none exists yet.
type AudioSummarizer struct {
	digest    *Service
	store     *store.Store
	speaker   Speaker
	uploader  Uploader
	outputDir string
	logger    *slog.Logger
}

// NewAudioSummarizer wires an audio summarizer from shared collaborators.
func NewAudioSummarizer(svc *Service, st *store.Store, speaker Speaker, uploader Uploader, outputDir string, logger *slog.Logger) *AudioSummarizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &AudioSummarizer{
		digest:    svc,
		store:     st,
		speaker:   speaker,
		uploader:  uploader,
		outputDir: outputDir,
		logger:    logging.NewComponentLogger(logger, "audio-summary"),
	}
}

// Generate synthesizes a spoken summary for the paper. Without force an
// existing usable recording satisfies the call immediately.
func (a *AudioSummarizer) Generate(ctx context.Context, paperID string, force bool) (AudioArtifact, error) {
	paper, err := a.digest.lookupPaper(ctx, paperID, "audio summary")
	if err != nil {
		return AudioArtifact{}, err
	}

	if !force {
		record, err := a.store.GetAudioSummary(ctx, paperID)
		if err != nil {
			return AudioArtifact{}, services.Wrap(services.ErrStorage, "digest", "audio summary", "look up audio summary", err)
		}
		if a.usable(record) {
			return a.artifactFromRecord(ctx, record), nil
		}
	}

	summary, err := a.digest.GetSummary(ctx, paperID)
	if errors.Is(err, services.ErrNotFound) {
		summary, err = a.digest.GenerateSummary(ctx, paperID)
	}
	if err != nil {
		return AudioArtifact{}, err
	}

	script := narration.SpeechFriendly(spokenScript(paper.Title, summary))
	audioPath := filepath.Join(a.outputDir, audioFileName(paperID))
	duration, err := a.speaker.SynthesizeFile(ctx, script, audioPath)
	if err != nil {
		return AudioArtifact{}, err
	}

	record := &store.AudioSummary{
		PaperID:         paperID,
		AudioPath:       audioPath,
		DurationSeconds: duration,
	}
	if a.uploader != nil {
		object, err := a.uploader.UploadFile(ctx, paperID, audioPath)
		if err != nil {
			return AudioArtifact{}, services.Wrap(services.ErrStorage, "digest", "audio summary", "upload audio summary", err)
		}
		record.StorageKey = object.Key
		record.StorageURL = object.URL
	}

	stored, err := a.store.UpsertAudioSummary(ctx, record)
	if err != nil {
		return AudioArtifact{}, services.Wrap(services.ErrStorage, "digest", "audio summary", "persist audio summary", err)
	}

	a.logger.InfoContext(ctx, "audio summary generated",
		logging.String(logging.FieldPaperID, paperID),
		logging.Float64("duration_seconds", duration))
	return a.artifactFromRecord(ctx, stored), nil
}

// Get returns the stored spoken summary, or ErrNotFound when none is
// reachable anymore.
func (a *AudioSummarizer) Get(ctx context.Context, paperID string) (AudioArtifact, error) {
	record, err := a.store.GetAudioSummary(ctx, paperID)
	if err != nil {
		return AudioArtifact{}, services.Wrap(services.ErrStorage, "digest", "audio summary", "look up audio summary", err)
	}
	if !a.usable(record) {
		return AudioArtifact{}, services.Wrap(services.ErrNotFound, "digest", "audio summary",
			fmt.Sprintf("no audio summary for paper %s", paperID), nil)
	}
	return a.artifactFromRecord(ctx, record), nil
}

// usable reports whether the record still points at retrievable audio. An
// uploaded object outlives the local file.
func (a *AudioSummarizer) usable(record *store.AudioSummary) bool {
	if record == nil {
		return false
	}
	if record.StorageKey != "" {
		return true
	}
	_, err := os.Stat(record.AudioPath)
	return err == nil
}

func (a *AudioSummarizer) artifactFromRecord(ctx context.Context, record *store.AudioSummary) AudioArtifact {
	artifact := AudioArtifact{
		PaperID:         record.PaperID,
		AudioURL:        record.AudioPath,
		DurationSeconds: record.DurationSeconds,
		StorageKey:      record.StorageKey,
	}
	if record.StorageURL != "" {
		artifact.AudioURL = record.StorageURL
	}
	if a.uploader != nil && record.StorageKey != "" {
		if url, err := a.uploader.PresignedURL(ctx, record.StorageKey); err == nil {
			artifact.PresignedURL = url
		} else {
			a.logger.WarnContext(ctx, "presign failed", logging.Error(err))
		}
	}
	return artifact
}

// spokenScript flattens the structured summary into narration text. Empty
// sections are skipped.
func spokenScript(title string, summary *Summary) string {
	var parts []string
	if strings.TrimSpace(title) != "" {
		parts = append(parts, fmt.Sprintf("An audio summary of %s.", strings.TrimSpace(title)))
	}
	if text := strings.TrimSpace(summary.Overview); text != "" {
		parts = append(parts, sentence(text))
	}
	if len(summary.KeyFindings) > 0 {
		parts = append(parts, "Key findings.")
		for _, finding := range summary.KeyFindings {
			if text := strings.TrimSpace(finding); text != "" {
				parts = append(parts, sentence(text))
			}
		}
	}
	if text := strings.TrimSpace(summary.Methodology); text != "" {
		parts = append(parts, "Methodology.", sentence(text))
	}
	if text := strings.TrimSpace(summary.Implications); text != "" {
		parts = append(parts, "Implications.", sentence(text))
	}
	return strings.Join(parts, " ")
}

func sentence(text string) string {
	if strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?") {
		return text
	}
	return text + "."
}

func audioFileName(paperID string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_")
	return replacer.Replace(paperID) + "_summary.mp3"
}
