package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"scholarcast/internal/config"
	"scholarcast/internal/fileutil"
	"scholarcast/internal/logging"
	"scholarcast/internal/media/ffprobe"
	"scholarcast/internal/narration"
	"scholarcast/internal/outline"
	"scholarcast/internal/paperload"
	"scholarcast/internal/services"
	"scholarcast/internal/speech"
	"scholarcast/internal/storage"
	"scholarcast/internal/store"
)

// Artifact is the caller-facing reference to a generated video.
type Artifact struct {
	PaperID         string  `json:"paper_id"`
	ArtifactURL     string  `json:"artifact_url"`
	DurationSeconds float64 `json:"duration_seconds"`
	SlideCount      int     `json:"slide_count"`
	Status          string  `json:"status"`
	StorageKey      string  `json:"storage_key,omitempty"`
	PresignedURL    string  `json:"presigned_url,omitempty"`
}

// Loader loads paper text.
type Loader interface {
	Load(ctx context.Context, source string) (paperload.Document, error)
}

// Structurer produces the slide outline.
type Structurer interface {
	Structure(ctx context.Context, title string, doc paperload.Document) outline.Result
}

// Composer produces the narration script.
type Composer interface {
	Compose(ctx context.Context, slides []outline.Slide) narration.Result
}

// Synthesizer produces narration audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, fullScript string, segments []narration.Segment, dir string) (speech.Audio, error)
}

// SlideRenderer draws slide images.
type SlideRenderer interface {
	RenderSlides(ctx context.Context, slides []outline.Slide, dir string) ([]string, error)
}

// Assembler encodes the final video.
type Assembler interface {
	ClipDurations(segmentDurations []float64, totalDuration float64, slideCount int) []float64
	Assemble(ctx context.Context, slideImages []string, durations []float64, audioPath, outputPath, scratchDir string) error
	OverlayPresenter(ctx context.Context, videoPath, presenterClip, outputPath string) string
}

// Uploader pushes the finished artifact to object storage. A nil Uploader
// leaves artifacts on the local filesystem.
type Uploader interface {
	UploadFile(ctx context.Context, paperID, path string) (storage.Object, error)
	PresignedURL(ctx context.Context, key string) (string, error)
}

// Pipeline orchestrates the five generation stages for one paper at a time.
type Pipeline struct {
	Store         *store.Store
	Loader        Loader
	Structurer    Structurer
	Composer      Composer
	Synthesizer   Synthesizer
	Renderer      SlideRenderer
	Assembler     Assembler
	Uploader      Uploader
	OutputDir     string
	ScratchRoot   string
	PresenterClip string
	FFprobeBinary string
	Logger        *slog.Logger
}

// New wires a pipeline from configuration and shared collaborators.
func New(cfg *config.Config, st *store.Store, ld Loader, str Structurer, cmp Composer, syn Synthesizer, rnd SlideRenderer, asm Assembler, up Uploader, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		Store:         st,
		Loader:        ld,
		Structurer:    str,
		Composer:      cmp,
		Synthesizer:   syn,
		Renderer:      rnd,
		Assembler:     asm,
		Uploader:      up,
		OutputDir:     cfg.Paths.OutputDir,
		ScratchRoot:   cfg.ScratchDir(),
		PresenterClip: cfg.Render.PresenterClip,
		FFprobeBinary: cfg.FFprobeBinary(),
		Logger:        logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Generate runs the pipeline for a paper. Without forceRegenerate a
// completed artifact satisfies the call immediately. Concurrent calls for
// the same paper id serialize on a per-paper advisory file lock; distinct
// papers run independently.
func (p *Pipeline) Generate(ctx context.Context, paperID string, forceRegenerate bool) (Artifact, error) {
	paperID = strings.TrimSpace(paperID)
	if paperID == "" {
		return Artifact{}, services.Wrap(services.ErrValidation, "pipeline", "generate", "paper id is required", nil)
	}
	ctx = services.WithPaperID(ctx, paperID)

	if err := os.MkdirAll(p.ScratchRoot, 0o755); err != nil {
		return Artifact{}, services.Wrap(services.ErrStorage, "pipeline", "generate", "create scratch root", err)
	}
	lock := flock.New(filepath.Join(p.ScratchRoot, sanitizeID(paperID)+".lock"))
	if err := lock.Lock(); err != nil {
		return Artifact{}, services.Wrap(services.ErrStorage, "pipeline", "generate", "acquire paper lock", err)
	}
	defer lock.Unlock()

	if !forceRegenerate {
		if artifact, ok, err := p.cachedArtifact(ctx, paperID); err != nil {
			return Artifact{}, err
		} else if ok {
			p.Logger.InfoContext(ctx, "artifact cache hit", logging.String(logging.FieldPaperID, paperID))
			return artifact, nil
		}
	}

	paper, err := p.Store.GetPaper(ctx, paperID)
	if err != nil {
		return Artifact{}, err
	}
	if paper == nil {
		return Artifact{}, services.Wrap(services.ErrNotFound, "pipeline", "generate", fmt.Sprintf("paper %s not found", paperID), nil)
	}
	if strings.TrimSpace(paper.LocalPath) == "" {
		return Artifact{}, services.Wrap(services.ErrPrecondition, "pipeline", "generate",
			fmt.Sprintf("paper %s has no downloaded pdf", paperID), nil)
	}

	scratchDir := filepath.Join(p.ScratchRoot, sanitizeID(paperID))
	defer p.cleanupScratch(ctx, scratchDir)

	artifact, err := p.run(ctx, paper, scratchDir)
	if err != nil {
		p.recordFailure(ctx, paperID, err)
		return Artifact{}, err
	}
	return artifact, nil
}

// GetArtifact returns the completed artifact for a paper, if any.
func (p *Pipeline) GetArtifact(ctx context.Context, paperID string) (Artifact, error) {
	artifact, ok, err := p.cachedArtifact(ctx, paperID)
	if err != nil {
		return Artifact{}, err
	}
	if !ok {
		return Artifact{}, services.Wrap(services.ErrNotFound, "pipeline", "artifact",
			fmt.Sprintf("no completed video for paper %s", paperID), nil)
	}
	return artifact, nil
}

func (p *Pipeline) run(ctx context.Context, paper *store.Paper, scratchDir string) (Artifact, error) {
	var (
		doc       paperload.Document
		slides    []outline.Slide
		script    narration.Result
		audio     speech.Audio
		videoPath string
	)

	err := p.stage(ctx, "load", func(ctx context.Context) error {
		var stageErr error
		doc, stageErr = p.Loader.Load(ctx, paper.LocalPath)
		return stageErr
	})
	if err != nil {
		return Artifact{}, err
	}

	p.infallibleStage(ctx, "outline", func(ctx context.Context) {
		result := p.Structurer.Structure(ctx, paper.Title, doc)
		slides = result.Slides
		if result.UsedFallback {
			p.Logger.WarnContext(ctx, "outline used deterministic fallback",
				logging.String(logging.FieldEventType, "generation_degraded"))
		}
	})

	p.infallibleStage(ctx, "narrate", func(ctx context.Context) {
		script = p.Composer.Compose(ctx, slides)
		if script.UsedFallback {
			p.Logger.WarnContext(ctx, "narration used deterministic fallback",
				logging.String(logging.FieldEventType, "generation_degraded"))
		}
	})

	err = p.stage(ctx, "synthesize", func(ctx context.Context) error {
		var stageErr error
		audio, stageErr = p.Synthesizer.Synthesize(ctx, script.FullScript, script.Segments, filepath.Join(scratchDir, "audio"))
		return stageErr
	})
	if err != nil {
		return Artifact{}, err
	}

	err = p.stage(ctx, "assemble", func(ctx context.Context) error {
		images, stageErr := p.Renderer.RenderSlides(ctx, slides, filepath.Join(scratchDir, "slides"))
		if stageErr != nil {
			return stageErr
		}
		durations := p.Assembler.ClipDurations(segmentDurations(audio.Segments, len(slides)), audio.DurationSeconds, len(slides))
		assembled := filepath.Join(scratchDir, "video.mp4")
		if stageErr := p.Assembler.Assemble(ctx, images, durations, audio.FullPath, assembled, filepath.Join(scratchDir, "clips")); stageErr != nil {
			return stageErr
		}
		final := p.Assembler.OverlayPresenter(ctx, assembled, p.PresenterClip, filepath.Join(scratchDir, "video_presenter.mp4"))

		videoPath = filepath.Join(p.OutputDir, sanitizeID(paper.PaperID)+".mp4")
		if stageErr := fileutil.MoveFile(final, videoPath); stageErr != nil {
			return services.Wrap(services.ErrStorage, "assemble", "publish", "move video to output", stageErr)
		}
		return nil
	})
	if err != nil {
		return Artifact{}, err
	}

	duration := ffprobe.ProbeDuration(ctx, p.FFprobeBinary, videoPath)
	if duration == 0 {
		duration = audio.DurationSeconds
	}

	video := &store.Video{
		PaperID:         paper.PaperID,
		VideoPath:       videoPath,
		DurationSeconds: duration,
		SlideCount:      len(slides),
		Status:          store.StatusCompleted,
	}

	if p.Uploader != nil {
		err = p.stage(ctx, "upload", func(ctx context.Context) error {
			object, stageErr := p.Uploader.UploadFile(ctx, paper.PaperID, videoPath)
			if stageErr != nil {
				return stageErr
			}
			video.StorageKey = object.Key
			video.StorageURL = object.URL
			return nil
		})
		if err != nil {
			return Artifact{}, err
		}
	}

	if _, err := p.Store.UpsertVideo(ctx, video); err != nil {
		return Artifact{}, services.Wrap(services.ErrStorage, "pipeline", "persist", "persist video record", err)
	}

	artifact := p.artifactFromVideo(ctx, video)
	p.Logger.InfoContext(ctx, "video generated",
		logging.String(logging.FieldPaperID, paper.PaperID),
		logging.Float64("duration_seconds", artifact.DurationSeconds),
		logging.Int("slide_count", artifact.SlideCount))
	return artifact, nil
}

// cachedArtifact returns the stored artifact when a completed record exists
// and its video is still reachable locally or in object storage.
func (p *Pipeline) cachedArtifact(ctx context.Context, paperID string) (Artifact, bool, error) {
	video, err := p.Store.GetVideo(ctx, paperID)
	if err != nil {
		return Artifact{}, false, err
	}
	if video == nil || video.Status != store.StatusCompleted {
		return Artifact{}, false, nil
	}
	if video.StorageKey == "" {
		if _, statErr := os.Stat(video.VideoPath); statErr != nil {
			return Artifact{}, false, nil
		}
	}
	return p.artifactFromVideo(ctx, video), true, nil
}

func (p *Pipeline) artifactFromVideo(ctx context.Context, video *store.Video) Artifact {
	artifact := Artifact{
		PaperID:         video.PaperID,
		ArtifactURL:     video.VideoPath,
		DurationSeconds: video.DurationSeconds,
		SlideCount:      video.SlideCount,
		Status:          string(video.Status),
		StorageKey:      video.StorageKey,
	}
	if video.StorageURL != "" {
		artifact.ArtifactURL = video.StorageURL
	}
	if p.Uploader != nil && video.StorageKey != "" {
		if url, err := p.Uploader.PresignedURL(ctx, video.StorageKey); err == nil {
			artifact.PresignedURL = url
		} else {
			p.Logger.WarnContext(ctx, "presign failed", logging.Error(err))
		}
	}
	return artifact
}

// recordFailure stores a failed marker for operator visibility, but only
// when no completed artifact exists; a prior success stays reachable.
func (p *Pipeline) recordFailure(ctx context.Context, paperID string, runErr error) {
	video, err := p.Store.GetVideo(ctx, paperID)
	if err != nil {
		p.Logger.WarnContext(ctx, "failure lookup failed", logging.Error(err))
		return
	}
	if video != nil && video.Status == store.StatusCompleted {
		return
	}
	if err := p.Store.MarkVideoFailed(ctx, paperID, runErr.Error()); err != nil {
		p.Logger.WarnContext(ctx, "failure record write failed", logging.Error(err))
	}
}

// stage runs one pipeline stage with start/complete/failure logging. The
// returned error is already wrapped with stage identity by the stage body.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx = services.WithStage(ctx, name)
	logger := p.Logger.With(logging.String(logging.FieldStage, name))
	logger.InfoContext(ctx, "stage started", logging.String(logging.FieldEventType, "stage_start"))

	started := time.Now()
	if err := fn(ctx); err != nil {
		logger.ErrorContext(ctx, "stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err))
		return err
	}
	logger.InfoContext(ctx, "stage complete",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started)))
	return nil
}

// infallibleStage runs a stage whose work degrades to a fallback instead
// of returning an error. Only the stage lifecycle is logged.
func (p *Pipeline) infallibleStage(ctx context.Context, name string, fn func(context.Context)) {
	_ = p.stage(ctx, name, func(ctx context.Context) error {
		fn(ctx)
		return nil
	})
}

// cleanupScratch removes the per-run scratch directory. Failures are
// logged, never escalated; they must not mask a stage error.
func (p *Pipeline) cleanupScratch(ctx context.Context, scratchDir string) {
	if err := os.RemoveAll(scratchDir); err != nil {
		p.Logger.WarnContext(ctx, "scratch cleanup failed",
			logging.String("scratch_dir", scratchDir),
			logging.Error(err))
	}
}

// segmentDurations extracts measured per-segment durations when the
// synthesizer produced exactly one segment per slide.
func segmentDurations(segments []speech.SegmentAudio, slideCount int) []float64 {
	if len(segments) != slideCount {
		return nil
	}
	durations := make([]float64, len(segments))
	for i, segment := range segments {
		durations[i] = segment.DurationSeconds
	}
	return durations
}

func sanitizeID(value string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_")
	return replacer.Replace(value)
}
