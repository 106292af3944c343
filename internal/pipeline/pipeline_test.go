package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"scholarcast/internal/logging"
	"scholarcast/internal/narration"
	"scholarcast/internal/outline"
	"scholarcast/internal/paperload"
	"scholarcast/internal/services"
	"scholarcast/internal/speech"
	"scholarcast/internal/storage"
	"scholarcast/internal/store"
	"scholarcast/internal/testsupport"
)

type stubLoader struct {
	calls int
	err   error
}

func (s *stubLoader) Load(ctx context.Context, source string) (paperload.Document, error) {
	s.calls++
	if s.err != nil {
		return paperload.Document{}, s.err
	}
	return paperload.Document{FullText: "paper text", Sections: map[string]string{"abstract": "abstract text"}}, nil
}

type stubStructurer struct{ calls int }

func (s *stubStructurer) Structure(ctx context.Context, title string, doc paperload.Document) outline.Result {
	s.calls++
	return outline.Result{Slides: []outline.Slide{
		{Title: "One", Bullets: []string{"a", "b", "c"}},
		{Title: "Two", Bullets: []string{"a", "b", "c"}},
		{Title: "Three", Bullets: []string{"a", "b", "c"}},
	}}
}

type stubComposer struct{ calls int }

func (s *stubComposer) Compose(ctx context.Context, slides []outline.Slide) narration.Result {
	s.calls++
	segments := make([]narration.Segment, len(slides))
	for i := range slides {
		segments[i] = narration.Segment{SlideIndex: i, Text: "narration", DurationSeconds: 20}
	}
	return narration.Result{Segments: segments, FullScript: "narration script"}
}

type stubSynthesizer struct {
	calls int
	err   error
}

func (s *stubSynthesizer) Synthesize(ctx context.Context, fullScript string, segments []narration.Segment, dir string) (speech.Audio, error) {
	s.calls++
	if s.err != nil {
		return speech.Audio{}, s.err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return speech.Audio{}, err
	}
	full := filepath.Join(dir, "narration_full.mp3")
	if err := os.WriteFile(full, []byte("mp3"), 0o644); err != nil {
		return speech.Audio{}, err
	}
	audio := speech.Audio{FullPath: full, DurationSeconds: 30}
	for _, segment := range segments {
		audio.Segments = append(audio.Segments, speech.SegmentAudio{
			SlideIndex: segment.SlideIndex, Path: full, DurationSeconds: 10,
		})
	}
	return audio, nil
}

type stubRenderer struct{ calls int }

func (s *stubRenderer) RenderSlides(ctx context.Context, slides []outline.Slide, dir string) ([]string, error) {
	s.calls++
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, len(slides))
	for i := range slides {
		paths[i] = filepath.Join(dir, "slide.png")
	}
	return paths, nil
}

type stubAssembler struct{ calls int }

func (s *stubAssembler) ClipDurations(segmentDurations []float64, totalDuration float64, slideCount int) []float64 {
	durations := make([]float64, slideCount)
	for i := range durations {
		durations[i] = totalDuration / float64(slideCount)
	}
	return durations
}

func (s *stubAssembler) Assemble(ctx context.Context, slideImages []string, durations []float64, audioPath, outputPath, scratchDir string) error {
	s.calls++
	return os.WriteFile(outputPath, []byte("mp4"), 0o644)
}

func (s *stubAssembler) OverlayPresenter(ctx context.Context, videoPath, presenterClip, outputPath string) string {
	return videoPath
}

type stubUploader struct {
	uploads  int
	presigns int
}

func (s *stubUploader) UploadFile(ctx context.Context, paperID, path string) (storage.Object, error) {
	s.uploads++
	return storage.Object{Key: "videos/" + paperID + ".mp4", URL: "https://cdn.example.com/videos/" + paperID + ".mp4"}, nil
}

func (s *stubUploader) PresignedURL(ctx context.Context, key string) (string, error) {
	s.presigns++
	return "https://cdn.example.com/presigned/" + key, nil
}

type fixture struct {
	pipeline    *Pipeline
	store       *store.Store
	loader      *stubLoader
	synthesizer *stubSynthesizer
	assembler   *stubAssembler
	uploader    *stubUploader
	scratchRoot string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	base := t.TempDir()
	pdfPath := filepath.Join(base, "paper.pdf")
	testsupport.WriteFile(t, pdfPath, []byte("%PDF"))
	testsupport.SeedPaper(t, st, &store.Paper{
		PaperID:   "2301.07041",
		Title:     "Sparse Attention",
		Source:    "arxiv",
		LocalPath: pdfPath,
	})

	f := &fixture{
		store:       st,
		loader:      &stubLoader{},
		synthesizer: &stubSynthesizer{},
		assembler:   &stubAssembler{},
		uploader:    &stubUploader{},
		scratchRoot: filepath.Join(base, "scratch"),
	}
	f.pipeline = &Pipeline{
		Store:         st,
		Loader:        f.loader,
		Structurer:    &stubStructurer{},
		Composer:      &stubComposer{},
		Synthesizer:   f.synthesizer,
		Renderer:      &stubRenderer{},
		Assembler:     f.assembler,
		Uploader:      f.uploader,
		OutputDir:     filepath.Join(base, "output"),
		ScratchRoot:   f.scratchRoot,
		FFprobeBinary: "ffprobe-not-installed",
		Logger:        logging.NewNop(),
	}
	return f
}

func (f *fixture) scratchDir() string {
	return filepath.Join(f.scratchRoot, "2301.07041")
}

func TestGenerateCompletesWithThreeSlides(t *testing.T) {
	f := newFixture(t)

	artifact, err := f.pipeline.Generate(context.Background(), "2301.07041", false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if artifact.Status != "completed" {
		t.Fatalf("expected completed status, got %q", artifact.Status)
	}
	if artifact.SlideCount != 3 {
		t.Fatalf("expected slide_count 3, got %d", artifact.SlideCount)
	}
	if artifact.DurationSeconds != 30 {
		t.Fatalf("expected audio-derived duration 30, got %v", artifact.DurationSeconds)
	}
	if artifact.StorageKey == "" || artifact.PresignedURL == "" {
		t.Fatalf("expected storage fields, got %+v", artifact)
	}
}

func TestGenerateIsIdempotentWithoutForce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.pipeline.Generate(ctx, "2301.07041", false)
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	second, err := f.pipeline.Generate(ctx, "2301.07041", false)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if first.ArtifactURL != second.ArtifactURL {
		t.Fatalf("expected same artifact, got %q and %q", first.ArtifactURL, second.ArtifactURL)
	}
	if f.uploader.uploads != 1 {
		t.Fatalf("expected exactly one upload, got %d", f.uploader.uploads)
	}
	if f.loader.calls != 1 {
		t.Fatalf("expected stages to run once, loader ran %d times", f.loader.calls)
	}
}

func TestGenerateForceRegenerateRerunsAndUpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.pipeline.Generate(ctx, "2301.07041", false); err != nil {
		t.Fatalf("first generate: %v", err)
	}
	if _, err := f.pipeline.Generate(ctx, "2301.07041", true); err != nil {
		t.Fatalf("forced generate: %v", err)
	}
	if f.loader.calls != 2 {
		t.Fatalf("expected stages to rerun under force, loader ran %d times", f.loader.calls)
	}
	if f.uploader.uploads != 2 {
		t.Fatalf("expected second upload under force, got %d", f.uploader.uploads)
	}

	videos, err := f.store.ListVideos(ctx)
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("force regenerate must update in place, found %d records", len(videos))
	}
}

func TestGenerateUnknownPaper(t *testing.T) {
	f := newFixture(t)
	_, err := f.pipeline.Generate(context.Background(), "missing", false)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGenerateRequiresDownloadedPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.store.UpsertPaper(ctx, &store.Paper{
		PaperID: "no-pdf",
		Title:   "No PDF",
		Source:  "arxiv",
	}); err != nil {
		t.Fatalf("seed paper: %v", err)
	}

	_, err := f.pipeline.Generate(ctx, "no-pdf", false)
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestGenerateCleansScratchOnSuccess(t *testing.T) {
	f := newFixture(t)
	if _, err := f.pipeline.Generate(context.Background(), "2301.07041", false); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := os.Stat(f.scratchDir()); !os.IsNotExist(err) {
		t.Fatalf("scratch directory should be removed after success, stat err: %v", err)
	}
}

func TestGenerateCleansScratchOnFailure(t *testing.T) {
	f := newFixture(t)
	f.synthesizer.err = services.Wrap(services.ErrExternalTool, "synthesize", "tts", "engine down", nil)

	_, err := f.pipeline.Generate(context.Background(), "2301.07041", false)
	if err == nil {
		t.Fatal("expected stage failure")
	}
	if _, statErr := os.Stat(f.scratchDir()); !os.IsNotExist(statErr) {
		t.Fatalf("scratch directory should be removed after failure, stat err: %v", statErr)
	}
}

func TestGenerateRecordsFailureWithoutClobberingSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// First run fails: a failed record is written.
	f.synthesizer.err = errors.New("engine down")
	if _, err := f.pipeline.Generate(ctx, "2301.07041", false); err == nil {
		t.Fatal("expected failure")
	}
	video, err := f.store.GetVideo(ctx, "2301.07041")
	if err != nil {
		t.Fatalf("get video: %v", err)
	}
	if video == nil || video.Status != store.StatusFailed {
		t.Fatalf("expected failed record, got %+v", video)
	}
	if video.ErrorMessage == "" {
		t.Fatal("expected error message on failed record")
	}

	// Recovery succeeds, then a forced failing run must not clobber it.
	f.synthesizer.err = nil
	if _, err := f.pipeline.Generate(ctx, "2301.07041", false); err != nil {
		t.Fatalf("recovery generate: %v", err)
	}
	f.synthesizer.err = errors.New("engine down again")
	if _, err := f.pipeline.Generate(ctx, "2301.07041", true); err == nil {
		t.Fatal("expected forced failure")
	}
	video, err = f.store.GetVideo(ctx, "2301.07041")
	if err != nil {
		t.Fatalf("get video: %v", err)
	}
	if video.Status != store.StatusCompleted {
		t.Fatalf("prior success must stay reachable, got status %q", video.Status)
	}
}

func TestGenerateFailedRecordIsNotServedAsArtifact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.synthesizer.err = errors.New("engine down")
	if _, err := f.pipeline.Generate(ctx, "2301.07041", false); err == nil {
		t.Fatal("expected failure")
	}

	_, err := f.pipeline.GetArtifact(ctx, "2301.07041")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("failed run must not be served as artifact, got %v", err)
	}
}

func TestGenerateCacheMissWhenLocalFileDeleted(t *testing.T) {
	f := newFixture(t)
	f.pipeline.Uploader = nil
	ctx := context.Background()

	artifact, err := f.pipeline.Generate(ctx, "2301.07041", false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := os.Remove(artifact.ArtifactURL); err != nil {
		t.Fatalf("remove artifact: %v", err)
	}

	if _, err := f.pipeline.Generate(ctx, "2301.07041", false); err != nil {
		t.Fatalf("regenerate after deletion: %v", err)
	}
	if f.loader.calls != 2 {
		t.Fatalf("expected rerun after artifact deletion, loader ran %d times", f.loader.calls)
	}
}

func TestGenerateWithoutUploaderServesLocalPath(t *testing.T) {
	f := newFixture(t)
	f.pipeline.Uploader = nil

	artifact, err := f.pipeline.Generate(context.Background(), "2301.07041", false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if artifact.StorageKey != "" || artifact.PresignedURL != "" {
		t.Fatalf("expected no storage fields, got %+v", artifact)
	}
	if _, statErr := os.Stat(artifact.ArtifactURL); statErr != nil {
		t.Fatalf("local artifact should exist: %v", statErr)
	}
}
