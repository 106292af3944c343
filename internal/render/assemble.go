package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"scholarcast/internal/logging"
	"scholarcast/internal/services"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// defaultCommandRunner executes ffmpeg invocations.
func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Assembler turns slide images and narration audio into the final video.
type Assembler struct {
	ffmpegBinary   string
	defaultSeconds float64
	run            commandRunner
	logger         *slog.Logger
}

// NewAssembler constructs a media assembler. defaultSeconds is the clip
// duration used when no audio duration information is available at all.
func NewAssembler(ffmpegBinary string, defaultSeconds int, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if defaultSeconds <= 0 {
		defaultSeconds = 20
	}
	return &Assembler{
		ffmpegBinary:   ffmpegBinary,
		defaultSeconds: float64(defaultSeconds),
		run:            defaultCommandRunner,
		logger:         logging.NewComponentLogger(logger, "assemble"),
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (a *Assembler) WithCommandRunner(r commandRunner) {
	if a != nil && r != nil {
		a.run = r
	}
}

// ClipDurations resolves the visual duration of each slide clip. The
// per-segment audio durations win when one is present for every slide;
// otherwise every clip gets an equal share of the total audio duration, or
// the default when no duration was measured at all.
func (a *Assembler) ClipDurations(segmentDurations []float64, totalDuration float64, slideCount int) []float64 {
	durations := make([]float64, slideCount)
	if len(segmentDurations) == slideCount {
		complete := true
		for _, d := range segmentDurations {
			if d <= 0 {
				complete = false
				break
			}
		}
		if complete {
			copy(durations, segmentDurations)
			return durations
		}
	}

	per := a.defaultSeconds
	if totalDuration > 0 {
		per = totalDuration / float64(slideCount)
	}
	for i := range durations {
		durations[i] = per
	}
	return durations
}

// Assemble encodes one clip per slide image, concatenates them in order,
// and muxes the narration track over the result. The final mp4 is written
// to outputPath; intermediate files live in scratchDir.
func (a *Assembler) Assemble(ctx context.Context, slideImages []string, durations []float64, audioPath, outputPath, scratchDir string) error {
	if len(slideImages) == 0 {
		return services.Wrap(services.ErrValidation, "assemble", "clips", "no slide images", nil)
	}
	if len(durations) != len(slideImages) {
		return services.Wrap(services.ErrValidation, "assemble", "clips",
			fmt.Sprintf("%d durations for %d slides", len(durations), len(slideImages)), nil)
	}
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return services.Wrap(services.ErrStorage, "assemble", "clips", "create scratch directory", err)
	}

	clipPaths := make([]string, 0, len(slideImages))
	for i, imagePath := range slideImages {
		clipPath := filepath.Join(scratchDir, fmt.Sprintf("clip_%02d.mp4", i))
		args := []string{
			"-y", "-loop", "1",
			"-i", imagePath,
			"-t", fmt.Sprintf("%.3f", durations[i]),
			"-vf", "fps=30,format=yuv420p",
			"-c:v", "libx264",
			"-preset", "medium",
			clipPath,
		}
		if err := a.run(ctx, a.ffmpegBinary, args...); err != nil {
			return services.Wrap(services.ErrExternalTool, "assemble", "encode", fmt.Sprintf("encode clip %d", i), err)
		}
		clipPaths = append(clipPaths, clipPath)
	}

	listPath := filepath.Join(scratchDir, "clips.txt")
	if err := os.WriteFile(listPath, []byte(concatList(clipPaths)), 0o644); err != nil {
		return services.Wrap(services.ErrStorage, "assemble", "concat", "write concat list", err)
	}

	silentPath := filepath.Join(scratchDir, "video_silent.mp4")
	if err := a.run(ctx, a.ffmpegBinary,
		"-y", "-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		silentPath,
	); err != nil {
		return services.Wrap(services.ErrExternalTool, "assemble", "concat", "concatenate clips", err)
	}

	if err := a.run(ctx, a.ffmpegBinary,
		"-y",
		"-i", silentPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		outputPath,
	); err != nil {
		return services.Wrap(services.ErrExternalTool, "assemble", "mux", "mux narration audio", err)
	}

	a.logger.InfoContext(ctx, "video assembled",
		logging.Int("clips", len(clipPaths)),
		logging.String("output", outputPath))
	return nil
}

// OverlayPresenter composites a presenter clip into the corner of the
// assembled video. This stage is strictly optional: any failure, including
// a missing clip file, returns the un-overlaid video path with a warning
// rather than an error.
func (a *Assembler) OverlayPresenter(ctx context.Context, videoPath, presenterClip, outputPath string) string {
	if strings.TrimSpace(presenterClip) == "" {
		return videoPath
	}
	if _, err := os.Stat(presenterClip); err != nil {
		a.logger.WarnContext(ctx, "presenter clip unavailable, skipping overlay",
			logging.String("clip", presenterClip))
		return videoPath
	}

	err := a.run(ctx, a.ffmpegBinary,
		"-y",
		"-i", videoPath,
		"-i", presenterClip,
		"-filter_complex", "[1:v]scale=320:-2[pip];[0:v][pip]overlay=W-w-40:H-h-40:shortest=1[v]",
		"-map", "[v]", "-map", "0:a?",
		"-c:a", "copy",
		outputPath,
	)
	if err != nil {
		a.logger.WarnContext(ctx, "presenter overlay failed, using base video", logging.Error(err))
		return videoPath
	}
	return outputPath
}

func concatList(paths []string) string {
	var sb strings.Builder
	for _, path := range paths {
		fmt.Fprintf(&sb, "file '%s'\n", path)
	}
	return sb.String()
}
