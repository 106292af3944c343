package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recordedCommand struct {
	name string
	args []string
}

func newRecordingAssembler(t *testing.T) (*Assembler, *[]recordedCommand) {
	t.Helper()
	var commands []recordedCommand
	assembler := NewAssembler("ffmpeg", 20, nil)
	assembler.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		commands = append(commands, recordedCommand{name: name, args: args})
		return nil
	})
	return assembler, &commands
}

func TestClipDurationsUsesPerSegmentWhenComplete(t *testing.T) {
	assembler := NewAssembler("ffmpeg", 20, nil)
	durations := assembler.ClipDurations([]float64{9.5, 10.2, 11.0}, 30.7, 3)
	if durations[0] != 9.5 || durations[1] != 10.2 || durations[2] != 11.0 {
		t.Fatalf("expected per-segment durations, got %v", durations)
	}
}

func TestClipDurationsUniformSplitWhenSegmentsMissing(t *testing.T) {
	assembler := NewAssembler("ffmpeg", 20, nil)
	durations := assembler.ClipDurations(nil, 30, 3)
	for i, d := range durations {
		if d != 10 {
			t.Fatalf("expected uniform 10s clips, clip %d got %v", i, d)
		}
	}
}

func TestClipDurationsUniformSplitWhenAnySegmentIsZero(t *testing.T) {
	assembler := NewAssembler("ffmpeg", 20, nil)
	durations := assembler.ClipDurations([]float64{10, 0, 12}, 30, 3)
	for i, d := range durations {
		if d != 10 {
			t.Fatalf("expected uniform split for incomplete segments, clip %d got %v", i, d)
		}
	}
}

func TestClipDurationsDefaultWhenNothingMeasured(t *testing.T) {
	assembler := NewAssembler("ffmpeg", 20, nil)
	durations := assembler.ClipDurations(nil, 0, 2)
	for i, d := range durations {
		if d != 20 {
			t.Fatalf("expected default 20s clips, clip %d got %v", i, d)
		}
	}
}

func TestAssembleRunsEncodeConcatMux(t *testing.T) {
	assembler, commands := newRecordingAssembler(t)
	scratch := t.TempDir()
	output := filepath.Join(scratch, "final.mp4")

	err := assembler.Assemble(context.Background(),
		[]string{"slide_00.png", "slide_01.png", "slide_02.png"},
		[]float64{10, 10, 10},
		"narration.mp3", output, scratch)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	// 3 clip encodes + 1 concat + 1 mux.
	if len(*commands) != 5 {
		t.Fatalf("expected 5 ffmpeg invocations, got %d", len(*commands))
	}
	encode := (*commands)[0]
	if !containsArg(encode.args, "libx264") || !containsArg(encode.args, "10.000") {
		t.Fatalf("unexpected encode args: %v", encode.args)
	}
	concat := (*commands)[3]
	if !containsArg(concat.args, "concat") {
		t.Fatalf("expected concat invocation, got %v", concat.args)
	}
	mux := (*commands)[4]
	if !containsArg(mux.args, "narration.mp3") || !containsArg(mux.args, "aac") {
		t.Fatalf("unexpected mux args: %v", mux.args)
	}

	listData, readErr := os.ReadFile(filepath.Join(scratch, "clips.txt"))
	if readErr != nil {
		t.Fatalf("read concat list: %v", readErr)
	}
	if strings.Count(string(listData), "file '") != 3 {
		t.Fatalf("unexpected concat list: %q", listData)
	}
}

func TestAssembleValidatesInputs(t *testing.T) {
	assembler, _ := newRecordingAssembler(t)
	if err := assembler.Assemble(context.Background(), nil, nil, "a.mp3", "out.mp4", t.TempDir()); err == nil {
		t.Fatal("expected error for no slide images")
	}
	if err := assembler.Assemble(context.Background(), []string{"a.png"}, []float64{1, 2}, "a.mp3", "out.mp4", t.TempDir()); err == nil {
		t.Fatal("expected error for mismatched durations")
	}
}

func TestOverlayPresenterSkipsWhenUnconfigured(t *testing.T) {
	assembler, commands := newRecordingAssembler(t)
	got := assembler.OverlayPresenter(context.Background(), "base.mp4", "", "out.mp4")
	if got != "base.mp4" {
		t.Fatalf("expected base video, got %s", got)
	}
	if len(*commands) != 0 {
		t.Fatal("no command should run without a presenter clip")
	}
}

func TestOverlayPresenterFallsBackWhenClipMissing(t *testing.T) {
	assembler, commands := newRecordingAssembler(t)
	got := assembler.OverlayPresenter(context.Background(), "base.mp4", "/nonexistent/presenter.mp4", "out.mp4")
	if got != "base.mp4" {
		t.Fatalf("expected base video on missing clip, got %s", got)
	}
	if len(*commands) != 0 {
		t.Fatal("no command should run for a missing presenter clip")
	}
}

func TestOverlayPresenterComposites(t *testing.T) {
	assembler, commands := newRecordingAssembler(t)
	clip := filepath.Join(t.TempDir(), "presenter.mp4")
	if err := os.WriteFile(clip, []byte("clip"), 0o644); err != nil {
		t.Fatalf("write clip: %v", err)
	}

	got := assembler.OverlayPresenter(context.Background(), "base.mp4", clip, "out.mp4")
	if got != "out.mp4" {
		t.Fatalf("expected overlaid video path, got %s", got)
	}
	if len(*commands) != 1 {
		t.Fatalf("expected one ffmpeg invocation, got %d", len(*commands))
	}
	if !containsArg((*commands)[0].args, "-filter_complex") {
		t.Fatalf("expected overlay filter, got %v", (*commands)[0].args)
	}
}

func TestOverlayPresenterFallsBackOnFfmpegFailure(t *testing.T) {
	assembler := NewAssembler("ffmpeg", 20, nil)
	assembler.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return context.DeadlineExceeded
	})
	clip := filepath.Join(t.TempDir(), "presenter.mp4")
	if err := os.WriteFile(clip, []byte("clip"), 0o644); err != nil {
		t.Fatalf("write clip: %v", err)
	}

	got := assembler.OverlayPresenter(context.Background(), "base.mp4", clip, "out.mp4")
	if got != "base.mp4" {
		t.Fatalf("expected base video on ffmpeg failure, got %s", got)
	}
}

func containsArg(args []string, want string) bool {
	for _, arg := range args {
		if arg == want {
			return true
		}
	}
	return false
}
