package ffprobe

import (
	"context"
	"os/exec"
	"testing"
)

func TestDurationSecondsPrefersFormat(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio", Duration: "10.5"},
		},
		Format: Format{Duration: "123.45"},
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestDurationSecondsFallsBackToLongestStream(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio", Duration: "10.5"},
			{CodecType: "video", Duration: "12.25"},
		},
	}
	if result.DurationSeconds() != 12.25 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestDurationSecondsHandlesInvalidNumbers(t *testing.T) {
	result := Result{
		Streams: []Stream{{Duration: "nope"}},
		Format:  Format{Duration: "bad"},
	}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected 0, got %v", result.DurationSeconds())
	}
}

func TestStreamCounts(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio"},
			{CodecType: "audio"},
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
}

func TestProbeDurationSoftFails(t *testing.T) {
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "false")
	}
	defer func() { commandContext = original }()

	if got := ProbeDuration(context.Background(), "ffprobe", "/nonexistent.mp3"); got != 0 {
		t.Fatalf("expected 0 on probe failure, got %v", got)
	}
}

func TestProbeDurationParsesOutput(t *testing.T) {
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "echo", `{"format":{"duration":"42.5"}}`)
	}
	defer func() { commandContext = original }()

	if got := ProbeDuration(context.Background(), "ffprobe", "narration.mp3"); got != 42.5 {
		t.Fatalf("expected 42.5, got %v", got)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
