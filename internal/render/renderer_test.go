package render

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"scholarcast/internal/config"
	"scholarcast/internal/outline"
)

func testRenderer() *Renderer {
	return NewRenderer(config.Render{Width: 640, Height: 360}, nil)
}

func TestRenderSlidesWritesOnePNGPerSlide(t *testing.T) {
	dir := t.TempDir()
	slides := []outline.Slide{
		{Title: "Overview", Bullets: []string{"First point", "Second point", "Third point"}},
		{Title: "Method", Bullets: []string{"Sparse kernels", "Training recipe", "Memory use"}},
		{Title: "Results", Bullets: []string{"Accuracy", "Speed", "Memory"}},
	}

	paths, err := testRenderer().RenderSlides(context.Background(), slides, dir)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 images, got %d", len(paths))
	}
	for _, path := range paths {
		file, openErr := os.Open(path)
		if openErr != nil {
			t.Fatalf("open %s: %v", path, openErr)
		}
		img, decodeErr := png.Decode(file)
		file.Close()
		if decodeErr != nil {
			t.Fatalf("decode %s: %v", path, decodeErr)
		}
		if img.Bounds().Dx() != 640 || img.Bounds().Dy() != 360 {
			t.Fatalf("unexpected image size %v", img.Bounds())
		}
	}
}

func TestRenderSlidesWithFigures(t *testing.T) {
	dir := t.TempDir()
	slides := []outline.Slide{
		{
			Title:   "Results",
			Bullets: []string{"Our model beats the baseline", "Evaluated on three datasets", "Code released"},
			Figures: []outline.Figure{
				{Label: "baseline", Value: 71.2},
				{Label: "ours", Value: 76.4},
			},
		},
	}

	paths, err := testRenderer().RenderSlides(context.Background(), slides, dir)
	if err != nil {
		t.Fatalf("render with figures: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected 1 image, got %d", len(paths))
	}
}

func TestRenderSlidesHandlesLongContent(t *testing.T) {
	long := "This bullet goes on for quite a while to force word wrapping across multiple rendered lines and then get clipped at the per-bullet maximum so nothing overflows the slide body area"
	slides := []outline.Slide{
		{Title: "A very long slide title that should wrap onto a second line without breaking layout", Bullets: []string{long, long, long, long, long}},
	}

	paths, err := testRenderer().RenderSlides(context.Background(), slides, t.TempDir())
	if err != nil {
		t.Fatalf("render long content: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected 1 image, got %d", len(paths))
	}
}

func TestRenderSlidesMissingFontFallsBack(t *testing.T) {
	renderer := NewRenderer(config.Render{Width: 320, Height: 180, FontPath: filepath.Join(t.TempDir(), "missing.ttf")}, nil)
	paths, err := renderer.RenderSlides(context.Background(), []outline.Slide{
		{Title: "Title", Bullets: []string{"one", "two", "three"}},
	}, t.TempDir())
	if err != nil {
		t.Fatalf("render with missing font: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected 1 image, got %d", len(paths))
	}
}
