package render

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"scholarcast/internal/config"
	"scholarcast/internal/logging"
	"scholarcast/internal/outline"
	"scholarcast/internal/services"
)

// maxBulletLines caps how many wrapped lines a single bullet may occupy.
const maxBulletLines = 4

// Renderer draws slide images for the assembler.
type Renderer struct {
	width    int
	height   int
	fontPath string
	logger   *slog.Logger
}

// NewRenderer constructs a slide renderer from configuration.
func NewRenderer(cfg config.Render, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Renderer{
		width:    cfg.Width,
		height:   cfg.Height,
		fontPath: cfg.FontPath,
		logger:   logging.NewComponentLogger(logger, "render"),
	}
}

// RenderSlides writes one PNG per slide into dir and returns the paths in
// slide order.
func (r *Renderer) RenderSlides(ctx context.Context, slides []outline.Slide, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrStorage, "assemble", "render", "create slide directory", err)
	}

	paths := make([]string, 0, len(slides))
	for i, slide := range slides {
		path := filepath.Join(dir, fmt.Sprintf("slide_%02d.png", i))
		if err := r.renderSlide(slide, path); err != nil {
			return nil, services.Wrap(services.ErrStorage, "assemble", "render", fmt.Sprintf("render slide %d", i), err)
		}
		paths = append(paths, path)
	}

	r.logger.InfoContext(ctx, "slides rendered", logging.Int("count", len(paths)))
	return paths, nil
}

func (r *Renderer) renderSlide(slide outline.Slide, path string) error {
	dc := gg.NewContext(r.width, r.height)

	// Background and footer band.
	dc.SetRGB(0.97, 0.97, 0.99)
	dc.Clear()
	dc.SetRGB(0.17, 0.24, 0.47)
	dc.DrawRectangle(0, float64(r.height)-12, float64(r.width), 12)
	dc.Fill()

	margin := float64(r.width) / 16

	// Title.
	r.setFont(dc, float64(r.height)/14)
	dc.SetRGB(0.12, 0.16, 0.32)
	titleLines := dc.WordWrap(slide.Title, float64(r.width)-2*margin)
	if len(titleLines) > 2 {
		titleLines = titleLines[:2]
	}
	y := margin
	titleHeight := dc.FontHeight() * 1.3
	for _, line := range titleLines {
		dc.DrawString(line, margin, y+dc.FontHeight())
		y += titleHeight
	}

	// Divider under the title.
	dc.SetRGB(0.17, 0.24, 0.47)
	dc.DrawRectangle(margin, y+8, float64(r.width)-2*margin, 3)
	dc.Fill()
	y += 30

	// Reserve a corner region for the chart when figures are present.
	var chart image.Image
	wrapWidth := float64(r.width) - 2*margin
	if len(slide.Figures) > 0 {
		chartWidth := r.width * 2 / 5
		chartHeight := r.height * 2 / 5
		chart = r.renderChart(slide.Figures, chartWidth, chartHeight)
		wrapWidth = float64(r.width) - 2*margin - float64(chartWidth) - 20
	}

	// Bullets, clipped at the vertical budget.
	r.setFont(dc, float64(r.height)/22)
	dc.SetRGB(0.20, 0.20, 0.24)
	lineHeight := dc.FontHeight() * 1.5
	budget := float64(r.height) - margin
	for _, bullet := range slide.Bullets {
		lines := dc.WordWrap(bullet, wrapWidth-30)
		if len(lines) > maxBulletLines {
			lines = lines[:maxBulletLines]
		}
		for j, line := range lines {
			if y+lineHeight > budget {
				break
			}
			x := margin + 30
			if j == 0 {
				dc.DrawString("•", margin, y+dc.FontHeight())
			}
			dc.DrawString(line, x, y+dc.FontHeight())
			y += lineHeight
		}
		y += lineHeight * 0.3
	}

	if chart != nil {
		bounds := chart.Bounds()
		dc.DrawImage(chart,
			r.width-bounds.Dx()-int(margin/2),
			r.height-bounds.Dy()-int(margin/2))
	}

	return dc.SavePNG(path)
}

// setFont loads the configured font face at the given size, falling back to
// a builtin bitmap face when no usable font file is configured.
func (r *Renderer) setFont(dc *gg.Context, points float64) {
	if r.fontPath != "" {
		if err := dc.LoadFontFace(r.fontPath, points); err == nil {
			return
		}
		r.logger.Warn("font load failed, using builtin face", logging.String("font_path", r.fontPath))
	}
	dc.SetFontFace(basicfont.Face7x13)
}
