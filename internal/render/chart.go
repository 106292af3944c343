package render

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"

	"scholarcast/internal/outline"
)

// renderChart draws a simple bar chart for the slide's figures. The chart
// is returned as an image and composited into the slide by the caller.
func (r *Renderer) renderChart(figures []outline.Figure, width, height int) image.Image {
	dc := gg.NewContext(width, height)

	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0.75, 0.75, 0.8)
	dc.SetLineWidth(2)
	dc.DrawRectangle(1, 1, float64(width)-2, float64(height)-2)
	dc.Stroke()

	maxValue := 0.0
	for _, figure := range figures {
		if figure.Value > maxValue {
			maxValue = figure.Value
		}
	}
	if maxValue <= 0 {
		maxValue = 1
	}

	r.setFont(dc, float64(height)/16)
	labelBand := dc.FontHeight()*2 + 10
	plotTop := 14.0
	plotBottom := float64(height) - labelBand
	plotHeight := plotBottom - plotTop

	barSlot := float64(width-20) / float64(len(figures))
	barWidth := barSlot * 0.6

	for i, figure := range figures {
		barHeight := figure.Value / maxValue * plotHeight
		x := 10 + float64(i)*barSlot + (barSlot-barWidth)/2
		y := plotBottom - barHeight

		dc.SetRGB(0.25, 0.41, 0.88)
		dc.DrawRectangle(x, y, barWidth, barHeight)
		dc.Fill()

		dc.SetRGB(0.2, 0.2, 0.24)
		dc.DrawStringAnchored(formatFigureValue(figure.Value), x+barWidth/2, y-4, 0.5, 0)
		label := figure.Label
		if len(label) > 12 {
			label = label[:11] + "…"
		}
		dc.DrawStringAnchored(label, x+barWidth/2, plotBottom+dc.FontHeight(), 0.5, 0)
	}

	return dc.Image()
}

func formatFigureValue(value float64) string {
	if value == float64(int64(value)) {
		return fmt.Sprintf("%d", int64(value))
	}
	return fmt.Sprintf("%.1f", value)
}
