package resistance

import (
	"bytes"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/c9s/bandbot/pkg/analysis"
	"github.com/c9s/bandbot/pkg/types"
)

// DrawBand plots the window samples together with the fitted lines
func DrawBand(title string, buf *analysis.SampleBuffer, lines analysis.RegressionLines) *types.Canvas {
	canvas := types.NewCanvas(title)

	elapsed := buf.Elapsed()
	if len(elapsed) == 0 {
		return canvas
	}

	xs := make([]float64, len(elapsed))
	for i, e := range elapsed {
		xs[i] = float64(e)
	}

	canvas.PlotDots("mid", xs, buf.Prices())

	ends := []float64{xs[0], xs[len(xs)-1]}
	canvas.PlotLine("upper", ends, []float64{lines.UpperAt(ends[0]), lines.UpperAt(ends[1])},
		chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 1})
	canvas.PlotLine("trend", ends, []float64{lines.At(ends[0]), lines.At(ends[1])},
		chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 1})
	canvas.PlotLine("lower", ends, []float64{lines.LowerAt(ends[0]), lines.LowerAt(ends[1])},
		chart.Style{StrokeColor: chart.ColorGreen, StrokeWidth: 1})
	return canvas
}

// RenderBand renders the band chart as png
func RenderBand(title string, buf *analysis.SampleBuffer, lines analysis.RegressionLines) (*bytes.Buffer, error) {
	var buffer bytes.Buffer
	canvas := DrawBand(title, buf, lines)
	if err := canvas.Render(chart.PNG, &buffer); err != nil {
		return nil, err
	}
	return &buffer, nil
}
