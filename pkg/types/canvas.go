package types

import (
	"github.com/wcharczuk/go-chart/v2"
)

// Canvas is a chart with a left legend, x values are plain numbers
type Canvas struct {
	chart.Chart
}

func NewCanvas(title string) *Canvas {
	out := &Canvas{
		Chart: chart.Chart{
			Title: title,
			XAxis: chart.XAxis{
				Name:           "elapsed (s)",
				ValueFormatter: chart.FloatValueFormatter,
			},
			YAxis: chart.YAxis{
				ValueFormatter: chart.FloatValueFormatter,
			},
		},
	}
	out.Chart.Elements = []chart.Renderable{
		chart.LegendLeft(&out.Chart),
	}
	return out
}

// PlotLine adds a continuous line through the given points
func (canvas *Canvas) PlotLine(tag string, xs, ys []float64, color chart.Style) {
	if len(xs) == 0 || len(xs) != len(ys) {
		return
	}

	canvas.Series = append(canvas.Series, chart.ContinuousSeries{
		Name:    tag,
		XValues: xs,
		YValues: ys,
		Style:   color,
	})
}

// PlotDots adds the points without connecting them
func (canvas *Canvas) PlotDots(tag string, xs, ys []float64) {
	if len(xs) == 0 || len(xs) != len(ys) {
		return
	}

	canvas.Series = append(canvas.Series, chart.ContinuousSeries{
		Name:    tag,
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    3,
		},
	})
}
