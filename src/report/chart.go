package report

import (
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

func barStyle(col drawing.Color) chart.Style {
	return chart.Style{
		FillColor:   col.WithAlpha(160),
		StrokeColor: col,
		StrokeWidth: 1,
	}
}

// RenderRTTChart renders a PNG bar chart of per-origin median RTT.
func RenderRTTChart(r *Report, w io.Writer) error {
	return renderMedianBars(r, w, "Median RTT by origin (ms)", func(row OriginTiming) *float64 {
		if row.RTT == nil {
			return nil
		}
		return &row.RTT.Median
	})
}

// RenderServerTimeChart renders a PNG bar chart of per-origin median
// server response time.
func RenderServerTimeChart(r *Report, w io.Writer) error {
	return renderMedianBars(r, w, "Median server response time by origin (ms)", func(row OriginTiming) *float64 {
		if row.ServerResponseTime == nil {
			return nil
		}
		return &row.ServerResponseTime.Median
	})
}

func renderMedianBars(r *Report, w io.Writer, title string, value func(OriginTiming) *float64) error {
	var bars []chart.Value
	st := barStyle(chart.ColorBlue)
	for _, row := range r.Origins {
		v := value(row)
		if v == nil {
			continue
		}
		bars = append(bars, chart.Value{Label: row.Origin, Value: *v, Style: st})
	}
	if len(bars) == 0 {
		return ErrNothingToChart
	}
	bc := chart.BarChart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 36, Left: 12, Right: 12, Bottom: 12}},
		Width:      max(320, 140*len(bars)),
		Height:     360,
		BarWidth:   80,
		Bars:       bars,
	}
	return bc.Render(chart.PNG, w)
}
