package finance

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// MakeScatterChart plots y against x with the line intercept+slope*x drawn
// over the sorted x values. Points with a missing coordinate are skipped.
func MakeScatterChart(title, xName, yName string, x, y []float64, intercept, slope float64) ([]byte, error) {
	xs, ys := pairwise(x, y)
	if len(xs) < 2 {
		return nil, errors.New("not enough data points")
	}
	xLine := append([]float64(nil), xs...)
	sort.Float64s(xLine)
	yLine := make([]float64, len(xLine))
	for i, v := range xLine {
		yLine[i] = intercept + slope*v
	}

	graph := chart.Chart{
		Title:  title,
		Width:  1120,
		Height: 960,
		Background: chart.Style{
			Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{Name: xName},
		YAxis: chart.YAxis{Name: yName},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name: yName,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    3,
					DotColor:    drawing.ColorBlue.WithAlpha(128),
				},
				XValues: xs,
				YValues: ys,
			},
			chart.ContinuousSeries{
				Name: "fit",
				Style: chart.Style{
					StrokeColor: drawing.ColorRed,
					StrokeWidth: 2,
				},
				XValues: xLine,
				YValues: yLine,
			},
		},
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render scatter chart: %w", err)
	}
	return buf.Bytes(), nil
}
