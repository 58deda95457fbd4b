package finance

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vicanso/go-charts/v2"
)

const (
	lineChartWidth  = 1760
	lineChartHeight = 960
)

// RollingSeries is one named rolling-correlation line.
type RollingSeries struct {
	Name   string
	Values []float64
}

// MakeRebasedChart renders the rebased price columns of f as one line
// chart with a shared y-axis.
func MakeRebasedChart(f *Frame) ([]byte, error) {
	if f.Len() < 2 || len(f.Columns) == 0 {
		return nil, errors.New("not enough data points")
	}
	values := make([][]float64, 0, len(f.Columns))
	var gmin, gmax *float64
	for _, col := range f.Values {
		out := make([]float64, len(col))
		for i, v := range col {
			if math.IsNaN(v) {
				out[i] = charts.GetNullValue()
				continue
			}
			out[i] = v
			if gmin == nil || v < *gmin {
				vv := v
				gmin = &vv
			}
			if gmax == nil || v > *gmax {
				vv := v
				gmax = &vv
			}
		}
		values = append(values, out)
	}
	var yMin, yMax *float64
	if gmin != nil && gmax != nil {
		pad := (*gmax - *gmin) * 0.05
		vmin := *gmin - pad
		vmax := *gmax + pad
		yMin = &vmin
		yMax = &vmax
	}

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = f.Columns[i]
		seriesList[i].AxisIndex = 0
	}
	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc("Rebased Prices (100 = first valid day)", "Index Level"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: dateLabels(f.Dates), BoundaryGap: charts.FalseFlag(), SplitNumber: 12}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: yMin, Max: yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: f.Columns, Left: charts.PositionRight}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.PNGTypeOption(),
		charts.WidthOptionFunc(lineChartWidth),
		charts.HeightOptionFunc(lineChartHeight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return painter.Bytes()
}

// MakeRollingChart renders rolling correlation lines against a zero
// baseline on a fixed [-1, 1] axis.
func MakeRollingChart(dates []time.Time, window int, series []RollingSeries) ([]byte, error) {
	if len(dates) < 2 || len(series) == 0 {
		return nil, errors.New("not enough data points")
	}
	values := make([][]float64, 0, len(series)+1)
	names := make([]string, 0, len(series)+1)
	for _, s := range series {
		out := make([]float64, len(dates))
		for i := range out {
			if i >= len(s.Values) || math.IsNaN(s.Values[i]) {
				out[i] = charts.GetNullValue()
				continue
			}
			out[i] = s.Values[i]
		}
		values = append(values, out)
		names = append(names, s.Name)
	}
	values = append(values, make([]float64, len(dates)))
	names = append(names, "0")

	yMin, yMax := -1.0, 1.0
	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = names[i]
	}
	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc(fmt.Sprintf("Rolling %d-Day Correlations", window), "Correlation"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: dateLabels(dates), BoundaryGap: charts.FalseFlag(), SplitNumber: 12}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 8}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names, Left: charts.PositionRight}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.PNGTypeOption(),
		charts.WidthOptionFunc(lineChartWidth),
		charts.HeightOptionFunc(lineChartHeight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return painter.Bytes()
}

func dateLabels(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	return out
}
