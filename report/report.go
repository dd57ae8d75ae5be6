// Package report renders a finished equity curve as a PNG line chart.
package report

import (
	"errors"
	"os"
	"time"

	"github.com/vicanso/go-charts/v2"

	"github.com/quantlab/rebal/backtest"
)

// Render draws the equity curve and returns PNG bytes. It needs at least
// two points to draw a line.
func Render(curve backtest.EquityCurve, title string) ([]byte, error) {
	if len(curve) < 2 {
		return nil, errors.New("report: not enough equity points to chart")
	}

	values := make([]float64, len(curve))
	labels := make([]string, len(curve))
	yMin, yMax := curve[0].Value, curve[0].Value
	for i, p := range curve {
		values[i] = p.Value
		labels[i] = p.Date.Format(time.DateOnly)
		if p.Value < yMin {
			yMin = p.Value
		}
		if p.Value > yMax {
			yMax = p.Value
		}
	}

	// pad the y range so the curve doesn't hug the frame
	pad := (yMax - yMin) * 0.05
	if pad < yMax*0.002 {
		pad = yMax * 0.002
	}
	yMin -= pad
	if yMin < 0 {
		yMin = 0
	}
	yMax += pad

	split := 12
	if len(curve) < 60 {
		split = 6
	}

	painter, err := charts.LineRender([][]float64{values},
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			BoundaryGap: charts.FalseFlag(),
			SplitNumber: split,
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(500),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// WriteFile renders the curve and writes the PNG to path.
func WriteFile(path string, curve backtest.EquityCurve, title string) error {
	png, err := Render(curve, title)
	if err != nil {
		return err
	}
	return os.WriteFile(path, png, 0644)
}
