package ui

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/gyaneshwarpardhi/churn/internal/customer"
	"github.com/gyaneshwarpardhi/churn/internal/explain"
)

// Waterfall geometry, in SVG user units.
const (
	chartLabelWidth = 230.0
	chartPlotWidth  = 380.0
	chartRowHeight  = 30.0
	chartPadTop     = 34.0
	chartPadBottom  = 40.0
	chartValueGap   = 6.0
)

type waterfallBar struct {
	Label  string
	Value  string // signed contribution
	Up     bool   // pushes toward churn
	X, Y   float64
	Width  float64
	Height float64
	TextX  float64 // value label anchor
	TextY  float64
}

type waterfall struct {
	Width, Height float64
	PlotLeft      float64
	Bars          []waterfallBar
	BaseX         float64
	OutputX       float64
	BaseLabel     string
	OutputLabel   string
	AxisY         float64
}

// newWaterfall lays out the largest limit attributions as a waterfall: the
// bottom bar starts at the base value and each bar above continues from the
// previous one, so the top bar ends at the model output.
func newWaterfall(entries []explain.Entry, base float64, rec customer.Record, limit int) waterfall {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b explain.Entry) int {
		return cmp.Compare(math.Abs(b.Contribution), math.Abs(a.Contribution))
	})

	// Attributions beyond limit are folded into one bar so the chart still ends at the output.
	if len(sorted) > limit {
		rest := 0.0
		for _, e := range sorted[limit-1:] {
			rest += e.Contribution
		}
		n := len(sorted) - (limit - 1)
		sorted = append(sorted[:limit-1], explain.Entry{
			Feature:      fmt.Sprintf("%d other features", n),
			Contribution: rest,
		})
	}

	// starts[i] is where bar i begins; bars are stacked from the bottom.
	starts := make([]float64, len(sorted))
	cum := base
	for i := len(sorted) - 1; i >= 0; i-- {
		starts[i] = cum
		cum += sorted[i].Contribution
	}
	output := cum

	lo, hi := math.Min(base, output), math.Max(base, output)
	for i, e := range sorted {
		lo = math.Min(lo, math.Min(starts[i], starts[i]+e.Contribution))
		hi = math.Max(hi, math.Max(starts[i], starts[i]+e.Contribution))
	}
	if span := hi - lo; span > 0 {
		lo -= span * 0.08
		hi += span * 0.08
	} else {
		lo, hi = lo-1, hi+1
	}
	scale := func(v float64) float64 {
		return chartLabelWidth + (v-lo)/(hi-lo)*chartPlotWidth
	}

	w := waterfall{
		Width:       chartLabelWidth + chartPlotWidth + 70,
		Height:      chartPadTop + chartRowHeight*float64(len(sorted)) + chartPadBottom,
		PlotLeft:    chartLabelWidth,
		BaseX:       scale(base),
		OutputX:     scale(output),
		BaseLabel:   fmt.Sprintf("E[f(x)] = %.3f", base),
		OutputLabel: fmt.Sprintf("f(x) = %.3f", output),
	}
	w.AxisY = chartPadTop + chartRowHeight*float64(len(sorted))

	for i, e := range sorted {
		x0, x1 := scale(starts[i]), scale(starts[i]+e.Contribution)
		up := e.Contribution >= 0
		bar := waterfallBar{
			Label:  explain.DriverText(e, rec),
			Value:  fmt.Sprintf("%+.3f", e.Contribution),
			Up:     up,
			X:      math.Min(x0, x1),
			Y:      chartPadTop + chartRowHeight*float64(i) + 4,
			Width:  math.Max(math.Abs(x1-x0), 1),
			Height: chartRowHeight - 8,
		}
		bar.TextY = bar.Y + bar.Height/2 + 4
		if up {
			bar.TextX = bar.X + bar.Width + chartValueGap
		} else {
			bar.TextX = bar.X - chartValueGap
		}
		w.Bars = append(w.Bars, bar)
	}
	return w
}
