package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/churn/internal/customer"
	"github.com/gyaneshwarpardhi/churn/internal/explain"
	"github.com/gyaneshwarpardhi/churn/internal/features"
)

func TestWaterfall_OrdersByMagnitude(t *testing.T) {
	rec := customer.Record{Age: 40, Gender: customer.Male, Tenure: 3, MonthlyCharges: 90,
		InternetService: customer.FiberOptic, TechSupport: customer.TechSupportNo}
	entries := []explain.Entry{
		{Feature: features.ColAge, Contribution: 0.05},
		{Feature: features.ColTenure, Contribution: -0.8},
		{Feature: features.ColFiberOptic, RawValue: 1, Contribution: 1.2},
	}

	w := newWaterfall(entries, -0.5, rec, 10)
	require.Len(t, w.Bars, 3)
	assert.Equal(t, "Uses Fiber Optic Internet", w.Bars[0].Label)
	assert.Equal(t, "Tenure: 3 months", w.Bars[1].Label)
	assert.Equal(t, "Age: 40 years", w.Bars[2].Label)

	assert.True(t, w.Bars[0].Up)
	assert.False(t, w.Bars[1].Up)
	assert.Equal(t, "-0.800", w.Bars[1].Value)
	assert.Equal(t, "f(x) = -0.050", w.OutputLabel)
	assert.Equal(t, "E[f(x)] = -0.500", w.BaseLabel)

	// Output lies right of base since the total push is positive.
	assert.Greater(t, w.OutputX, w.BaseX)
	for _, b := range w.Bars {
		assert.GreaterOrEqual(t, b.X, w.PlotLeft)
		assert.LessOrEqual(t, b.X+b.Width, w.PlotLeft+chartPlotWidth+1e-9)
		assert.Greater(t, b.Width, 0.0)
	}
}

func TestWaterfall_FoldsTail(t *testing.T) {
	entries := make([]explain.Entry, features.Width)
	for i := range entries {
		entries[i] = explain.Entry{Feature: features.Columns[i], Contribution: float64(i+1) * 0.1}
	}

	w := newWaterfall(entries, 0, customer.Record{}, 3)
	require.Len(t, w.Bars, 3)
	assert.Equal(t, "5 other features", w.Bars[2].Label)
	assert.Equal(t, "+1.500", w.Bars[2].Value)
	assert.Equal(t, "f(x) = 2.800", w.OutputLabel)
}

func TestWaterfall_FlatInput(t *testing.T) {
	w := newWaterfall([]explain.Entry{{Feature: features.ColAge}}, 0.3, customer.Record{Age: 50}, 10)
	require.Len(t, w.Bars, 1)
	assert.Equal(t, w.BaseX, w.OutputX)
	assert.Equal(t, 1.0, w.Bars[0].Width)
}
