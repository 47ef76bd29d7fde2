package model

import (
	"fmt"
	"math"
)

// StandardScaler is a fitted z-score scaler: z = (x - mean) / scale.
// It is read-only once loaded.
type StandardScaler struct {
	Columns []string  `yaml:"columns" json:"columns"`
	Mean    []float64 `yaml:"mean" json:"mean"`
	Scale   []float64 `yaml:"scale" json:"scale"`
}

// Transform scales one row. The row must have exactly len(Columns) values
// in the fitted column order.
func (s *StandardScaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("scaler: got %d columns, fitted on %d", len(row), len(s.Mean))
	}
	out := make([]float64, len(row))
	for i, x := range row {
		scale := s.Scale[i]
		if scale == 0 {
			// Constant column at fit time; the fitting library leaves these unscaled.
			scale = 1
		}
		out[i] = (x - s.Mean[i]) / scale
	}
	return out, nil
}

func (s *StandardScaler) validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("scaler: columns are required")
	}
	if len(s.Mean) != len(s.Columns) || len(s.Scale) != len(s.Columns) {
		return fmt.Errorf("scaler: %d columns but %d means and %d scales", len(s.Columns), len(s.Mean), len(s.Scale))
	}
	for i := range s.Columns {
		if math.IsNaN(s.Mean[i]) || math.IsInf(s.Mean[i], 0) {
			return fmt.Errorf("scaler: mean for %s is not finite", s.Columns[i])
		}
		if math.IsNaN(s.Scale[i]) || math.IsInf(s.Scale[i], 0) || s.Scale[i] < 0 {
			return fmt.Errorf("scaler: scale for %s must be finite and non-negative", s.Columns[i])
		}
	}
	return nil
}
