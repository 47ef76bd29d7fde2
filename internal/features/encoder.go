package features

import (
	"fmt"

	"github.com/gyaneshwarpardhi/churn/internal/customer"
)

// Column names in the order the classifier was fitted on. The order is load-bearing.
const (
	ColAge            = "Age"
	ColGender         = "Gender"
	ColTenure         = "Tenure"
	ColMonthlyCharges = "MonthlyCharges"
	ColFiberOptic     = "InternetService_FiberOptic"
	ColNoInternet     = "InternetService_NoInternet"
	ColTechSupportYes = "TechSupport_Yes"
)

// Width is the number of model inputs.
const Width = 7

// Columns lists every model input in fitted order.
var Columns = [Width]string{
	ColAge,
	ColGender,
	ColTenure,
	ColMonthlyCharges,
	ColFiberOptic,
	ColNoInternet,
	ColTechSupportYes,
}

// NumericColumns are the scaler's inputs, in the order it was fitted on.
var NumericColumns = [3]string{ColAge, ColTenure, ColMonthlyCharges}

// Positions of each column inside a Vector.
const (
	IdxAge = iota
	IdxGender
	IdxTenure
	IdxMonthlyCharges
	IdxFiberOptic
	IdxNoInternet
	IdxTechSupportYes
)

// Vector is one encoded row.
type Vector [Width]float64

// Slice returns the vector as a single-row model input.
func (v Vector) Slice() []float64 {
	out := make([]float64, Width)
	copy(out, v[:])
	return out
}

// Scaler transforms one row of numeric columns. Implementations must return
// a row of the same width and order.
type Scaler interface {
	Transform(row []float64) ([]float64, error)
}

// Encode maps a validated record to the model's input vector.
// The only possible failure comes from the scaler.
func Encode(rec customer.Record, scaler Scaler) (Vector, error) {
	var v Vector

	scaled, err := scaler.Transform([]float64{
		float64(rec.Age),
		float64(rec.Tenure),
		rec.MonthlyCharges,
	})
	if err != nil {
		return v, fmt.Errorf("scale numeric columns: %w", err)
	}
	if len(scaled) != len(NumericColumns) {
		return v, fmt.Errorf("scaler returned %d columns, want %d", len(scaled), len(NumericColumns))
	}

	v[IdxAge] = scaled[0]
	v[IdxTenure] = scaled[1]
	v[IdxMonthlyCharges] = scaled[2]

	if rec.Gender == customer.Female {
		v[IdxGender] = 1
	}
	// DSL is the implicit baseline: both indicators stay 0.
	switch rec.InternetService {
	case customer.FiberOptic:
		v[IdxFiberOptic] = 1
	case customer.NoInternet:
		v[IdxNoInternet] = 1
	}
	if rec.TechSupport == customer.TechSupportYes {
		v[IdxTechSupportYes] = 1
	}
	return v, nil
}

// Index returns the vector position of a column name, matching names with
// spaces removed so "InternetService_Fiber Optic" resolves too.
func Index(name string) (int, bool) {
	key := canonical(name)
	for i, c := range Columns {
		if canonical(c) == key {
			return i, true
		}
	}
	return 0, false
}

func canonical(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		if name[i] != ' ' {
			out = append(out, name[i])
		}
	}
	return string(out)
}
