package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/gyaneshwarpardhi/churn/internal/features"
)

// ErrModelUnavailable is returned when the classifier or scaler did not load.
// Requests in that state are rejected before any prediction is attempted.
var ErrModelUnavailable = errors.New("model unavailable")

// PredictionError wraps a failure raised by the classifier for one request.
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string { return "prediction failed: " + e.Err.Error() }

func (e *PredictionError) Unwrap() error { return e.Err }

// Classifier is the fitted model's prediction contract for one row.
type Classifier interface {
	PredictProba(row []float64) (float64, error) // churn-class probability
	Predict(row []float64) (int, error)          // 1 = churn
}

// Assessment is the outcome of scoring one customer.
type Assessment struct {
	Probability float64 `json:"probability"`
	Tier        Tier    `json:"tier"`
	Churn       bool    `json:"churn"`
}

// Label is the API spelling of the hard prediction.
func (a Assessment) Label() string {
	if a.Churn {
		return "Churn"
	}
	return "No Churn"
}

// Assessor adapts a Classifier to the tiered assessment.
type Assessor struct {
	clf Classifier
}

// NewAssessor wraps clf. A nil clf yields an assessor that always reports
// ErrModelUnavailable.
func NewAssessor(clf Classifier) *Assessor {
	return &Assessor{clf: clf}
}

// Assess scores one encoded vector.
func (a *Assessor) Assess(v features.Vector) (res Assessment, err error) {
	if a == nil || a.clf == nil {
		return Assessment{}, ErrModelUnavailable
	}
	defer func() {
		if r := recover(); r != nil {
			res, err = Assessment{}, &PredictionError{Err: fmt.Errorf("classifier panic: %v", r)}
		}
	}()

	row := v.Slice()
	p, err := a.clf.PredictProba(row)
	if err != nil {
		return Assessment{}, &PredictionError{Err: err}
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return Assessment{}, &PredictionError{Err: fmt.Errorf("probability %v outside [0, 1]", p)}
	}
	label, err := a.clf.Predict(row)
	if err != nil {
		return Assessment{}, &PredictionError{Err: err}
	}
	return Assessment{
		Probability: p,
		Tier:        TierFor(p),
		Churn:       label == 1,
	}, nil
}
