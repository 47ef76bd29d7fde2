package risk

import (
	"errors"
	"testing"

	"github.com/gyaneshwarpardhi/churn/internal/features"
)

func TestTierFor(t *testing.T) {
	cases := []struct {
		p    float64
		want Tier
	}{
		{0, TierLow},
		{0.29, TierLow},
		{0.2999999, TierLow},
		{0.30, TierMedium},
		{0.5, TierMedium},
		{0.69, TierMedium},
		{0.70, TierHigh},
		{1, TierHigh},
	}
	for _, tc := range cases {
		if got := TierFor(tc.p); got != tc.want {
			t.Errorf("TierFor(%v) = %s, want %s", tc.p, got, tc.want)
		}
	}
}

type stubClassifier struct {
	p      float64
	label  int
	err    error
	panics bool
	calls  int
}

func (s *stubClassifier) PredictProba(row []float64) (float64, error) {
	s.calls++
	if s.panics {
		panic("index out of range")
	}
	if len(row) != features.Width {
		return 0, errors.New("bad shape")
	}
	return s.p, s.err
}

func (s *stubClassifier) Predict(row []float64) (int, error) {
	return s.label, s.err
}

func TestAssess_Success(t *testing.T) {
	clf := &stubClassifier{p: 0.82, label: 1}
	a, err := NewAssessor(clf).Assess(features.Vector{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Tier != TierHigh || !a.Churn || a.Label() != "Churn" {
		t.Errorf("unexpected assessment %+v", a)
	}
}

func TestAssess_Unavailable(t *testing.T) {
	_, err := NewAssessor(nil).Assess(features.Vector{})
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	var nilAssessor *Assessor
	if _, err := nilAssessor.Assess(features.Vector{}); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable from nil assessor, got %v", err)
	}
}

func TestAssess_WrapsClassifierFailures(t *testing.T) {
	cases := []struct {
		name string
		clf  *stubClassifier
	}{
		{"error", &stubClassifier{err: errors.New("bad vector")}},
		{"panic", &stubClassifier{panics: true}},
		{"out of range", &stubClassifier{p: 1.5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewAssessor(tc.clf).Assess(features.Vector{})
			var pe *PredictionError
			if !errors.As(err, &pe) {
				t.Fatalf("expected PredictionError, got %v", err)
			}
		})
	}
}

func TestAdvice(t *testing.T) {
	for _, tier := range []Tier{TierLow, TierMedium, TierHigh} {
		if tier.Advice() == "" {
			t.Errorf("tier %s has no advice", tier)
		}
	}
}
