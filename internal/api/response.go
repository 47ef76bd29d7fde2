package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/gyaneshwarpardhi/churn/internal/customer"
	"github.com/gyaneshwarpardhi/churn/internal/explain"
	"github.com/gyaneshwarpardhi/churn/internal/logging"
	"github.com/gyaneshwarpardhi/churn/internal/risk"
	"github.com/gyaneshwarpardhi/churn/internal/service"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope. Detail is a string, or the
// field list for validation failures.
type errorResponse struct {
	Detail any `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeServiceError maps scoring errors onto status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs customer.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeError(w, http.StatusUnprocessableEntity, verrs)
	case errors.Is(err, errMalformed):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, risk.ErrModelUnavailable):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		logging.L(r.Context()).Error("prediction failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// Percent converts a probability to a percentage rounded half away from
// zero to 2 decimals.
func Percent(p float64) float64 {
	f, _ := decimal.NewFromFloat(p).Shift(2).Round(2).Float64()
	return f
}

// predictResponse is the /predict payload. RiskDrivers carries the tier
// name; the field name is kept for existing clients.
type predictResponse struct {
	Prediction         string  `json:"prediction"`
	ProbabilityPercent float64 `json:"probability_percent"`
	RiskDrivers        string  `json:"risk_drivers"`
}

func newPredictResponse(a risk.Assessment) predictResponse {
	return predictResponse{
		Prediction:         a.Label(),
		ProbabilityPercent: Percent(a.Probability),
		RiskDrivers:        string(a.Tier),
	}
}

type batchResult struct {
	Index int `json:"index"`
	*predictResponse
	Error any `json:"error,omitempty"`
}

type batchResponse struct {
	BatchID   string        `json:"batch_id"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Results   []batchResult `json:"results"`
}

type explainResponse struct {
	Prediction         string          `json:"prediction"`
	ProbabilityPercent float64         `json:"probability_percent"`
	Tier               string          `json:"tier"`
	TierAdvice         string          `json:"tier_advice"`
	RiskDrivers        []string        `json:"risk_drivers"`
	SafetyDrivers      []string        `json:"safety_drivers"`
	Suggestions        []string        `json:"suggestions"`
	BaseValue          float64         `json:"base_value"`
	Contributions      []explain.Entry `json:"contributions"`
}

func newExplainResponse(ex *service.Explanation) explainResponse {
	a := ex.Assessment
	return explainResponse{
		Prediction:         a.Label(),
		ProbabilityPercent: Percent(a.Probability),
		Tier:               string(a.Tier),
		TierAdvice:         a.Tier.Advice(),
		RiskDrivers:        ex.Summary.RiskDrivers,
		SafetyDrivers:      ex.Summary.SafetyDrivers,
		Suggestions:        ex.Summary.Suggestions,
		BaseValue:          ex.BaseValue,
		Contributions:      ex.Entries,
	}
}
