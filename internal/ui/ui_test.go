package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/churn/internal/config"
	"github.com/gyaneshwarpardhi/churn/internal/explain"
	"github.com/gyaneshwarpardhi/churn/internal/model"
	"github.com/gyaneshwarpardhi/churn/internal/model/modeltest"
	"github.com/gyaneshwarpardhi/churn/internal/service"
)

func newUI(t *testing.T, ready bool) *Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	svc := service.New(ctx, config.BatchConf{Workers: 1, QueueDepth: 4, MaxSize: 4, TimeoutMs: 1000}, model.Paths{})
	t.Cleanup(func() {
		svc.Shutdown()
		cancel()
	})
	if ready {
		svc.Install(service.NewSnapshot(modeltest.Artifacts(t), nil))
	}
	h, err := New(svc)
	require.NoError(t, err)
	return h
}

func postForm(t *testing.T, h http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func riskyForm() url.Values {
	return url.Values{
		"age":              {"30"},
		"gender":           {"Female"},
		"tenure":           {"1"},
		"monthly_charges":  {"95"},
		"internet_service": {"Fiber Optic"},
		"tech_support":     {"No"},
	}
}

func TestGet_RendersDefaults(t *testing.T) {
	h := newUI(t, true)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `name="age" type="number" min="18" max="100" value="30"`)
	assert.Contains(t, body, `value="70.0"`)
	assert.Contains(t, body, `<option value="Male" selected>`)
	assert.Contains(t, body, `<option value="DSL" selected>`)
	assert.NotContains(t, body, "Prediction Result")
}

func TestPost_HighRisk(t *testing.T) {
	h := newUI(t, true)
	rr := postForm(t, h, riskyForm())

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "High Risk: 94.8% Probability of Churn")
	assert.Contains(t, body, "Immediate action required")
	assert.Contains(t, body, "<svg")
	assert.Contains(t, body, "Uses Fiber Optic Internet")
	assert.Contains(t, body, "VIP Bundle Offer:")
	assert.Contains(t, body, "Offer Free Tech Support:")
	assert.NotContains(t, body, explain.NoRiskFactors)
	// The submitted values are kept in the form.
	assert.Contains(t, body, `<option value="Fiber Optic" selected>`)
}

func TestPost_LowRiskHasNoActions(t *testing.T) {
	h := newUI(t, true)
	form := url.Values{
		"age": {"30"}, "gender": {"Male"}, "tenure": {"12"}, "monthly_charges": {"70.0"},
		"internet_service": {"DSL"}, "tech_support": {"Yes"},
	}
	rr := postForm(t, h, form)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Low Risk: 14.2% Probability of Churn")
	assert.Contains(t, body, explain.NoRiskFactors)
	assert.Contains(t, body, explain.NoActionNeeded)
}

func TestPost_ValidationErrorsRerenderForm(t *testing.T) {
	h := newUI(t, true)
	form := riskyForm()
	form.Set("age", "abc")
	form.Set("monthly_charges", "500")
	rr := postForm(t, h, form)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "must be a whole number")
	assert.Contains(t, body, `value="abc"`)
	assert.NotContains(t, body, "Prediction Result")
}

func TestPost_UnreadyModel(t *testing.T) {
	h := newUI(t, false)
	rr := postForm(t, h, riskyForm())

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "The prediction model is not available.")
}

func TestMethodNotAllowed(t *testing.T) {
	h := newUI(t, true)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
