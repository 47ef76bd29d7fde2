// Package ui serves the single-page churn predictor form and its result view.
package ui

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gyaneshwarpardhi/churn/internal/customer"
	"github.com/gyaneshwarpardhi/churn/internal/explain"
	"github.com/gyaneshwarpardhi/churn/internal/logging"
	"github.com/gyaneshwarpardhi/churn/internal/risk"
	"github.com/gyaneshwarpardhi/churn/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// chartBars is how many attributions the waterfall shows.
const chartBars = 10

// Explainer scores and explains one customer.
type Explainer interface {
	Explain(ctx context.Context, rec customer.Record) (*service.Explanation, error)
}

// Handler renders the form on GET and the prediction on POST.
type Handler struct {
	svc  Explainer
	tmpl *template.Template
}

// New parses the embedded templates.
func New(svc Explainer) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Handler{svc: svc, tmpl: tmpl}, nil
}

type formValues struct {
	Age             string
	Gender          string
	Tenure          string
	MonthlyCharges  string
	InternetService string
	TechSupport     string
}

func defaultForm() formValues {
	return formValues{
		Age:             "30",
		Gender:          "Male",
		Tenure:          "12",
		MonthlyCharges:  "70.0",
		InternetService: "DSL",
		TechSupport:     "Yes",
	}
}

type suggestionPanel struct {
	Title  string
	Detail string
}

type result struct {
	Tier          string
	TierClass     string
	Percent       string
	Advice        string
	Chart         waterfall
	RiskDrivers   []string
	SafetyDrivers []string
	Suggestions   []suggestionPanel
	NoActions     string
}

type page struct {
	Form     formValues
	Errors   map[string]string
	Error    string
	Result   *result
	Genders  []string
	Internet []string
	Support  []string
	Limits   limits
	NoRisk   string
	NoSafety string
}

type limits struct {
	MinAge, MaxAge         int
	MinTenure, MaxTenure   int
	MinCharges, MaxCharges float64
}

func newPage(form formValues) *page {
	return &page{
		Form:     form,
		Errors:   map[string]string{},
		Genders:  []string{string(customer.Male), string(customer.Female)},
		Internet: []string{customer.DSL.Label(), customer.FiberOptic.Label(), customer.NoInternet.Label()},
		Support:  []string{string(customer.TechSupportYes), string(customer.TechSupportNo)},
		Limits: limits{
			MinAge: customer.MinAge, MaxAge: customer.MaxAge,
			MinTenure: customer.MinTenure, MaxTenure: customer.MaxTenure,
			MinCharges: customer.MinMonthlyCharges, MaxCharges: customer.MaxMonthlyCharges,
		},
		NoRisk:   explain.NoRiskFactors,
		NoSafety: explain.NoSafetyFactors,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.render(w, r, http.StatusOK, newPage(defaultForm()))
	case http.MethodPost:
		h.submit(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		p := newPage(defaultForm())
		p.Error = "Could not read the form: " + err.Error()
		h.render(w, r, http.StatusBadRequest, p)
		return
	}
	form := formValues{
		Age:             strings.TrimSpace(r.PostForm.Get("age")),
		Gender:          r.PostForm.Get("gender"),
		Tenure:          strings.TrimSpace(r.PostForm.Get("tenure")),
		MonthlyCharges:  strings.TrimSpace(r.PostForm.Get("monthly_charges")),
		InternetService: r.PostForm.Get("internet_service"),
		TechSupport:     r.PostForm.Get("tech_support"),
	}
	p := newPage(form)

	rec, err := parseForm(form)
	var verrs customer.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			p.Errors[e.Field] = e.Message
		}
		h.render(w, r, http.StatusUnprocessableEntity, p)
		return
	}

	ex, err := h.svc.Explain(r.Context(), rec)
	switch {
	case errors.As(err, &verrs):
		for _, e := range verrs {
			p.Errors[e.Field] = e.Message
		}
		h.render(w, r, http.StatusUnprocessableEntity, p)
		return
	case errors.Is(err, risk.ErrModelUnavailable):
		p.Error = "The prediction model is not available. " + err.Error()
		h.render(w, r, http.StatusInternalServerError, p)
		return
	case err != nil:
		logging.L(r.Context()).Error("ui prediction failed", "err", err)
		p.Error = "Prediction failed: " + err.Error()
		h.render(w, r, http.StatusInternalServerError, p)
		return
	}

	p.Result = newResult(ex, rec)
	h.render(w, r, http.StatusOK, p)
}

// parseForm converts form strings into a validated record. Number parse
// failures are reported alongside range and enum errors.
func parseForm(f formValues) (customer.Record, error) {
	var (
		raw  customer.Raw
		errs customer.ValidationErrors
		err  error
	)
	if raw.Age, err = strconv.Atoi(f.Age); err != nil {
		errs = append(errs, customer.ValidationError{Field: "Age", Message: "must be a whole number"})
	}
	if raw.Tenure, err = strconv.Atoi(f.Tenure); err != nil {
		errs = append(errs, customer.ValidationError{Field: "Tenure", Message: "must be a whole number"})
	}
	if raw.MonthlyCharges, err = strconv.ParseFloat(f.MonthlyCharges, 64); err != nil {
		errs = append(errs, customer.ValidationError{Field: "MonthlyCharges", Message: "must be a number"})
	}
	raw.Gender, raw.InternetService, raw.TechSupport = f.Gender, f.InternetService, f.TechSupport
	if len(errs) > 0 {
		return customer.Record{}, errs
	}
	return customer.Parse(raw)
}

func newResult(ex *service.Explanation, rec customer.Record) *result {
	a := ex.Assessment
	res := &result{
		Tier:          string(a.Tier),
		TierClass:     strings.ToLower(string(a.Tier)),
		Percent:       fmt.Sprintf("%.1f", a.Probability*100),
		Advice:        a.Tier.Advice(),
		Chart:         newWaterfall(ex.Entries, ex.BaseValue, rec, chartBars),
		RiskDrivers:   ex.Summary.RiskDrivers,
		SafetyDrivers: ex.Summary.SafetyDrivers,
	}
	for _, s := range ex.Summary.Suggestions {
		if s == explain.NoActionNeeded {
			res.NoActions = s
			continue
		}
		title, detail, _ := strings.Cut(s, ": ")
		res.Suggestions = append(res.Suggestions, suggestionPanel{Title: title, Detail: detail})
	}
	return res
}

// render executes into a buffer first so a template error can still become a 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, p *page) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "index.html", p); err != nil {
		logging.L(r.Context()).Error("render page", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
