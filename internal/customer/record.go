package customer

import (
	"fmt"
	"strings"
)

// Gender of the customer.
type Gender string

const (
	Male   Gender = "Male"
	Female Gender = "Female"
)

// InternetService is the customer's internet plan. DSL is the encoder baseline.
type InternetService string

const (
	DSL        InternetService = "DSL"
	FiberOptic InternetService = "FiberOptic"
	NoInternet InternetService = "NoInternet"
)

// TechSupport records whether the customer pays for tech support.
type TechSupport string

const (
	TechSupportYes TechSupport = "Yes"
	TechSupportNo  TechSupport = "No"
)

// Input ranges accepted by both front-ends.
const (
	MinAge            = 18
	MaxAge            = 100
	MinTenure         = 0
	MaxTenure         = 130
	MinMonthlyCharges = 20.0
	MaxMonthlyCharges = 200.0
)

// Record is the canonical input model: one customer, one prediction.
type Record struct {
	Age             int             `json:"Age"`
	Gender          Gender          `json:"Gender"`
	Tenure          int             `json:"Tenure"` // months
	MonthlyCharges  float64         `json:"MonthlyCharges"`
	InternetService InternetService `json:"InternetService"`
	TechSupport     TechSupport     `json:"TechSupport"`
}

// Raw mirrors the wire shape before enum parsing.
type Raw struct {
	Age             int     `json:"Age"`
	Gender          string  `json:"Gender"`
	Tenure          int     `json:"Tenure"`
	MonthlyCharges  float64 `json:"MonthlyCharges"`
	InternetService string  `json:"InternetService"`
	TechSupport     string  `json:"TechSupport"`
}

// Parse normalises enum spellings and validates ranges.
func Parse(raw Raw) (Record, error) {
	var errs ValidationErrors

	gender, ok := ParseGender(raw.Gender)
	if !ok {
		errs = append(errs, ValidationError{Field: "Gender", Message: fmt.Sprintf("must be Male or Female, got %q", raw.Gender)})
	}
	internet, ok := ParseInternetService(raw.InternetService)
	if !ok {
		errs = append(errs, ValidationError{Field: "InternetService", Message: fmt.Sprintf("must be DSL, Fiber Optic or No Internet, got %q", raw.InternetService)})
	}
	support, ok := ParseTechSupport(raw.TechSupport)
	if !ok {
		errs = append(errs, ValidationError{Field: "TechSupport", Message: fmt.Sprintf("must be Yes or No, got %q", raw.TechSupport)})
	}

	rec := Record{
		Age:             raw.Age,
		Gender:          gender,
		Tenure:          raw.Tenure,
		MonthlyCharges:  raw.MonthlyCharges,
		InternetService: internet,
		TechSupport:     support,
	}
	errs = append(errs, rec.checkRanges()...)
	if len(errs) > 0 {
		return Record{}, errs
	}
	return rec, nil
}

// Validate checks enum membership and numeric ranges of an already-typed record.
func (r Record) Validate() error {
	var errs ValidationErrors
	if r.Gender != Male && r.Gender != Female {
		errs = append(errs, ValidationError{Field: "Gender", Message: fmt.Sprintf("unknown gender %q", r.Gender)})
	}
	switch r.InternetService {
	case DSL, FiberOptic, NoInternet:
	default:
		errs = append(errs, ValidationError{Field: "InternetService", Message: fmt.Sprintf("unknown internet service %q", r.InternetService)})
	}
	if r.TechSupport != TechSupportYes && r.TechSupport != TechSupportNo {
		errs = append(errs, ValidationError{Field: "TechSupport", Message: fmt.Sprintf("unknown tech support value %q", r.TechSupport)})
	}
	errs = append(errs, r.checkRanges()...)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r Record) checkRanges() ValidationErrors {
	var errs ValidationErrors
	if r.Age < MinAge || r.Age > MaxAge {
		errs = append(errs, ValidationError{Field: "Age", Message: fmt.Sprintf("must be between %d and %d, got %d", MinAge, MaxAge, r.Age)})
	}
	if r.Tenure < MinTenure || r.Tenure > MaxTenure {
		errs = append(errs, ValidationError{Field: "Tenure", Message: fmt.Sprintf("must be between %d and %d, got %d", MinTenure, MaxTenure, r.Tenure)})
	}
	// NaN fails both comparisons, so test the accepted interval.
	if !(r.MonthlyCharges >= MinMonthlyCharges && r.MonthlyCharges <= MaxMonthlyCharges) {
		errs = append(errs, ValidationError{Field: "MonthlyCharges", Message: fmt.Sprintf("must be between %.0f and %.0f, got %v", MinMonthlyCharges, MaxMonthlyCharges, r.MonthlyCharges)})
	}
	return errs
}

// ParseGender accepts Male/Female in any case.
func ParseGender(s string) (Gender, bool) {
	switch normalize(s) {
	case "male":
		return Male, true
	case "female":
		return Female, true
	}
	return "", false
}

// ParseInternetService accepts both "Fiber Optic" and "FiberOptic" style spellings.
func ParseInternetService(s string) (InternetService, bool) {
	switch normalize(s) {
	case "dsl":
		return DSL, true
	case "fiberoptic":
		return FiberOptic, true
	case "nointernet":
		return NoInternet, true
	}
	return "", false
}

// ParseTechSupport accepts Yes/No in any case.
func ParseTechSupport(s string) (TechSupport, bool) {
	switch normalize(s) {
	case "yes":
		return TechSupportYes, true
	case "no":
		return TechSupportNo, true
	}
	return "", false
}

// Label is the display spelling used by the form.
func (s InternetService) Label() string {
	switch s {
	case FiberOptic:
		return "Fiber Optic"
	case NoInternet:
		return "No Internet"
	}
	return string(s)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
