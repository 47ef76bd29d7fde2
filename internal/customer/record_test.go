package customer

import (
	"errors"
	"math"
	"testing"
)

func validRaw() Raw {
	return Raw{
		Age:             30,
		Gender:          "Male",
		Tenure:          12,
		MonthlyCharges:  70,
		InternetService: "DSL",
		TechSupport:     "Yes",
	}
}

func TestParse_Spellings(t *testing.T) {
	cases := []struct {
		in   string
		want InternetService
	}{
		{"DSL", DSL},
		{"dsl", DSL},
		{"Fiber Optic", FiberOptic},
		{"FiberOptic", FiberOptic},
		{"No Internet", NoInternet},
		{"nointernet", NoInternet},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			raw := validRaw()
			raw.InternetService = tc.in
			rec, err := Parse(raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.InternetService != tc.want {
				t.Errorf("got %q, want %q", rec.InternetService, tc.want)
			}
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*Raw)
		field string
	}{
		{"age too low", func(r *Raw) { r.Age = 17 }, "Age"},
		{"age too high", func(r *Raw) { r.Age = 101 }, "Age"},
		{"negative tenure", func(r *Raw) { r.Tenure = -1 }, "Tenure"},
		{"tenure too high", func(r *Raw) { r.Tenure = 131 }, "Tenure"},
		{"charges too low", func(r *Raw) { r.MonthlyCharges = 19.99 }, "MonthlyCharges"},
		{"charges too high", func(r *Raw) { r.MonthlyCharges = 200.01 }, "MonthlyCharges"},
		{"charges NaN", func(r *Raw) { r.MonthlyCharges = math.NaN() }, "MonthlyCharges"},
		{"unknown gender", func(r *Raw) { r.Gender = "Other" }, "Gender"},
		{"empty internet", func(r *Raw) { r.InternetService = "" }, "InternetService"},
		{"unknown support", func(r *Raw) { r.TechSupport = "Maybe" }, "TechSupport"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := validRaw()
			tc.mut(&raw)
			_, err := Parse(raw)
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if verrs.Field(tc.field) == "" {
				t.Errorf("expected error on %s, got %v", tc.field, verrs)
			}
		})
	}
}

func TestParse_Boundaries(t *testing.T) {
	raw := validRaw()
	raw.Age, raw.Tenure, raw.MonthlyCharges = MinAge, MinTenure, MinMonthlyCharges
	if _, err := Parse(raw); err != nil {
		t.Errorf("lower bounds rejected: %v", err)
	}
	raw.Age, raw.Tenure, raw.MonthlyCharges = MaxAge, MaxTenure, MaxMonthlyCharges
	if _, err := Parse(raw); err != nil {
		t.Errorf("upper bounds rejected: %v", err)
	}
}

func TestValidate_TypedRecord(t *testing.T) {
	rec := Record{Age: 40, Gender: Female, Tenure: 3, MonthlyCharges: 99.5, InternetService: FiberOptic, TechSupport: TechSupportNo}
	if err := rec.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec.InternetService = "Cable"
	if err := rec.Validate(); err == nil {
		t.Fatal("expected error for unknown internet service")
	}
}
