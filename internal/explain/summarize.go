// Package explain turns per-feature attributions for one prediction into
// ranked driver sentences and retention suggestions. It performs no I/O.
package explain

import (
	"cmp"
	"slices"

	"github.com/gyaneshwarpardhi/churn/internal/customer"
)

// DriverThreshold splits attributions into risk and safety drivers.
// An attribution exactly equal to it is neither: risk is > and safety is <.
const DriverThreshold = 0.02

const (
	maxDrivers     = 3
	maxSuggestions = 2
)

// Messages shown when a section would otherwise be empty.
const (
	NoActionNeeded  = "No immediate actions needed! Keep up the good work."
	NoRiskFactors   = "No major risk factors found!"
	NoSafetyFactors = "No major safety factors found!"
)

// Entry is one feature's push toward the churn class for a single customer.
type Entry struct {
	Feature      string  `json:"feature"`
	RawValue     float64 `json:"raw_value"` // encoded model input
	Contribution float64 `json:"contribution"`
}

// Summary is the rendered explanation.
type Summary struct {
	RiskDrivers   []string `json:"risk_drivers"`
	SafetyDrivers []string `json:"safety_drivers"`
	Suggestions   []string `json:"suggestions"`
}

// Summarize ranks attributions and renders the top drivers and up to two
// suggestions. When no suggestion applies, Suggestions holds NoActionNeeded.
func Summarize(entries []Entry, rec customer.Record) Summary {
	risky, safe := Partition(entries)

	out := Summary{
		RiskDrivers:   make([]string, 0, maxDrivers),
		SafetyDrivers: make([]string, 0, maxDrivers),
	}
	for _, e := range head(risky, maxDrivers) {
		out.RiskDrivers = append(out.RiskDrivers, DriverText(e, rec))
	}
	for _, e := range head(safe, maxDrivers) {
		out.SafetyDrivers = append(out.SafetyDrivers, DriverText(e, rec))
	}

	for _, e := range head(risky, maxDrivers) {
		if s, ok := SuggestionFor(e, rec); ok {
			out.Suggestions = append(out.Suggestions, s.String())
		}
	}
	out.Suggestions = head(out.Suggestions, maxSuggestions)
	if len(out.Suggestions) == 0 {
		out.Suggestions = []string{NoActionNeeded}
	}
	return out
}

// Partition returns risk drivers (contribution > DriverThreshold, largest
// first) and safety drivers (contribution < DriverThreshold, most negative
// first). Ties keep input order.
func Partition(entries []Entry) (risky, safe []Entry) {
	for _, e := range entries {
		switch {
		case e.Contribution > DriverThreshold:
			risky = append(risky, e)
		case e.Contribution < DriverThreshold:
			safe = append(safe, e)
		}
	}
	slices.SortStableFunc(risky, func(a, b Entry) int { return cmp.Compare(b.Contribution, a.Contribution) })
	slices.SortStableFunc(safe, func(a, b Entry) int { return cmp.Compare(a.Contribution, b.Contribution) })
	return risky, safe
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
