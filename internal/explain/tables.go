package explain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gyaneshwarpardhi/churn/internal/customer"
	"github.com/gyaneshwarpardhi/churn/internal/features"
)

// indicatorKey addresses a 0/1 feature at one of its values.
type indicatorKey struct {
	feature string
	value   float64
}

// indicatorText renders binary features from their encoded value.
var indicatorText = map[indicatorKey]string{
	{features.ColTechSupportYes, 1}: "Has Tech Support",
	{features.ColTechSupportYes, 0}: "No Tech Support",
	{features.ColFiberOptic, 1}:     "Uses Fiber Optic Internet",
	{features.ColFiberOptic, 0}:     "Does not use Fiber Optic Internet",
	{features.ColNoInternet, 1}:     "No Internet Service",
	{features.ColNoInternet, 0}:     "Has Internet Service (DSL/Fiber)",
	{features.ColGender, 1}:         "Female",
	{features.ColGender, 0}:         "Male",
}

// numericText renders scaled features from the value the customer entered.
var numericText = map[string]string{
	features.ColAge:            "Age: %s years",
	features.ColTenure:         "Tenure: %s months",
	features.ColMonthlyCharges: "Monthly Charges: $%s",
}

// DriverText renders one attribution entry as a short sentence.
// Unknown features fall back to their name.
func DriverText(e Entry, rec customer.Record) string {
	if tmpl, ok := numericText[e.Feature]; ok {
		return fmt.Sprintf(tmpl, recordedValue(e.Feature, rec))
	}
	if s, ok := indicatorText[indicatorKey{e.Feature, e.RawValue}]; ok {
		return s
	}
	return e.Feature
}

func recordedValue(feature string, rec customer.Record) string {
	switch feature {
	case features.ColAge:
		return strconv.Itoa(rec.Age)
	case features.ColTenure:
		return strconv.Itoa(rec.Tenure)
	case features.ColMonthlyCharges:
		return formatCharge(rec.MonthlyCharges)
	}
	return ""
}

// formatCharge always shows a decimal point: 70 → "70.0", 85.25 → "85.25".
func formatCharge(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Monthly charge bands used to pick a pricing suggestion.
const (
	HighChargeAbove = 80.0
	LowChargeBelow  = 30.0
)

const (
	caseAny        = "any"
	caseOn         = "1"
	caseOff        = "0"
	caseHighCharge = "high"
	caseLowCharge  = "low"
	caseMidCharge  = "mid"
)

// suggestionKey selects a retention action: a feature plus the case it is in.
type suggestionKey struct {
	feature string
	when    string
}

// Suggestion is one retention action.
type Suggestion struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (s Suggestion) String() string { return s.Title + ": " + s.Detail }

var suggestions = map[suggestionKey]Suggestion{
	{features.ColTechSupportYes, caseOff}: {
		Title:  "Offer Free Tech Support",
		Detail: "This customer lacks support, which is a #1 churn driver. Offer a 3-month free trial of Premium Tech Support.",
	},
	{features.ColFiberOptic, caseOn}: {
		Title:  "VIP Bundle Offer",
		Detail: "Fiber customers expect premium service. Check if a competitor is offering a lower price and match it, or offer a free speed upgrade.",
	},
	{features.ColNoInternet, caseOn}: {
		Title:  "Digital Onboarding",
		Detail: "This customer has no internet. Call them to see if they are interested in a basic DSL starter package for $20/mo.",
	},
	{features.ColMonthlyCharges, caseHighCharge}: {
		Title:  "Loyalty Discount",
		Detail: "This customer's bill is high. Offer a 10% discount to lock them in for another year.",
	},
	{features.ColMonthlyCharges, caseLowCharge}: {
		Title:  "Service Upgrade",
		Detail: "This customer is on a basic low-tier plan. Offer a free upgrade to the next tier to increase value.",
	},
	{features.ColMonthlyCharges, caseMidCharge}: {
		Title:  "Value Review",
		Detail: "Review their usage and ensure they are getting the best value for their money.",
	},
	{features.ColTenure, caseAny}: {
		Title:  "Onboarding Call",
		Detail: "This is a new customer. Schedule a 'Happiness Check' call to ensure their setup is working perfectly.",
	},
	{features.ColGender, caseAny}: {
		Title:  "General Appreciation",
		Detail: "Send a personalized 'Thank You' email to build rapport.",
	},
}

// SuggestionFor returns the retention action for a risk driver, if any.
func SuggestionFor(e Entry, rec customer.Record) (Suggestion, bool) {
	s, ok := suggestions[suggestionKey{e.Feature, caseFor(e, rec)}]
	return s, ok
}

func caseFor(e Entry, rec customer.Record) string {
	switch e.Feature {
	case features.ColTechSupportYes, features.ColFiberOptic, features.ColNoInternet:
		switch e.RawValue {
		case 1:
			return caseOn
		case 0:
			return caseOff
		}
		return ""
	case features.ColMonthlyCharges:
		switch {
		case rec.MonthlyCharges > HighChargeAbove:
			return caseHighCharge
		case rec.MonthlyCharges < LowChargeBelow:
			return caseLowCharge
		default:
			return caseMidCharge
		}
	}
	return caseAny
}
