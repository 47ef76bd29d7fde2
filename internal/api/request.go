package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gyaneshwarpardhi/churn/internal/customer"
)

// errMalformed marks a body that is not JSON at all (400, not 422).
var errMalformed = errors.New("malformed JSON")

// customerRequest is the wire shape of one record. Pointers distinguish a
// missing field from a zero value.
type customerRequest struct {
	Age             *int     `json:"Age"`
	Gender          *string  `json:"Gender"`
	Tenure          *int     `json:"Tenure"`
	MonthlyCharges  *float64 `json:"MonthlyCharges"`
	InternetService *string  `json:"InternetService"`
	TechSupport     *string  `json:"TechSupport"`
}

// raw returns the record with required-field errors for anything missing.
func (c customerRequest) raw() (customer.Raw, customer.ValidationErrors) {
	var (
		raw  customer.Raw
		errs customer.ValidationErrors
	)
	missing := func(field string) {
		errs = append(errs, customer.ValidationError{Field: field, Message: "field required"})
	}
	if c.Age == nil {
		missing("Age")
	} else {
		raw.Age = *c.Age
	}
	if c.Gender == nil {
		missing("Gender")
	} else {
		raw.Gender = *c.Gender
	}
	if c.Tenure == nil {
		missing("Tenure")
	} else {
		raw.Tenure = *c.Tenure
	}
	if c.MonthlyCharges == nil {
		missing("MonthlyCharges")
	} else {
		raw.MonthlyCharges = *c.MonthlyCharges
	}
	if c.InternetService == nil {
		missing("InternetService")
	} else {
		raw.InternetService = *c.InternetService
	}
	if c.TechSupport == nil {
		missing("TechSupport")
	} else {
		raw.TechSupport = *c.TechSupport
	}
	return raw, errs
}

// record parses and validates the request into a customer record.
func (c customerRequest) record() (customer.Record, error) {
	raw, errs := c.raw()
	if len(errs) > 0 {
		return customer.Record{}, errs
	}
	return customer.Parse(raw)
}

// decodeBody decodes JSON into v. Syntax errors wrap errMalformed; type
// mismatches become field validation errors.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return customer.ValidationErrors{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("expected %s, got JSON %s", typeErr.Type, typeErr.Value),
		}}
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: body exceeds %d bytes", errMalformed, maxErr.Limit)
	}
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: empty body", errMalformed)
	}
	return fmt.Errorf("%w: %v", errMalformed, err)
}

// decodeCustomer reads one record from the request body.
func decodeCustomer(r *http.Request) (customer.Record, error) {
	var req customerRequest
	if err := decodeBody(r, &req); err != nil {
		return customer.Record{}, err
	}
	return req.record()
}
