package usecases

import (
	"encoding/json"
	"fmt"
	"math"
	"unicode/utf16"

	"github.com/samirrijal/schoolfinder/internal/core/domain"
)

// Field constraints for a school record.
const (
	MinNameLength    = 3
	MinAddressLength = 3
	MinLatitude      = -90.0
	MaxLatitude      = 90.0
	MinLongitude     = -180.0
	MaxLongitude     = 180.0
)

// Validator checks school records before they reach storage. It reports every
// violated constraint, not just the first one.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate decodes a JSON object and checks it field by field.
func (v *Validator) Validate(raw []byte) (domain.SchoolInput, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return domain.SchoolInput{}, &domain.ValidationError{Violations: []domain.FieldViolation{{
			Code:    domain.CodeInvalidType,
			Message: "Expected object",
		}}}
	}
	return v.ValidateFields(fields)
}

// ValidateFields checks already split JSON fields. Type errors and range errors
// for all four fields are collected into one *domain.ValidationError.
func (v *Validator) ValidateFields(fields map[string]json.RawMessage) (domain.SchoolInput, error) {
	var (
		in         domain.SchoolInput
		violations []domain.FieldViolation
		ok         bool
	)

	if in.Name, ok, violations = decodeString(fields, "name", violations); ok {
		violations = checkLength("name", in.Name, MinNameLength, violations)
	}
	if in.Address, ok, violations = decodeString(fields, "address", violations); ok {
		violations = checkLength("address", in.Address, MinAddressLength, violations)
	}
	if in.Latitude, ok, violations = decodeNumber(fields, "latitude", violations); ok {
		violations = checkRange("latitude", in.Latitude, MinLatitude, MaxLatitude, violations)
	}
	if in.Longitude, ok, violations = decodeNumber(fields, "longitude", violations); ok {
		violations = checkRange("longitude", in.Longitude, MinLongitude, MaxLongitude, violations)
	}

	if len(violations) > 0 {
		return domain.SchoolInput{}, &domain.ValidationError{Violations: violations}
	}
	return in, nil
}

// ValidateInput checks a typed record, as produced by the bulk loader or GraphQL.
func (v *Validator) ValidateInput(in domain.SchoolInput) error {
	var violations []domain.FieldViolation
	violations = checkLength("name", in.Name, MinNameLength, violations)
	violations = checkLength("address", in.Address, MinAddressLength, violations)
	violations = checkRange("latitude", in.Latitude, MinLatitude, MaxLatitude, violations)
	violations = checkRange("longitude", in.Longitude, MinLongitude, MaxLongitude, violations)
	if len(violations) > 0 {
		return &domain.ValidationError{Violations: violations}
	}
	return nil
}

func decodeString(fields map[string]json.RawMessage, name string, out []domain.FieldViolation) (string, bool, []domain.FieldViolation) {
	raw, ok := fields[name]
	if !ok {
		return "", false, append(out, required(name))
	}
	var s string
	if string(raw) == "null" || json.Unmarshal(raw, &s) != nil {
		return "", false, append(out, domain.FieldViolation{
			Field:   name,
			Code:    domain.CodeInvalidType,
			Message: "Expected string",
		})
	}
	return s, true, out
}

func decodeNumber(fields map[string]json.RawMessage, name string, out []domain.FieldViolation) (float64, bool, []domain.FieldViolation) {
	raw, ok := fields[name]
	if !ok {
		return 0, false, append(out, required(name))
	}
	var f float64
	if string(raw) == "null" || json.Unmarshal(raw, &f) != nil {
		return 0, false, append(out, domain.FieldViolation{
			Field:   name,
			Code:    domain.CodeInvalidType,
			Message: "Expected number",
		})
	}
	return f, true, out
}

func required(name string) domain.FieldViolation {
	return domain.FieldViolation{Field: name, Code: domain.CodeRequired, Message: "Required"}
}

// checkLength counts UTF-16 code units, the way JavaScript clients measure
// string length.
func checkLength(name, value string, min int, out []domain.FieldViolation) []domain.FieldViolation {
	if len(utf16.Encode([]rune(value))) < min {
		out = append(out, domain.FieldViolation{
			Field:   name,
			Code:    domain.CodeTooSmall,
			Message: fmt.Sprintf("String must contain at least %d character(s)", min),
		})
	}
	return out
}

func checkRange(name string, value, min, max float64, out []domain.FieldViolation) []domain.FieldViolation {
	switch {
	case math.IsNaN(value) || math.IsInf(value, 0):
		out = append(out, domain.FieldViolation{
			Field:   name,
			Code:    domain.CodeInvalidType,
			Message: "Expected finite number",
		})
	case value < min:
		out = append(out, domain.FieldViolation{
			Field:   name,
			Code:    domain.CodeTooSmall,
			Message: fmt.Sprintf("Number must be greater than or equal to %g", min),
		})
	case value > max:
		out = append(out, domain.FieldViolation{
			Field:   name,
			Code:    domain.CodeTooBig,
			Message: fmt.Sprintf("Number must be less than or equal to %g", max),
		})
	}
	return out
}
