package domain

import (
	"fmt"
	"strings"
)

// FieldViolation describes one failed constraint on one input field.
type FieldViolation struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Violation codes.
const (
	CodeRequired    = "required"
	CodeInvalidType = "invalid_type"
	CodeTooSmall    = "too_small"
	CodeTooBig      = "too_big"
)

// ValidationError is returned when client input breaks one or more constraints.
type ValidationError struct {
	Violations []FieldViolation
	// Index is the position of the offending element when the input was a batch.
	Index *int
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if v.Field == "" {
			parts = append(parts, v.Message)
			continue
		}
		parts = append(parts, v.Field+": "+v.Message)
	}
	msg := "validation failed: " + strings.Join(parts, "; ")
	if e.Index != nil {
		msg = fmt.Sprintf("element %d: %s", *e.Index, msg)
	}
	return msg
}

// HasField reports whether any violation concerns field.
func (e *ValidationError) HasField(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// MalformedRequestError is returned for requests whose overall shape is wrong,
// such as a batch body that is not an array or a missing query parameter.
type MalformedRequestError struct {
	Message string
}

func (e *MalformedRequestError) Error() string { return e.Message }

// PersistenceError wraps any failure that originates in the storage layer.
type PersistenceError struct {
	Op        string
	Err       error
	Retryable bool
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
