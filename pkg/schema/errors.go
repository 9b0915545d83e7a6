package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidationFailed is the sentinel all schema validation failures wrap.
var ErrValidationFailed = errors.New("schema: validation failed")

// FieldError describes a single failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors aggregates every failed rule for a validation pass.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return ErrValidationFailed.Error()
	}

	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, fmt.Sprintf("%s %s", e.Field, e.Message))
	}
	return "schema: validation failed: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrValidationFailed) match aggregated failures.
func (fe FieldErrors) Is(target error) bool {
	return target == ErrValidationFailed
}

// Add appends a failure for the given field.
func (fe *FieldErrors) Add(field, message string) {
	*fe = append(*fe, FieldError{Field: field, Message: message})
}

// Fields returns the distinct field names that failed, in order of first
// failure.
func (fe FieldErrors) Fields() []string {
	var fields []string
	seen := make(map[string]bool)
	for _, e := range fe {
		if !seen[e.Field] {
			fields = append(fields, e.Field)
			seen[e.Field] = true
		}
	}
	return fields
}

// AsFieldErrors extracts FieldErrors from an error chain.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
