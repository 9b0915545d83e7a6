package schema

import (
	"fmt"
	"regexp"
	"slices"
)

// FieldType constrains the JSON type of a field value.
type FieldType string

const (
	TypeAny    FieldType = ""
	TypeString FieldType = "string"
	TypeNumber FieldType = "number"
	TypeBool   FieldType = "bool"
)

// Field declares validation rules for a single named value.
type Field struct {
	Required bool
	Type     FieldType
	MinLen   int      // strings only, 0 = unbounded
	MaxLen   int      // strings only, 0 = unbounded
	Min      *float64 // numbers only
	Max      *float64 // numbers only
	Pattern  string   // strings only, compiled lazily per Validate call
	Enum     []string // strings only, allowed values
}

// Schema maps field names to their rules.
type Schema map[string]Field

// Validate checks values against the schema and aggregates every failure
// instead of stopping at the first. Returns nil when everything passes,
// otherwise a FieldErrors value listing each problem.
func Validate(values map[string]any, s Schema) error {
	var errs FieldErrors

	for name, field := range s {
		v, present := values[name]
		if !present || v == nil {
			if field.Required {
				errs.Add(name, "is required")
			}
			continue
		}

		switch field.Type {
		case TypeString:
			str, ok := v.(string)
			if !ok {
				errs.Add(name, "must be a string")
				continue
			}
			validateString(&errs, name, str, field)
		case TypeNumber:
			num, ok := toFloat(v)
			if !ok {
				errs.Add(name, "must be a number")
				continue
			}
			validateNumber(&errs, name, num, field)
		case TypeBool:
			if _, ok := v.(bool); !ok {
				errs.Add(name, "must be a boolean")
			}
		case TypeAny:
			if str, ok := v.(string); ok {
				validateString(&errs, name, str, field)
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateString(errs *FieldErrors, name, v string, f Field) {
	if f.MinLen > 0 && len(v) < f.MinLen {
		errs.Add(name, fmt.Sprintf("must be at least %d characters", f.MinLen))
	}
	if f.MaxLen > 0 && len(v) > f.MaxLen {
		errs.Add(name, fmt.Sprintf("must be at most %d characters", f.MaxLen))
	}
	if f.Pattern != "" {
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			errs.Add(name, "has an invalid pattern rule")
		} else if !re.MatchString(v) {
			errs.Add(name, "has an invalid format")
		}
	}
	if len(f.Enum) > 0 && !slices.Contains(f.Enum, v) {
		errs.Add(name, fmt.Sprintf("must be one of %v", f.Enum))
	}
}

func validateNumber(errs *FieldErrors, name string, v float64, f Field) {
	if f.Min != nil && v < *f.Min {
		errs.Add(name, fmt.Sprintf("must be >= %v", *f.Min))
	}
	if f.Max != nil && v > *f.Max {
		errs.Add(name, fmt.Sprintf("must be <= %v", *f.Max))
	}
}

// toFloat accepts the numeric types encoding/json and typical callers
// produce.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
