package validator

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"
)

// Required fails when present is false. Used for keys that must exist in a
// map regardless of their value.
func Required(field string, present bool) Rule {
	return Rule{
		Check: func() bool { return present },
		Error: ValidationError{
			Field:          field,
			Message:        "field is required",
			TranslationKey: "validation.required",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

// RequiredString validates that a string is not empty after trimming whitespace.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: ValidationError{
			Field:          field,
			Message:        "field is required",
			TranslationKey: "validation.required",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

// KindOf reports a type mismatch: ok is the result of the caller's type
// check and expected lists the accepted type names.
func KindOf(field string, ok bool, actual string, expected []string) Rule {
	return Rule{
		Check: func() bool { return ok },
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("expected type %s, got %s", strings.Join(expected, "|"), actual),
			TranslationKey: "validation.type",
			TranslationValues: map[string]any{
				"field":    field,
				"expected": expected,
				"actual":   actual,
			},
		},
	}
}

// OneOf validates that value is one of the allowed values.
func OneOf[T comparable](field string, value T, allowed []T) Rule {
	return Rule{
		Check: func() bool {
			return slices.Contains(allowed, value)
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("must be one of %v", allowed),
			TranslationKey: "validation.one_of",
			TranslationValues: map[string]any{
				"field":   field,
				"allowed": allowed,
			},
		},
	}
}

// Range validates min <= value <= max.
func Range(field string, value, min, max int) Rule {
	return Rule{
		Check: func() bool {
			return value >= min && value <= max
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("must be between %d and %d", min, max),
			TranslationKey: "validation.range",
			TranslationValues: map[string]any{
				"field": field,
				"min":   min,
				"max":   max,
			},
		},
	}
}

// Email validates an RFC 5322 address, with or without a display name.
// The domain must contain a dot unless it is "localhost".
func Email(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if strings.TrimSpace(value) == "" {
				return false
			}
			addr, err := mail.ParseAddress(value)
			if err != nil {
				return false
			}
			at := strings.LastIndex(addr.Address, "@")
			if at <= 0 {
				return false
			}
			domain := addr.Address[at+1:]
			if domain == "localhost" {
				return true
			}
			return strings.Contains(domain, ".") &&
				!strings.HasPrefix(domain, ".") &&
				!strings.HasSuffix(domain, ".")
		},
		Error: ValidationError{
			Field:          field,
			Message:        "must be a valid email address",
			TranslationKey: "validation.email",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}
