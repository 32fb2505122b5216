package validator

import (
	"fmt"
	"slices"
	"strings"
)

// RequiredString validates that a string is not empty after trimming whitespace.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: ValidationError{Field: field, Message: "field is required"},
	}
}

// RangeNum validates that min <= value <= max.
func RangeNum[T Numeric](field string, value, min, max T) Rule {
	return Rule{
		Check: func() bool {
			return value >= min && value <= max
		},
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %v and %v", min, max),
		},
	}
}

// InList validates that value is one of allowed.
func InList[T comparable](field string, value T, allowed []T, message string) Rule {
	if message == "" {
		message = "invalid value"
	}
	return Rule{
		Check: func() bool {
			return slices.Contains(allowed, value)
		},
		Error: ValidationError{Field: field, Message: message},
	}
}

// NoError validates that err is nil and reports its text otherwise.
func NoError(field string, err error) Rule {
	rule := Rule{
		Check: func() bool { return err == nil },
		Error: ValidationError{Field: field},
	}
	if err != nil {
		rule.Error.Message = err.Error()
	}
	return rule
}
