package templates

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Vars holds the scalar inputs of a render call.
type Vars map[string]any

// String returns the value under key formatted as a string, or "" when absent.
func (v Vars) String(key string) string {
	val, ok := v[key]
	if !ok || val == nil {
		return ""
	}
	if s, ok := val.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(val)
}

// StringOr returns String(key) or fallback when the value is empty.
func (v Vars) StringOr(key, fallback string) string {
	if s := v.String(key); s != "" {
		return s
	}
	return fallback
}

// Require returns String(key) or ErrMissingVariable.
func (v Vars) Require(key string) (string, error) {
	s := v.String(key)
	if s == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingVariable, key)
	}
	return s, nil
}

// DisplayName formats a person's name for greetings ("ada lovelace" -> "Ada Lovelace").
func DisplayName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	// Casers keep state and are not shared between goroutines.
	return cases.Title(language.English).String(name)
}
