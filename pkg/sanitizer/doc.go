// Package sanitizer holds small string cleaners applied to data before it is
// logged, stored or placed into message headers.
//
// Helpers are plain func(string) string values and can be chained with
// Compose:
//
//	clean := sanitizer.Compose(
//		sanitizer.RemoveControlChars,
//		strings.TrimSpace,
//		sanitizer.MaxLength(2000),
//	)
package sanitizer
