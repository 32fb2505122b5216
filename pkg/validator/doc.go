// Package validator provides rule-based validation of request fields.
//
// A Rule pairs a check with the error reported when it fails. Apply runs a
// list of rules and collects every failure into ValidationErrors, so callers
// get all field problems at once instead of the first one:
//
//	err := validator.Apply(
//		validator.RequiredString("to", req.To),
//		validator.RangeNum("max_attempts", req.MaxAttempts, 0, 10),
//	)
//	if ve := validator.ExtractValidationErrors(err); ve != nil {
//		details := ve.ByField() // map[string][]string for API responses
//	}
//
// ValidationErrors survives errors.Join and %w wrapping, so it can be
// extracted from errors returned several layers up.
package validator
