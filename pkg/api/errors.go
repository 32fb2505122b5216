package api

import "errors"

var (
	// ErrEmptyToken is returned when the router is built without a bearer token
	ErrEmptyToken = errors.New("api bearer token cannot be empty")
)

// Error codes carried in the response envelope.
const (
	codeBadRequest       = "bad_request"
	codeUnauthorized     = "unauthorized"
	codeNotFound         = "not_found"
	codeMethodNotAllowed = "method_not_allowed"
	codeValidation       = "validation_error"
	codeBusy             = "busy"
	codeLockUnavailable  = "lock_unavailable"
	codeProcessFailed    = "process_failed"
	codeInternal         = "internal_error"
)
