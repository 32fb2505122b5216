package templates

import "errors"

var (
	// ErrTemplateNotFound is returned when no render function is registered under a name
	ErrTemplateNotFound = errors.New("template not found")

	// ErrDuplicateTemplate is returned when two entries share a name
	ErrDuplicateTemplate = errors.New("template already registered")

	// ErrEmptyTemplateName is returned for entries without a name
	ErrEmptyTemplateName = errors.New("template name cannot be empty")

	// ErrNilRenderFunc is returned for entries without a render function
	ErrNilRenderFunc = errors.New("render function cannot be nil")

	// ErrMissingVariable is returned when a required variable is absent or empty
	ErrMissingVariable = errors.New("required template variable is missing")
)
