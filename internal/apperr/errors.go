// Package apperr defines the sentinel errors shared across the core.
// Callers discriminate with errors.Is; the wrapping message carries the
// offending id or name so boundary layers can render a useful message.
package apperr

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateName      = errors.New("duplicate name")
	ErrValidation         = errors.New("validation failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
