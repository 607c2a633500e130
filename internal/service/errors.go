package service

import "github.com/darmiel/guestgate/internal/core"

// missingField returns the validation error for a required request field.
func missingField(name string) *core.Error {
	return core.ValidationError(name + " is required")
}
