package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrStaleVersion       = errors.New("record was modified by another user")
	ErrReferenced         = errors.New("record is referenced by other records")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ConflictError is a uniqueness violation on a single field.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	return "duplicate value for " + e.Field
}

// ValidationError maps form field names to messages. The empty key holds
// messages that belong to the whole form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			parts = append(parts, e.Fields[k])
			continue
		}
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

func IsForbidden(err error) bool {
	var fe *ForbiddenError
	return errors.As(err, &fe)
}
