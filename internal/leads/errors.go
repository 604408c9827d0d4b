package leads

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrNotPersisted is returned when the in-memory change was applied but the
	// collection could not be written to storage
	ErrNotPersisted = errors.New("lead change not persisted")

	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("lead failed validation")

	// ErrInvalidStatus is returned when a status string is not one of the six known values
	ErrInvalidStatus = errors.New("invalid lead status")
)

// FieldErrors maps a JSON field name to its validation message.
type FieldErrors map[string]string

// Fields returns the failing field names in sorted order.
func (fe FieldErrors) Fields() []string {
	out := make([]string, 0, len(fe))
	for field := range fe {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

// Err returns nil when there are no field errors, otherwise a *ValidationError.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return &ValidationError{Fields: fe}
}

// ValidationError carries the complete field error map for a rejected write.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields.Fields() {
		parts = append(parts, fmt.Sprintf("%s %s", field, e.Fields[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// notPersisted wraps a storage failure so callers can match both
// ErrNotPersisted and the underlying *kvstore.StorageError.
func notPersisted(op string, err error) error {
	return fmt.Errorf("leads: %s: %w: %w", op, ErrNotPersisted, err)
}
