package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when the requested contact id does not exist.
// Datastore failures are never mapped onto it; they surface as wrapped
// errors of their own.
var ErrNotFound = errors.New("contact not found")

// ValidationError reports which input fields were rejected and why. The keys
// of the Fields map are the JSON names of the fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid contact data"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s %s", name, e.Fields[name]))
	}
	return "invalid contact data: " + strings.Join(parts, "; ")
}

// newValidationError builds a ValidationError for a single rejected field.
func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}
