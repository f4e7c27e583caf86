package calendar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common errors
var (
	// ErrNotFound covers both missing records and records the caller may
	// not access; the two cases are indistinguishable to the caller.
	ErrNotFound = errors.New("calendar: event not found")

	ErrReminderNotFound = errors.New("calendar: reminder not found")
)

// ValidationError carries per-field messages for a rejected write.
type ValidationError struct {
	Fields map[string]string
}

// Add records a message for a field. The first message per field wins.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

func (e *ValidationError) HasErrors() bool { return len(e.Fields) > 0 }

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// ErrImportEmpty is returned when an ICS import accepts zero blocks.
func ErrImportEmpty() *ValidationError {
	return NewValidationError("events", "no events found")
}

// ParseError marks an unparseable date/time input. It is distinct from
// ValidationError: the request shape was fine, a timestamp was not.
type ParseError struct {
	Field string
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid datetime for %s: %q", e.Field, e.Value)
}

// NewParseError builds a parse error for one timestamp input.
func NewParseError(field, value string) *ParseError {
	return &ParseError{Field: field, Value: value}
}
