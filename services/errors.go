package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cppla/jobboard/models"
)

var (
	// ErrNotFound covers both missing records and records the caller does not own.
	ErrNotFound = errors.New("not found")
	// ErrForbiddenRole is returned when a company calls a student operation or vice versa.
	ErrForbiddenRole = errors.New("operation not allowed for this account type")
	// ErrInvalidCredentials hides whether the username or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError carries field-level messages. Nothing was written when it is returned.
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
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a message for field, keeping the first one reported.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// Merge copies every field of other into e.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for k, v := range other.Fields {
		e.Add(k, v)
	}
}

// Err returns e as an error, or nil when no field failed.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func newFieldError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// TransitionError is an illegal application state change.
type TransitionError struct {
	From   models.ApplicationStatus
	To     string
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move application from %s to %q: %s", e.From, e.To, e.Reason)
}

// AlreadyProcessedError is returned when the detail of a decided application is requested.
type AlreadyProcessedError struct {
	ApplicationID uint
	Applicant     string
	Status        models.ApplicationStatus
}

func (e *AlreadyProcessedError) Error() string {
	return fmt.Sprintf("the application of %s has already been processed", e.Applicant)
}
