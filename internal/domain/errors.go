package domain

import (
	"errors"
	"fmt"
)

// Sentinels for the planner's error taxonomy. Typed errors below unwrap to
// one of these so callers can branch with errors.Is.
var (
	ErrValidation       = errors.New("validation error")
	ErrLookup           = errors.New("lookup error")
	ErrNotFound         = errors.New("not found")
	ErrTooManyLocations = errors.New("too many locations")
	ErrInfeasibleRoute  = errors.New("infeasible route")
	ErrOutOfRange       = errors.New("out of range")
	ErrPersistence      = errors.New("persistence error")
)

// ValidationError reports malformed or missing input. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// LookupError reports a failed call to an external collaborator after retries
// were exhausted.
type LookupError struct {
	Op  string
	Key string
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *LookupError) Unwrap() []error { return []error{ErrLookup, e.Err} }

// TooManyLocationsError is returned before any lookup happens when a request
// exceeds the configured number of non-origin stops.
type TooManyLocationsError struct {
	Count int
	Max   int
}

func (e *TooManyLocationsError) Error() string {
	return fmt.Sprintf("too many locations: got %d non-origin stops, max %d", e.Count, e.Max)
}

func (e *TooManyLocationsError) Unwrap() error { return ErrTooManyLocations }

// InfeasibleRouteError means no ordering satisfies every opening window.
// LocationID is set when a single location can be blamed.
type InfeasibleRouteError struct {
	LocationID string
	Reason     string
}

func (e *InfeasibleRouteError) Error() string {
	if e.LocationID == "" {
		return "infeasible route: " + e.Reason
	}
	return fmt.Sprintf("infeasible route: location %q: %s", e.LocationID, e.Reason)
}

func (e *InfeasibleRouteError) Unwrap() error { return ErrInfeasibleRoute }

// OutOfRangeError reports schedule arithmetic leaving [0, DayBoundary).
type OutOfRangeError struct {
	Field  string
	Minute int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("out of range: %s=%d is outside the day", e.Field, e.Minute)
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }

// PersistenceError wraps storage failures surfaced by repositories.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }
