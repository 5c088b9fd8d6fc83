// Package errors provides standardized error types and helpers for the MVD engine.
//
// Every failure in the engine is local: it is detected, reported (usually to a
// logging.Scratch diagnostic log) and returned to the direct caller. Nothing
// here panics or retries.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a version, plugin or run was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrInternal indicates an internal engine error
	ErrInternal = errors.New("internal error")
	// ErrUnsupported indicates a structural operation that is not implemented
	ErrUnsupported = errors.New("unsupported")
	// ErrAllocation indicates a run, run-list node, match or version set could not be created
	ErrAllocation = errors.New("allocation failed")
	// ErrInvariant indicates a structural invariant of the run list was violated
	ErrInvariant = errors.New("invariant violated")
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "plugin", "version", "run")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// ParseError represents a failure to parse plugin options or other text input
type ParseError struct {
	Format  string // What was being parsed (e.g., "options")
	Input   string // Offending input, if short enough to be useful
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("failed to parse %s %q: %s", e.Format, e.Input, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError represents a structural operation that exists in the model
// but is not implemented for the given kind of run.
type UnsupportedError struct {
	Feature string // Operation that is unsupported (e.g., "split of parent run")
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// AllocationError reports that a component could not create an object.
type AllocationError struct {
	Component string // Component prefix (e.g., "linkpair", "match")
	Object    string // What could not be created
	Err       error  // Underlying error, if any
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("%s: failed to create %s", e.Component, e.Object)
}

func (e *AllocationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrAllocation
}

// InvariantError reports a structural invariant violation such as a circular
// run list. It aborts the current alignment; the engine never repairs it.
type InvariantError struct {
	Invariant string // Name of the violated invariant
	Detail    string // Where it was observed
}

func (e *InvariantError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("invariant %s violated: %s", e.Invariant, e.Detail)
	}
	return fmt.Sprintf("invariant %s violated", e.Invariant)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariant
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewParse creates a ParseError
func NewParse(format, input, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Input:   input,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// NewAllocation creates an AllocationError
func NewAllocation(component, object string) *AllocationError {
	return &AllocationError{
		Component: component,
		Object:    object,
	}
}

// NewInvariant creates an InvariantError
func NewInvariant(invariant, detail string) *InvariantError {
	return &InvariantError{
		Invariant: invariant,
		Detail:    detail,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
