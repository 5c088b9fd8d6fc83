package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "plugin", ID: "add"},
			wantMsg:  "plugin not found: add",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "version"},
			wantMsg:  "version not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("registry empty")
		err := &NotFoundError{Resource: "plugin", ID: "find", Err: underlyingErr}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with field",
			err:      &ValidationError{Field: "version", Message: "must not be negative"},
			wantMsg:  "validation failed for version: must not be negative",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "without field",
			err:      &ValidationError{Message: "empty text"},
			wantMsg:  "validation failed: empty text",
			wantBase: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ParseError
		wantMsg string
	}{
		{
			name:    "with input",
			err:     &ParseError{Format: "options", Input: "-s", Message: "missing value"},
			wantMsg: `failed to parse options "-s": missing value`,
		},
		{
			name:    "without input",
			err:     &ParseError{Format: "options", Message: "unterminated quote"},
			wantMsg: "failed to parse options: unterminated quote",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Errorf("errors.Is(%v, ErrInvalidInput) = false", tt.err)
			}
		})
	}
}

func TestUnsupportedError(t *testing.T) {
	err := NewUnsupported("split of parent run", "transpositions are not aligned yet")
	if got, want := err.Error(), "unsupported split of parent run: transpositions are not aligned yet"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrUnsupported) {
		t.Error("expected UnsupportedError to match ErrUnsupported")
	}
	if Is(err, ErrInvalidInput) {
		t.Error("UnsupportedError must stay distinct from ErrInvalidInput")
	}
}

func TestAllocationError(t *testing.T) {
	err := NewAllocation("linkpair", "object")
	if got, want := err.Error(), "linkpair: failed to create object"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrAllocation) {
		t.Error("expected AllocationError to match ErrAllocation")
	}
}

func TestInvariantError(t *testing.T) {
	err := NewInvariant("acyclic run list", "cycle reached from node 4")
	if got, want := err.Error(), "invariant acyclic run list violated: cycle reached from node 4"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	var target *InvariantError
	if !As(Wrap(err, "align"), &target) {
		t.Fatal("As() failed to find InvariantError through Wrap")
	}
	if target.Invariant != "acyclic run list" {
		t.Errorf("Invariant = %q", target.Invariant)
	}
}

func TestWrap(t *testing.T) {
	t.Run("wraps error", func(t *testing.T) {
		baseErr := fmt.Errorf("base error")
		wrapped := Wrap(baseErr, "context")
		if wrapped.Error() != "context: base error" {
			t.Errorf("Wrap() = %q, want %q", wrapped.Error(), "context: base error")
		}
		if !errors.Is(wrapped, baseErr) {
			t.Error("Wrap() should preserve error chain")
		}
	})

	t.Run("nil error", func(t *testing.T) {
		if Wrap(nil, "context") != nil {
			t.Error("Wrap(nil) should return nil")
		}
	})
}

func TestWrapf(t *testing.T) {
	baseErr := ErrAllocation
	wrapped := Wrapf(baseErr, "version %d", 3)
	if wrapped.Error() != "version 3: allocation failed" {
		t.Errorf("Wrapf() = %q", wrapped.Error())
	}
	if !Is(wrapped, ErrAllocation) {
		t.Error("Wrapf() should preserve error chain")
	}
	if Wrapf(nil, "x %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}
}
