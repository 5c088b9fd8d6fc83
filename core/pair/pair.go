// Package pair defines the text run: an atomic span of text tagged with the
// set of versions that contain it.
package pair

import (
	"fmt"

	"github.com/FocuswithJustin/nmerge/core/errors"
	"github.com/FocuswithJustin/nmerge/core/versions"
)

// Kind distinguishes ordinary text from markers and transposition runs.
type Kind int

const (
	// Ordinary runs carry real text.
	Ordinary Kind = iota
	// Hint runs carry no text; they assert that their versions pass a point.
	Hint
	// Parent runs are the source of a transposition.
	Parent
	// Child runs refer back to a parent run.
	Child
)

func (k Kind) String() string {
	switch k {
	case Ordinary:
		return "ordinary"
	case Hint:
		return "hint"
	case Parent:
		return "parent"
	case Child:
		return "child"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Run is a span of version text. Text aliases storage owned by the caller;
// Versions is owned by the run.
type Run struct {
	Versions *versions.Set
	Text     []rune
	Kind     Kind
}

// NewOrdinary creates a text run owning vs.
func NewOrdinary(vs *versions.Set, text []rune) (*Run, error) {
	if vs == nil {
		return nil, errors.NewValidation("versions", "run needs a version set")
	}
	return &Run{Versions: vs, Text: text, Kind: Ordinary}, nil
}

// NewHint creates a hint that takes exclusive ownership of vs.
func NewHint(vs *versions.Set) (*Run, error) {
	if vs == nil {
		return nil, errors.NewValidation("versions", "hint needs a version set")
	}
	return &Run{Versions: vs, Kind: Hint}, nil
}

// NewParent creates the source run of a transposition.
func NewParent(vs *versions.Set, text []rune) (*Run, error) {
	r, err := NewOrdinary(vs, text)
	if err != nil {
		return nil, err
	}
	r.Kind = Parent
	return r, nil
}

// NewChild creates a run that refers to a transposed parent.
func NewChild(vs *versions.Set, text []rune) (*Run, error) {
	r, err := NewOrdinary(vs, text)
	if err != nil {
		return nil, err
	}
	r.Kind = Child
	return r, nil
}

// Len returns the run length in characters.
func (r *Run) Len() int {
	return len(r.Text)
}

// IsOrdinary reports whether r carries plain text.
func (r *Run) IsOrdinary() bool { return r.Kind == Ordinary }

// IsHint reports whether r is a hint.
func (r *Run) IsHint() bool { return r.Kind == Hint }

// Split truncates r to Text[:at] and returns a new run holding Text[at:].
// The new run gets its own copy of the version set. Only ordinary runs can
// be split, and at must leave both halves non-empty.
func (r *Run) Split(at int) (*Run, error) {
	if r.Kind != Ordinary {
		return nil, errors.NewUnsupported("split of "+r.Kind.String()+" run", "only ordinary runs can be split")
	}
	if at <= 0 || at >= len(r.Text) {
		return nil, &errors.ValidationError{
			Field:   "at",
			Value:   fmt.Sprint(at),
			Message: fmt.Sprintf("split offset must be inside a run of length %d", len(r.Text)),
		}
	}
	right := &Run{
		Versions: r.Versions.Clone(),
		Text:     r.Text[at:],
		Kind:     Ordinary,
	}
	r.Text = r.Text[:at:at]
	return right, nil
}

func (r *Run) String() string {
	if r.Kind == Hint {
		return "hint" + r.Versions.String()
	}
	return fmt.Sprintf("%s%q", r.Versions, string(r.Text))
}
