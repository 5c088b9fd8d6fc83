// Package versions implements the version set: a set of small non-negative
// version identifiers carried by every run of a multi-version document.
//
// A Set is owned by exactly one run, hint or match. Operations that combine
// two sets mutate the receiver only; use Clone to obtain an independent copy.
package versions

import (
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/FocuswithJustin/nmerge/core/errors"
)

// MaxVersion is the largest version identifier a Set accepts.
const MaxVersion = 1<<16 - 1

// Set is a set of version identifiers.
type Set struct {
	bits *bitset.BitSet
}

// New returns an empty set.
func New() *Set {
	return &Set{bits: bitset.New(64)}
}

// Of returns a set holding the given versions. Out of range ids are rejected.
func Of(vs ...int) (*Set, error) {
	s := New()
	for _, v := range vs {
		if err := s.Set(v); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustOf is like Of but panics on an invalid id. Intended for tests and
// package-level fixtures.
func MustOf(vs ...int) *Set {
	s, err := Of(vs...)
	if err != nil {
		panic(err)
	}
	return s
}

func check(v int) error {
	if v < 0 || v > MaxVersion {
		return &errors.ValidationError{
			Field:   "version",
			Value:   strconv.Itoa(v),
			Message: "must be between 0 and " + strconv.Itoa(MaxVersion),
		}
	}
	return nil
}

// Set adds version v.
func (s *Set) Set(v int) error {
	if err := check(v); err != nil {
		return err
	}
	s.bits.Set(uint(v))
	return nil
}

// Clear removes version v. Clearing an absent or out of range id is a no-op.
func (s *Set) Clear(v int) {
	if check(v) == nil {
		s.bits.Clear(uint(v))
	}
}

// Has reports whether v is a member.
func (s *Set) Has(v int) bool {
	return s != nil && v >= 0 && s.bits.Test(uint(v))
}

// Intersects reports whether s and o share at least one version.
func (s *Set) Intersects(o *Set) bool {
	if s == nil || o == nil {
		return false
	}
	return s.bits.IntersectionCardinality(o.bits) > 0
}

// Union adds every member of o to s and returns s.
func (s *Set) Union(o *Set) *Set {
	if o != nil {
		s.bits.InPlaceUnion(o.bits)
	}
	return s
}

// And keeps only the members of s that are also in o and returns s.
func (s *Set) And(o *Set) *Set {
	if o == nil {
		s.bits.ClearAll()
		return s
	}
	s.bits.InPlaceIntersection(o.bits)
	return s
}

// AndNot removes every member of o from s and returns s.
func (s *Set) AndNot(o *Set) *Set {
	if o != nil {
		s.bits.InPlaceDifference(o.bits)
	}
	return s
}

// NextSetAtOrAfter returns the smallest member >= v. It returns v itself when
// v is a member, and false when no such member exists.
func (s *Set) NextSetAtOrAfter(v int) (int, bool) {
	if v < 0 {
		v = 0
	}
	next, ok := s.bits.NextSet(uint(v))
	if !ok {
		return -1, false
	}
	return int(next), true
}

// Equals reports whether s and o hold the same versions, regardless of how
// much storage either has grown.
func (s *Set) Equals(o *Set) bool {
	if s == nil || o == nil {
		return s.Empty() && o.Empty()
	}
	return s.bits.SymmetricDifferenceCardinality(o.bits) == 0
}

// Empty reports whether the set has no members. A nil set is empty.
func (s *Set) Empty() bool {
	return s == nil || s.bits.None()
}

// Len returns the number of members.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return int(s.bits.Count())
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	if s == nil {
		return New()
	}
	return &Set{bits: s.bits.Clone()}
}

// Members returns the versions in ascending order.
func (s *Set) Members() []int {
	if s == nil {
		return nil
	}
	out := make([]int, 0, s.bits.Count())
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// String renders the set as "{3,27}".
func (s *Set) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, v := range s.Members() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	sb.WriteByte('}')
	return sb.String()
}
