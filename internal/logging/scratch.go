package logging

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ScratchLen is the default capacity of a diagnostic Scratch log in bytes.
const ScratchLen = 4096

// maxFormatted bounds a single formatted message.
const maxFormatted = 127

// Scratch is a bounded, append-only diagnostic log. A message that does not
// fit in the remaining capacity is dropped whole, never truncated.
//
// A Scratch belongs to one alignment operation and is passed explicitly to
// the components that report into it.
type Scratch struct {
	buf      strings.Builder
	capacity int
	dropped  int
}

// NewScratch creates a diagnostic log holding at most capacity bytes.
// A non-positive capacity selects ScratchLen.
func NewScratch(capacity int) *Scratch {
	if capacity <= 0 {
		capacity = ScratchLen
	}
	return &Scratch{capacity: capacity}
}

// Add appends a message. Messages with format verbs are formatted first and
// cut to at most maxFormatted bytes on a rune boundary.
func (s *Scratch) Add(format string, args ...any) {
	if s == nil {
		return
	}
	msg := format
	if strings.Contains(format, "%") {
		msg = fmt.Sprintf(format, args...)
		if len(msg) > maxFormatted {
			cut := maxFormatted
			for cut > 0 && !utf8.RuneStart(msg[cut]) {
				cut--
			}
			msg = msg[:cut]
		}
	}
	if s.buf.Len()+len(msg) > s.capacity {
		s.dropped++
		return
	}
	s.buf.WriteString(msg)
	Debug("diagnostic", "message", strings.TrimRight(msg, "\n"))
}

// Len returns the number of bytes written so far.
func (s *Scratch) Len() int {
	return s.buf.Len()
}

// Cap returns the capacity of the log.
func (s *Scratch) Cap() int {
	return s.capacity
}

// Dropped returns how many messages did not fit.
func (s *Scratch) Dropped() int {
	return s.dropped
}

// String returns the accumulated log text.
func (s *Scratch) String() string {
	return s.buf.String()
}

// Clear empties the log and resets the dropped counter.
func (s *Scratch) Clear() {
	s.buf.Reset()
	s.dropped = 0
}
