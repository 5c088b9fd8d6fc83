// Package match aligns spans of the run list against the suffix tree of a
// new version's text.
//
// A Match walks a read-only snapshot of the runs, following the path of the
// versions it tracks, and extends itself one character at a time while the
// suffix tree confirms the text continues. Matches separated by a small gap
// chain into one logical alignment through Clone, Follows and Append.
package match

import (
	"fmt"
	"math"

	"github.com/FocuswithJustin/nmerge/core/errors"
	"github.com/FocuswithJustin/nmerge/core/pair"
	"github.com/FocuswithJustin/nmerge/core/versions"
	"github.com/FocuswithJustin/nmerge/internal/logging"
)

// KDIST is the largest gap, in run-list characters and in suffix tree text,
// across which two matches still chain.
const KDIST = 2

// Tree is the suffix tree of the text being aligned.
type Tree interface {
	Root() Cursor
}

// Cursor is a position in a Tree.
type Cursor interface {
	// Advance moves down the edge labelled c. It reports false and leaves the
	// cursor unchanged when no suffix continues with c.
	Advance(c rune) bool
	// Start returns the text offset of an occurrence of the path so far.
	Start() int
}

// Match is one link of a match chain. The run indices and positions refer
// to the snapshot the match was created over; End is the last character
// consumed.
type Match struct {
	StartRun int
	EndRun   int
	StartPos int
	EndPos   int
	// offset of the matched text in the suffix tree's text
	STOffset int
	Length   int

	prevRun, prevPos int
	prevPending      bool
	// the start position has not been read yet
	pending bool

	runs     []*pair.Run
	tree     Tree
	versions *versions.Set
	next     *Match
}

// New seeds a match at character pos of runs[run]. The match takes
// ownership of vs, the versions it follows through the runs.
func New(run, pos int, runs []*pair.Run, tree Tree, vs *versions.Set, log *logging.Scratch) (*Match, error) {
	if run < 0 || run >= len(runs) || pos < 0 || pos >= runs[run].Len() || vs == nil {
		log.Add("match: failed to create match object\n")
		return nil, errors.NewValidation("start", fmt.Sprintf("no character at run %d offset %d", run, pos))
	}
	return &Match{
		StartRun: run,
		EndRun:   run,
		StartPos: pos,
		EndPos:   pos,
		prevRun:  run,
		prevPos:  pos,
		pending:  true,
		runs:     runs,
		tree:     tree,
		versions: vs,
	}, nil
}

// Clone returns a fresh match that continues from where m stopped, with its
// own copy of the tracked versions.
func (m *Match) Clone() *Match {
	return &Match{
		StartRun: m.EndRun,
		EndRun:   m.EndRun,
		StartPos: m.EndPos,
		EndPos:   m.EndPos,
		STOffset: m.STOffset + m.Length,
		prevRun:  m.EndRun,
		prevPos:  m.EndPos,
		pending:  m.pending,
		runs:     m.runs,
		tree:     m.tree,
		versions: m.versions.Clone(),
	}
}

// Versions returns the versions whose path the match follows.
func (m *Match) Versions() *versions.Set { return m.versions }

// Next returns the following link of the chain, or nil.
func (m *Match) Next() *Match { return m.next }

// Append adds m2 to the end of m's chain.
func (m *Match) Append(m2 *Match) {
	t := m
	for t.next != nil {
		t = t.next
	}
	t.next = m2
}

// Advance consumes the next character on the tracked path. Crossing into a
// later run narrows the tracked versions to those the run shares. It
// reports false at the end of the runs, leaving the cursor in place.
func (m *Match) Advance() (rune, bool) {
	m.prevRun, m.prevPos, m.prevPending = m.EndRun, m.EndPos, m.pending
	if m.pending {
		m.pending = false
		return m.runs[m.EndRun].Text[m.EndPos], true
	}
	if r := m.runs[m.EndRun]; m.EndPos+1 < r.Len() {
		m.EndPos++
		return r.Text[m.EndPos], true
	}
	for i := m.EndRun + 1; i < len(m.runs); i++ {
		vs := m.runs[i].Versions
		if !m.versions.Intersects(vs) {
			continue
		}
		m.versions.And(vs)
		if m.runs[i].Len() > 0 {
			m.EndRun, m.EndPos = i, 0
			return m.runs[i].Text[0], true
		}
	}
	return 0, false
}

func (m *Match) unread() {
	m.EndRun, m.EndPos, m.pending = m.prevRun, m.prevPos, m.prevPending
}

// ExtendSingle extends a fresh match, or a clone, for as long as the suffix
// tree accepts the characters that follow. A rejected character is left
// unconsumed. It reports whether anything matched.
func (m *Match) ExtendSingle() bool {
	cur := m.tree.Root()
	for {
		c, ok := m.Advance()
		if !ok {
			break
		}
		if !cur.Advance(c) {
			m.unread()
			break
		}
		if m.Length == 0 {
			m.StartRun, m.StartPos = m.EndRun, m.EndPos
		}
		m.Length++
	}
	if m.Length > 0 {
		m.STOffset = cur.Start()
	}
	return m.Length > 0
}

// runDistance counts the characters on first's path strictly between its
// last character and the first character of second.
func runDistance(first, second *Match) int {
	switch {
	case second.StartRun == first.EndRun:
		if second.StartPos <= first.EndPos {
			return math.MaxInt
		}
		return second.StartPos - first.EndPos - 1
	case second.StartRun > first.EndRun:
		d := first.runs[first.EndRun].Len() - (first.EndPos + 1)
		for i := first.EndRun + 1; i < second.StartRun && d <= KDIST; i++ {
			if first.versions.Intersects(first.runs[i].Versions) {
				d += first.runs[i].Len()
			}
		}
		return d + second.StartPos
	default:
		return math.MaxInt
	}
}

// Follows reports whether second continues first after a gap of at most
// KDIST characters both in the run list and in the suffix tree text.
func Follows(first, second *Match) bool {
	st := second.STOffset - (first.STOffset + first.Length)
	return st >= 0 && st <= KDIST && runDistance(first, second) <= KDIST
}

// TotalLength sums the matched length over the whole chain.
func (m *Match) TotalLength() int {
	n := 0
	for ; m != nil; m = m.next {
		n += m.Length
	}
	return n
}

// Compare orders matches by total chain length: 1 if a is longer, -1 if b
// is longer, 0 if they are equal.
func Compare(a, b *Match) int {
	la, lb := a.TotalLength(), b.TotalLength()
	switch {
	case la > lb:
		return 1
	case la < lb:
		return -1
	default:
		return 0
	}
}

// Dispose releases the chain starting at m one link at a time.
func (m *Match) Dispose() {
	for m != nil {
		next := m.next
		m.next = nil
		m.versions = nil
		m.runs = nil
		m.tree = nil
		m = next
	}
}

// Piece is a matched span of one run: characters [From, To) of Run.
type Piece struct {
	Run  int
	From int
	To   int
}

// Pieces lists the run spans covered by this link, in run order. Runs off
// the tracked path in between are not part of the match.
func (m *Match) Pieces() []Piece {
	var ps []Piece
	left := m.Length
	r, pos := m.StartRun, m.StartPos
	for left > 0 && r < len(m.runs) {
		if n := min(m.runs[r].Len()-pos, left); n > 0 {
			ps = append(ps, Piece{Run: r, From: pos, To: pos + n})
			left -= n
		}
		r, pos = r+1, 0
		for r < len(m.runs) && !m.versions.Intersects(m.runs[r].Versions) {
			r++
		}
	}
	return ps
}

func (m *Match) String() string {
	return fmt.Sprintf("%d:%d-%d:%d@%d+%d%s", m.StartRun, m.StartPos, m.EndRun, m.EndPos, m.STOffset, m.Length, m.versions)
}
