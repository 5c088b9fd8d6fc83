// Package suffixtree indexes the text of a version being added so that runs
// of the document can be matched against it.
//
// The index is a suffix array: the offsets of all suffixes in lexical order,
// built in linear time by induced sorting. A cursor is the range of suffixes
// sharing the path walked so far, which behaves like a position in the
// equivalent suffix tree.
package suffixtree

import (
	"math/bits"
	"sort"

	"github.com/FocuswithJustin/nmerge/core/match"
)

// Tree is a suffix index over a rune text.
type Tree struct {
	text []rune
	sa   []int32
	// first[k][i] is the smallest offset in sa[i : i+1<<k]
	first [][]int32
}

// New indexes text. The tree keeps a reference to text.
func New(text []rune) *Tree {
	rs, k := ranks(text)
	sa := sais(rs, k)
	first := [][]int32{sa}
	for w := 1; 2*w <= len(sa); w *= 2 {
		prev := first[len(first)-1]
		level := make([]int32, len(sa)-2*w+1)
		for i := range level {
			level[i] = min(prev[i], prev[i+w])
		}
		first = append(first, level)
	}
	return &Tree{text: text, sa: sa, first: first}
}

// Len returns the length of the indexed text.
func (t *Tree) Len() int { return len(t.text) }

// Root returns a cursor at the root, matching every suffix.
func (t *Tree) Root() match.Cursor {
	return &Cursor{t: t, lo: 0, hi: len(t.sa)}
}

// Cursor is a position in a Tree: the suffixes in sa[lo:hi] all begin with
// the depth characters walked so far.
type Cursor struct {
	t      *Tree
	lo, hi int
	depth  int
}

// key returns the character at the cursor depth of the k-th suffix, or -1
// when that suffix is too short.
func (c *Cursor) key(k int) rune {
	i := int(c.t.sa[k]) + c.depth
	if i >= len(c.t.text) {
		return -1
	}
	return c.t.text[i]
}

// Advance follows ch from the current position.
func (c *Cursor) Advance(ch rune) bool {
	n := c.hi - c.lo
	lo := c.lo + sort.Search(n, func(k int) bool { return c.key(c.lo+k) >= ch })
	hi := c.lo + sort.Search(n, func(k int) bool { return c.key(c.lo+k) > ch })
	if lo >= hi {
		return false
	}
	c.lo, c.hi = lo, hi
	c.depth++
	return true
}

// Start returns the leftmost text offset at which the walked path occurs.
func (c *Cursor) Start() int {
	if c.lo >= c.hi {
		return 0
	}
	k := bits.Len(uint(c.hi-c.lo)) - 1
	level := c.t.first[k]
	return int(min(level[c.lo], level[c.hi-1<<k]))
}

// Depth returns the number of characters walked from the root.
func (c *Cursor) Depth() int { return c.depth }

// Contains reports whether s occurs in the indexed text.
func (t *Tree) Contains(s string) bool {
	c := &Cursor{t: t, hi: len(t.sa)}
	for _, r := range s {
		if !c.Advance(r) {
			return false
		}
	}
	return true
}
