// Package linkpair implements the run list: the doubly-linked sequence of
// runs that forms the spine of a multi-version document.
//
// Nodes live in an arena owned by a List and are addressed by NodeID. Left
// and right links are NodeIDs, so replacing or removing a node never leaves a
// dangling reference; a released slot is recycled by a later Create. Each
// node owns its run and releases it together with the slot.
//
// A List is not safe for concurrent use. One alignment owns a list for its
// whole duration.
package linkpair

import (
	"fmt"

	"github.com/FocuswithJustin/nmerge/core/errors"
	"github.com/FocuswithJustin/nmerge/core/pair"
	"github.com/FocuswithJustin/nmerge/core/versions"
	"github.com/FocuswithJustin/nmerge/internal/logging"
)

// NodeID addresses a node in a List.
type NodeID int

// Nil is the end marker: the left of the first node and right of the last.
const Nil NodeID = -1

type slot struct {
	run   *pair.Run
	left  NodeID
	right NodeID
	// absolute offset in the suffix tree text if aligned to a new version
	stOff int
	live  bool
}

// List is an arena of run-list nodes.
type List struct {
	slots    []slot
	free     []NodeID
	live     int
	capacity int
	log      *logging.Scratch
}

// New creates an unbounded list that reports failures to log.
func New(log *logging.Scratch) *List {
	return &List{log: log}
}

// NewWithCapacity creates a list holding at most capacity live nodes.
// Creating more is reported as an allocation failure.
func NewWithCapacity(log *logging.Scratch, capacity int) *List {
	return &List{log: log, capacity: capacity}
}

// SetLog directs failure reports to log. A list outlives a single alignment,
// so each alignment installs its own log.
func (l *List) SetLog(log *logging.Scratch) {
	l.log = log
}

// Live returns the number of nodes currently allocated.
func (l *List) Live() int {
	return l.live
}

func (l *List) full() bool {
	return l.capacity > 0 && l.live >= l.capacity
}

// Create wraps run in a new, unlinked node.
func (l *List) Create(run *pair.Run) (NodeID, error) {
	if run == nil {
		return Nil, errors.NewValidation("run", "linkpair needs a run")
	}
	if l.full() {
		l.log.Add("linkpair: failed to create object\n")
		return Nil, errors.NewAllocation("linkpair", "object")
	}
	s := slot{run: run, left: Nil, right: Nil, live: true}
	l.live++
	if n := len(l.free); n > 0 {
		id := l.free[n-1]
		l.free = l.free[:n-1]
		l.slots[id] = s
		return id, nil
	}
	l.slots = append(l.slots, s)
	return NodeID(len(l.slots) - 1), nil
}

// Valid reports whether id addresses a live node.
func (l *List) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(l.slots) && l.slots[id].live
}

func (l *List) at(id NodeID) *slot {
	if !l.Valid(id) {
		panic(fmt.Sprintf("linkpair: invalid node %d", id))
	}
	return &l.slots[id]
}

// Dispose releases a node and its run. The node should already be detached;
// use Remove to unlink and release in one step.
func (l *List) Dispose(id NodeID) {
	s := l.at(id)
	*s = slot{left: Nil, right: Nil}
	l.free = append(l.free, id)
	l.live--
}

// Run returns the run wrapped by id.
func (l *List) Run(id NodeID) *pair.Run {
	return l.at(id).run
}

// Left returns the left neighbour of id, or Nil.
func (l *List) Left(id NodeID) NodeID {
	return l.at(id).left
}

// Right returns the right neighbour of id, or Nil.
func (l *List) Right(id NodeID) NodeID {
	return l.at(id).right
}

// SetLeft sets the left link of id only.
func (l *List) SetLeft(id, left NodeID) {
	l.at(id).left = left
}

// SetRight sets the right link of id only.
func (l *List) SetRight(id, right NodeID) {
	l.at(id).right = right
}

// SetSTOffset records where id was last matched in the suffix tree text.
func (l *List) SetSTOffset(id NodeID, off int) {
	l.at(id).stOff = off
}

// STOffset returns the suffix tree offset recorded for id.
func (l *List) STOffset(id NodeID) int {
	return l.at(id).stOff
}

// link splices after immediately to the right of id.
func (l *List) link(id, after NodeID) {
	s, a := l.at(id), l.at(after)
	a.right = s.right
	a.left = id
	if s.right != Nil {
		l.at(s.right).left = after
	}
	s.right = after
}

// Replace puts nu in old's position. old is detached but not released.
func (l *List) Replace(old, nu NodeID) {
	o, n := l.at(old), l.at(nu)
	if o.left != Nil {
		l.at(o.left).right = nu
	}
	if o.right != Nil {
		l.at(o.right).left = nu
	}
	n.left, n.right = o.left, o.right
	o.left, o.right = Nil, Nil
}

// Split cuts the run of id before offset at. The original node keeps the
// left part; a new node holding the right part is linked in after it and
// returned. Only ordinary runs can be split; other kinds return an
// *errors.UnsupportedError and leave the list unchanged.
func (l *List) Split(id NodeID, at int) (NodeID, error) {
	if l.full() {
		l.log.Add("linkpair: failed to create object\n")
		return Nil, errors.NewAllocation("linkpair", "object")
	}
	q, err := l.Run(id).Split(at)
	if err != nil {
		return Nil, err
	}
	id2, err := l.Create(q)
	if err != nil {
		return Nil, err
	}
	l.link(id, id2)
	return id2, nil
}

// AddHint records that version passes through the point immediately before
// id. An existing hint on the left absorbs the version; otherwise a new hint
// is linked in unless the left neighbour already carries the version.
func (l *List) AddHint(id NodeID, version int) error {
	left := l.Left(id)
	if left != Nil {
		p := l.Run(left)
		if p.IsHint() {
			return p.Versions.Set(version)
		}
		if next, ok := p.Versions.NextSetAtOrAfter(version); ok && next == version {
			return nil
		}
	}
	bs := versions.New()
	if err := bs.Set(version); err != nil {
		return err
	}
	hint, err := pair.NewHint(bs)
	if err != nil {
		return err
	}
	hid, err := l.Create(hint)
	if err != nil {
		return err
	}
	h := l.at(hid)
	h.left = left
	h.right = id
	if left != Nil {
		l.at(left).right = hid
	}
	l.at(id).left = hid
	return nil
}

// AddAfter links after to the right of id, creating a new node boundary.
// It refuses, leaving the list untouched, when id already defines a node on
// its right; the caller must then use AddAtNode.
func (l *List) AddAfter(id, after NodeID) bool {
	if l.NodeToRight(id) {
		return false
	}
	l.link(id, after)
	return true
}

// AddBefore links before to the left of id. It is used to grow the list at
// its start, where no run precedes id.
func (l *List) AddBefore(id, before NodeID) {
	s, b := l.at(id), l.at(before)
	b.left = s.left
	b.right = id
	if s.left != Nil {
		l.at(s.left).right = before
	}
	s.left = before
}

// AddAtNode adds after into the node that follows id, past any hint. It
// reports whether after still intersects the versions entering the node.
func (l *List) AddAtNode(id, after NodeID) bool {
	bs := l.Run(id).Versions
	if r := l.Right(id); r != Nil && l.Run(r).IsHint() {
		id = r
	}
	l.link(id, after)
	return bs.Intersects(l.Run(after).Versions)
}

// TrailingOfNode reports whether id is the trailing arc of a node: its left
// neighbour is a hint or shares a version with it.
func (l *List) TrailingOfNode(id NodeID) bool {
	left := l.Left(id)
	if left == Nil {
		return false
	}
	p := l.Run(left)
	return p.IsHint() || p.Versions.Intersects(l.Run(id).Versions)
}

// Free reports whether id is a mid-sequence run that is not the trailing
// pair of a node: no hint on its left and no version shared with it.
func (l *List) Free(id NodeID) bool {
	return !l.TrailingOfNode(id)
}

// NodeToRight reports whether id defines a node immediately on its right.
func (l *List) NodeToRight(id NodeID) bool {
	right := l.Right(id)
	if right == Nil {
		return false
	}
	p := l.Run(right)
	return p.IsHint() || l.Run(id).Versions.Intersects(p.Versions)
}

// NodeToLeft reports whether id defines a node immediately on its left.
func (l *List) NodeToLeft(id NodeID) bool {
	left := l.Left(id)
	if left == Nil {
		return false
	}
	p := l.Run(left)
	return p.IsHint() || l.Run(id).Versions.Intersects(p.Versions)
}

// NodeOverhang returns the versions entering the node after id that have no
// outgoing arc yet: the versions of id plus any hint on its right, minus
// the versions of the run after that hint. The caller owns the result.
func (l *List) NodeOverhang(id NodeID) *versions.Set {
	bs := l.Run(id).Versions.Clone()
	right := l.Right(id)
	if right != Nil && l.Run(right).IsHint() {
		bs.Union(l.Run(right).Versions)
		right = l.Right(right)
	}
	if right != Nil {
		bs.AndNot(l.Run(right).Versions)
	}
	return bs
}

// NextFollowing returns the first node right of id whose versions intersect
// vs, or Nil.
func (l *List) NextFollowing(id NodeID, vs *versions.Set) NodeID {
	for id = l.Right(id); id != Nil; id = l.Right(id) {
		if vs.Intersects(l.Run(id).Versions) {
			return id
		}
	}
	return Nil
}

// Remove unlinks id and releases it together with its run.
func (l *List) Remove(id NodeID) {
	s := l.at(id)
	if s.left != Nil {
		l.at(s.left).right = s.right
	}
	if s.right != Nil {
		l.at(s.right).left = s.left
	}
	l.Dispose(id)
}

// Head walks left from id to the first node of its list.
func (l *List) Head(id NodeID) NodeID {
	for steps := 0; steps <= l.live; steps++ {
		left := l.Left(id)
		if left == Nil {
			return id
		}
		id = left
	}
	return id
}

// walk calls fn for id and every node to its right. It visits at most Live
// nodes, so a corrupted circular list cannot hang the caller.
func (l *List) walk(id NodeID, fn func(NodeID)) {
	for n := 0; id != Nil && n < l.live; n++ {
		fn(id)
		id = l.Right(id)
	}
}

// ToArray returns the runs from id rightwards as a read-only snapshot.
func (l *List) ToArray(id NodeID) []*pair.Run {
	runs := make([]*pair.Run, 0, l.Len(id))
	l.walk(id, func(n NodeID) {
		runs = append(runs, l.Run(n))
	})
	return runs
}

// IDs returns the node ids from id rightwards, aligned with ToArray.
func (l *List) IDs(id NodeID) []NodeID {
	var ids []NodeID
	l.walk(id, func(n NodeID) {
		ids = append(ids, n)
	})
	return ids
}

// Len counts the nodes from id rightwards.
func (l *List) Len(id NodeID) int {
	n := 0
	l.walk(id, func(NodeID) { n++ })
	return n
}

// OrdinaryLen counts the ordinary runs from id rightwards, ignoring hints.
func (l *List) OrdinaryLen(id NodeID) int {
	n := 0
	l.walk(id, func(id NodeID) {
		if l.Run(id).IsOrdinary() {
			n++
		}
	})
	return n
}

// IsCircular reports whether walking right or left from id ever revisits a
// node. A well-formed list has two ends and always returns false.
func (l *List) IsCircular(id NodeID) bool {
	visited := map[NodeID]struct{}{id: {}}
	for r := l.Right(id); r != Nil; r = l.Right(r) {
		if _, ok := visited[r]; ok {
			return true
		}
		visited[r] = struct{}{}
	}
	for left := l.Left(id); left != Nil; left = l.Left(left) {
		if _, ok := visited[left]; ok {
			return true
		}
		visited[left] = struct{}{}
	}
	return false
}
