// Package vgnode models a graph node: a boundary in the run list where the
// paths of several versions meet. A node is balanced when every version that
// enters it also leaves it.
package vgnode

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/nmerge/core/errors"
	"github.com/FocuswithJustin/nmerge/core/linkpair"
	"github.com/FocuswithJustin/nmerge/core/pair"
	"github.com/FocuswithJustin/nmerge/core/versions"
)

// EdgeKind tags where an edge sits in the document graph.
type EdgeKind int

const (
	// Start is an edge leaving the beginning of the document.
	Start EdgeKind = iota + 1
	// Body is an edge between two nodes inside the document.
	Body
	// End is an edge reaching the end of the document.
	End
)

func (k EdgeKind) String() string {
	switch k {
	case Start:
		return "START"
	case Body:
		return "BODY"
	case End:
		return "END"
	default:
		return fmt.Sprintf("edge(%d)", int(k))
	}
}

// ErrUnbalanced is returned for an outgoing edge that carries none of the
// versions entering the node.
var ErrUnbalanced = fmt.Errorf("%w: unbalanced node", errors.ErrInvariant)

// Edge is one arc entering or leaving a node.
type Edge struct {
	Kind EdgeKind
	ID   linkpair.NodeID
	Run  *pair.Run
}

// Node is a transient view over a run-list boundary.
type Node struct {
	in, out  []Edge
	incoming *versions.Set
	outgoing *versions.Set
}

// New creates a node with no edges.
func New() *Node {
	return &Node{incoming: versions.New(), outgoing: versions.New()}
}

// AddIncoming adds an entering edge.
func (n *Node) AddIncoming(e Edge) error {
	if e.Run == nil {
		return errors.NewValidation("edge", "incoming edge has no run")
	}
	n.in = append(n.in, e)
	n.incoming.Union(e.Run.Versions)
	return nil
}

// AddOutgoing adds a leaving edge. An edge sharing no version with the
// incoming union does not leave this node and is refused.
func (n *Node) AddOutgoing(e Edge) error {
	if e.Run == nil {
		return errors.NewValidation("edge", "outgoing edge has no run")
	}
	if !e.Run.Versions.Intersects(n.incoming) {
		return errors.Wrapf(ErrUnbalanced, "edge %s shares no version with %s", e.Run.Versions, n.incoming)
	}
	n.out = append(n.out, e)
	n.outgoing.Union(e.Run.Versions)
	return nil
}

// Incoming returns the entering edges.
func (n *Node) Incoming() []Edge { return n.in }

// Outgoing returns the leaving edges.
func (n *Node) Outgoing() []Edge { return n.out }

// Balanced reports whether the incoming and outgoing version unions match.
func (n *Node) Balanced() bool {
	return n.incoming.Equals(n.outgoing)
}

// Overhang returns the versions that enter the node but have no outgoing
// edge yet. The caller owns the result.
func (n *Node) Overhang() *versions.Set {
	return n.incoming.Clone().AndNot(n.outgoing)
}

// Wants reports whether run could serve as an outgoing edge that reduces
// the overhang.
func (n *Node) Wants(run *pair.Run) bool {
	return run != nil && n.Overhang().Intersects(run.Versions)
}

func (n *Node) String() string {
	var sb strings.Builder
	sb.WriteString("in:")
	for _, e := range n.in {
		fmt.Fprintf(&sb, " %s%s", e.Kind, e.Run.Versions)
	}
	sb.WriteString(" out:")
	for _, e := range n.out {
		fmt.Fprintf(&sb, " %s%s", e.Kind, e.Run.Versions)
	}
	if oh := n.Overhang(); !oh.Empty() {
		fmt.Fprintf(&sb, " overhang: %s", oh)
	}
	return sb.String()
}

// FromList builds the node at the boundary right of id. The run at id and
// any hint after it enter the node; the runs that follow leave it for as
// long as they carry a version still owed an outgoing edge. A version that
// leaves without entering through id is traced left to the nearest run
// carrying it, which becomes another incoming edge.
func FromList(l *linkpair.List, id linkpair.NodeID) (*Node, error) {
	n := New()
	if err := n.AddIncoming(Edge{Kind: leftKind(l, id), ID: id, Run: l.Run(id)}); err != nil {
		return nil, err
	}
	next := l.Right(id)
	if next != linkpair.Nil && l.Run(next).IsHint() {
		if err := n.AddIncoming(Edge{Kind: Body, ID: next, Run: l.Run(next)}); err != nil {
			return nil, err
		}
		next = l.Right(next)
	}
	for ; next != linkpair.Nil; next = l.Right(next) {
		run := l.Run(next)
		if run.IsHint() || !n.Wants(run) {
			break
		}
		kind := Body
		if l.Right(next) == linkpair.Nil {
			kind = End
		}
		if err := n.AddOutgoing(Edge{Kind: kind, ID: next, Run: run}); err != nil {
			return nil, err
		}
	}

	missing := n.outgoing.Clone().AndNot(n.incoming)
	seen := n.incoming.Clone()
	for prev := l.Left(id); prev != linkpair.Nil && !missing.Empty(); prev = l.Left(prev) {
		run := l.Run(prev)
		arrives := run.Versions.Clone().AndNot(seen)
		seen.Union(run.Versions)
		if !arrives.Intersects(missing) {
			continue
		}
		if err := n.AddIncoming(Edge{Kind: leftKind(l, prev), ID: prev, Run: run}); err != nil {
			return nil, err
		}
		missing.AndNot(arrives)
	}
	return n, nil
}

func leftKind(l *linkpair.List, id linkpair.NodeID) EdgeKind {
	if l.Left(id) == linkpair.Nil {
		return Start
	}
	return Body
}
