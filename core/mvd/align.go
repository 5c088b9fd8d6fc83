package mvd

import (
	"cmp"
	"context"
	"slices"

	"github.com/FocuswithJustin/nmerge/core/errors"
	"github.com/FocuswithJustin/nmerge/core/linkpair"
	"github.com/FocuswithJustin/nmerge/core/match"
	"github.com/FocuswithJustin/nmerge/core/pair"
	"github.com/FocuswithJustin/nmerge/core/suffixtree"
	"github.com/FocuswithJustin/nmerge/core/versions"
	"github.com/FocuswithJustin/nmerge/core/vgnode"
	"github.com/FocuswithJustin/nmerge/internal/logging"
)

// DefaultMinMatch is the shortest chain of matches accepted as shared text.
const DefaultMinMatch = 3

// Meta names a version being added.
type Meta struct {
	ShortName string
	LongName  string
	Group     string
}

// Options control one alignment.
type Options struct {
	// MinMatch is the shortest accepted match chain; zero selects
	// DefaultMinMatch.
	MinMatch int
	// Log receives diagnostics for this alignment. Nil allocates a fresh
	// log of logging.ScratchLen bytes.
	Log *logging.Scratch
}

// Result summarises one alignment.
type Result struct {
	Version Version `json:"version"`
	// match chains considered
	Candidates int `json:"candidates"`
	// accepted match links
	Segments int `json:"segments"`
	// characters shared with earlier versions
	Shared int `json:"shared"`
	// characters stored in new runs
	Inserted   int `json:"inserted"`
	NewRuns    int `json:"new_runs"`
	Splits     int `json:"splits"`
	Hints      int `json:"hints"`
	Unbalanced int `json:"unbalanced_nodes"`
	Runs       int `json:"runs"`
}

// pos is a character position in the run snapshot.
type pos struct{ run, off int }

func (a pos) before(b pos) bool {
	return a.run < b.run || a.run == b.run && a.off < b.off
}

// segment is one accepted match link: pieces of the run list that spell
// text[t : t+n] of the new version.
type segment struct {
	pieces      []match.Piece
	t, n        int
	first, last pos
}

// precedes reports whether s lies wholly before o in the run list and in
// the text.
func (s segment) precedes(o segment) bool {
	return s.last.before(o.first) && s.t+s.n <= o.t
}

func (s segment) disjoint(o segment) bool {
	return s.precedes(o) || o.precedes(s)
}

// AddVersion aligns text against the document and adds it as a new version.
// Text the new version shares with the document is marked as belonging to
// it; the rest is stored in new runs.
//
// Once the run list has been modified the change is final: an error after
// that point leaves the document as it is and must abort the caller's work
// with the document.
func (d *Document) AddVersion(ctx context.Context, meta Meta, text string, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = logging.NewScratch(logging.ScratchLen)
	}
	minMatch := opts.MinMatch
	if minMatch <= 0 {
		minMatch = DefaultMinMatch
	}
	d.list.SetLog(log)
	defer d.list.SetLog(nil)

	rs := []rune(text)
	res := &Result{}
	id := len(d.versions) + 1
	logging.AlignmentEvent(ctx, "start", id, "length", len(rs))

	var (
		segs []segment
		ids  []linkpair.NodeID
		runs []*pair.Run
	)
	if d.head != linkpair.Nil && len(rs) > 0 {
		runs = d.list.ToArray(d.head)
		ids = d.list.IDs(d.head)
		chains := seed(runs, suffixtree.New(rs), log, minMatch)
		res.Candidates = len(chains)
		segs = accept(chains)
		res.Segments = len(segs)
		logging.AlignmentEvent(ctx, "matched", id, "candidates", res.Candidates, "segments", res.Segments)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "alignment cancelled")
	}

	v, err := d.register(meta, rs)
	if err != nil {
		return nil, err
	}
	res.Version = v

	if err := d.apply(v.ID, rs, runs, ids, segs, res); err != nil {
		logging.AlignmentEvent(ctx, "failed", v.ID, "error", err.Error())
		return nil, errors.Wrapf(err, "align version %d", v.ID)
	}
	if err := d.Validate(); err != nil {
		log.Add("mvd: %v\n", err)
		return nil, err
	}
	if d.head != linkpair.Nil {
		res.Runs = d.list.Len(d.head)
	}
	logging.AlignmentEvent(ctx, "done", v.ID, "shared", res.Shared, "inserted", res.Inserted, "runs", res.Runs)
	return res, nil
}

// seed starts a match at every character of every ordinary run, extends it
// as far as the tree allows and chains its continuations. Start positions
// inside the first link of a chain already kept for the same run are
// skipped: they could only yield a suffix of that link.
func seed(runs []*pair.Run, tree match.Tree, log *logging.Scratch, minMatch int) []*match.Match {
	var chains []*match.Match
	for i, r := range runs {
		if !r.IsOrdinary() {
			continue
		}
		covered := 0
		for j, n := 0, r.Len(); j < n; j++ {
			if j < covered {
				continue
			}
			m, err := match.New(i, j, runs, tree, r.Versions.Clone(), log)
			if err != nil {
				continue
			}
			if !m.ExtendSingle() {
				m.Dispose()
				continue
			}
			extendChain(m)
			if m.TotalLength() < minMatch {
				m.Dispose()
				continue
			}
			covered = r.Len()
			if m.EndRun == i {
				covered = m.EndPos + 1
			}
			chains = append(chains, m)
		}
	}
	return chains
}

// extendChain appends continuations found after gaps of up to KDIST
// characters.
func extendChain(head *match.Match) {
	last := head
	for {
		var next *match.Match
		for skip := 0; skip <= match.KDIST && next == nil; skip++ {
			c := last.Clone()
			ok := true
			for k := 0; k < skip && ok; k++ {
				_, ok = c.Advance()
			}
			if ok && c.ExtendSingle() && match.Follows(last, c) {
				next = c
			} else {
				c.Dispose()
			}
		}
		if next == nil {
			return
		}
		last.Append(next)
		last = next
	}
}

// accept picks the longest chains first and keeps those whose links are
// ordered consistently with everything accepted before them. It disposes
// the chains and returns the accepted links in run-list order.
//
// Accepted links are kept sorted and pairwise disjoint, so each is ordered
// the same way in the run list and in the text; a new link only has to be
// checked against its neighbours in that order.
func accept(chains []*match.Match) []segment {
	type cand struct {
		m     *match.Match
		total int
	}
	cands := make([]cand, len(chains))
	for i, m := range chains {
		cands[i] = cand{m, m.TotalLength()}
	}
	slices.SortStableFunc(cands, func(a, b cand) int { return cmp.Compare(b.total, a.total) })

	var accepted []segment
	for _, c := range cands {
		segs := segmentsOf(c.m)
		c.m.Dispose()
		if !fits(accepted, segs) {
			continue
		}
		for _, s := range segs {
			k, _ := slices.BinarySearchFunc(accepted, s.first, comparePos)
			accepted = slices.Insert(accepted, k, s)
		}
	}
	return accepted
}

func comparePos(s segment, p pos) int {
	switch {
	case s.first.before(p):
		return -1
	case p.before(s.first):
		return 1
	default:
		return 0
	}
}

// fits reports whether the links of a chain follow one another and are
// disjoint from the sorted accepted links.
func fits(accepted, segs []segment) bool {
	for i, s := range segs {
		if i > 0 && !segs[i-1].precedes(s) {
			return false
		}
		k, found := slices.BinarySearchFunc(accepted, s.first, comparePos)
		if found {
			return false
		}
		if k > 0 && !s.disjoint(accepted[k-1]) {
			return false
		}
		if k < len(accepted) && !s.disjoint(accepted[k]) {
			return false
		}
	}
	return true
}

func segmentsOf(m *match.Match) []segment {
	var segs []segment
	for ; m != nil; m = m.Next() {
		ps := m.Pieces()
		if len(ps) == 0 {
			continue
		}
		last := ps[len(ps)-1]
		segs = append(segs, segment{
			pieces: ps,
			t:      m.STOffset,
			n:      m.Length,
			first:  pos{ps[0].Run, ps[0].From},
			last:   pos{last.Run, last.To - 1},
		})
	}
	return segs
}

// placed is a node of the new version with the span of text it holds.
type placed struct {
	id     linkpair.NodeID
	t, end int
}

// apply rewrites the run list so that version v reads rs.
func (d *Document) apply(v int, rs []rune, runs []*pair.Run, ids []linkpair.NodeID, segs []segment, res *Result) error {
	shared, err := d.splitShared(runs, ids, segs, res)
	if err != nil {
		return err
	}
	for _, p := range shared {
		if err := d.list.Run(p.id).Versions.Set(v); err != nil {
			return err
		}
		d.list.SetSTOffset(p.id, p.t)
		res.Shared += p.end - p.t
	}

	if len(shared) == 0 {
		if len(rs) == 0 {
			return nil
		}
		if d.head == linkpair.Nil {
			id, err := d.newRun(v, rs, 0, len(rs), res)
			if err != nil {
				return err
			}
			d.head = id
			return nil
		}
		all := d.list.IDs(d.head)
		_, err := d.insertAfter(all[len(all)-1], v, rs, 0, len(rs), res)
		return err
	}

	if first := shared[0]; first.t > 0 {
		id, err := d.newRun(v, rs, 0, first.t, res)
		if err != nil {
			return err
		}
		d.list.AddBefore(first.id, id)
	}
	for i, p := range shared {
		end := len(rs)
		if i+1 < len(shared) {
			end = shared[i+1].t
		}
		if end > p.end {
			if _, err := d.insertAfter(p.id, v, rs, p.end, end, res); err != nil {
				return err
			}
		}
	}
	d.head = d.list.Head(d.head)
	return d.markPassages(v, res)
}

// splitShared cuts the matched runs at piece boundaries and returns the
// node holding each piece, in run-list order.
func (d *Document) splitShared(runs []*pair.Run, ids []linkpair.NodeID, segs []segment, res *Result) ([]placed, error) {
	cuts := make(map[int][]int)
	for _, s := range segs {
		for _, p := range s.pieces {
			for _, at := range []int{p.From, p.To} {
				if at > 0 && at < runs[p.Run].Len() {
					cuts[p.Run] = append(cuts[p.Run], at)
				}
			}
		}
	}
	nodeAt := make(map[pos]linkpair.NodeID)
	for run, at := range cuts {
		slices.Sort(at)
		at = slices.Compact(at)
		for k := len(at) - 1; k >= 0; k-- {
			right, err := d.list.Split(ids[run], at[k])
			if err != nil {
				return nil, err
			}
			nodeAt[pos{run, at[k]}] = right
			res.Splits++
		}
	}

	var out []placed
	for _, s := range segs {
		t := s.t
		for _, p := range s.pieces {
			id, ok := nodeAt[pos{p.Run, p.From}]
			if !ok {
				id = ids[p.Run]
			}
			n := p.To - p.From
			out = append(out, placed{id: id, t: t, end: t + n})
			t += n
		}
	}
	return out, nil
}

func (d *Document) newRun(v int, rs []rune, from, to int, res *Result) (linkpair.NodeID, error) {
	vs := versions.New()
	if err := vs.Set(v); err != nil {
		return linkpair.Nil, err
	}
	run, err := pair.NewOrdinary(vs, rs[from:to:to])
	if err != nil {
		return linkpair.Nil, err
	}
	id, err := d.list.Create(run)
	if err != nil {
		return linkpair.Nil, err
	}
	d.list.SetSTOffset(id, from)
	res.NewRuns++
	res.Inserted += to - from
	return id, nil
}

// insertAfter stores rs[from:to] in a new run right of id, inside the node
// that follows id when there is one.
func (d *Document) insertAfter(id linkpair.NodeID, v int, rs []rune, from, to int, res *Result) (linkpair.NodeID, error) {
	nid, err := d.newRun(v, rs, from, to, res)
	if err != nil {
		return linkpair.Nil, err
	}
	if !d.list.AddAfter(id, nid) {
		d.list.AddAtNode(id, nid)
	}
	return nid, nil
}

// markPassages records a hint wherever version v skips over runs, and
// counts the nodes left unbalanced at those points.
func (d *Document) markPassages(v int, res *Result) error {
	var prev linkpair.NodeID = linkpair.Nil
	var jumps [][2]linkpair.NodeID
	for _, id := range d.list.IDs(d.head) {
		r := d.list.Run(id)
		if r.IsHint() || !r.Versions.Has(v) {
			continue
		}
		if prev != linkpair.Nil && d.list.Right(prev) != id {
			jumps = append(jumps, [2]linkpair.NodeID{prev, id})
		}
		prev = id
	}
	for _, j := range jumps {
		if !d.list.Run(d.list.Left(j[1])).IsHint() {
			res.Hints++
		}
		if err := d.list.AddHint(j[1], v); err != nil {
			return err
		}
		n, err := vgnode.FromList(d.list, j[0])
		if err != nil {
			return err
		}
		if !n.Balanced() {
			res.Unbalanced++
			logging.Debug("unbalanced node", "version", v, "node", n.String())
		}
	}
	return nil
}
