package mvdadd

import (
	"context"
	"fmt"

	"github.com/FocuswithJustin/nmerge/core/errors"
	"github.com/FocuswithJustin/nmerge/core/linkpair"
	"github.com/FocuswithJustin/nmerge/core/match"
	"github.com/FocuswithJustin/nmerge/core/mvd"
	"github.com/FocuswithJustin/nmerge/core/pair"
	"github.com/FocuswithJustin/nmerge/core/suffixtree"
	"github.com/FocuswithJustin/nmerge/core/versions"
	"github.com/FocuswithJustin/nmerge/core/vgnode"
	"github.com/FocuswithJustin/nmerge/internal/logging"
)

// tally counts assertions made by the self-test.
type tally struct {
	passed, failed *int
	check          string
}

func (t *tally) assert(ok bool, format string, args ...any) {
	if ok {
		*t.passed++
		return
	}
	*t.failed++
	logging.Warn("self-test assertion failed", "check", t.check, "detail", fmt.Sprintf(format, args...))
}

// must records err as a failed assertion and reports whether it was nil.
func (t *tally) must(err error, what string) bool {
	t.assert(err == nil, "%s: %v", what, err)
	return err == nil
}

var selfChecks = []struct {
	name string
	fn   func(t *tally)
}{
	{"fruit list", checkFruitList},
	{"split", checkSplit},
	{"hints", checkHints},
	{"circularity", checkCircular},
	{"follows", checkFollows},
	{"node balance", checkNodeBalance},
	{"round trip", checkRoundTrip},
}

// Test implements plugins.Capability.Test. It runs the built-in checks and
// increments passed or failed once per assertion.
func (h *Handler) Test(passed, failed *int) bool {
	before := *failed
	for _, c := range selfChecks {
		c.fn(&tally{passed: passed, failed: failed, check: c.name})
	}
	return *failed == before
}

type fruitList struct {
	l              *linkpair.List
	p1, p2, p3, p4 linkpair.NodeID
}

func newFruitList(t *tally) (*fruitList, bool) {
	l := linkpair.New(logging.NewScratch(logging.ScratchLen))
	f := &fruitList{l: l}
	for _, n := range []struct {
		id   *linkpair.NodeID
		text string
		vs   []int
	}{
		{&f.p1, "banana", []int{3, 27}},
		{&f.p2, "apple", []int{5, 17}},
		{&f.p3, "pear", []int{7, 14, 19}},
		{&f.p4, "orange", []int{7, 14, 22}},
	} {
		r, err := pair.NewOrdinary(versions.MustOf(n.vs...), []rune(n.text))
		if !t.must(err, "new run") {
			return nil, false
		}
		if *n.id, err = l.Create(r); !t.must(err, "create node") {
			return nil, false
		}
	}
	ids := []linkpair.NodeID{f.p1, f.p2, f.p3, f.p4}
	for i := 1; i < len(ids); i++ {
		l.SetRight(ids[i-1], ids[i])
		l.SetLeft(ids[i], ids[i-1])
	}
	return f, true
}

func checkFruitList(t *tally) {
	f, ok := newFruitList(t)
	if !ok {
		return
	}
	l := f.l
	t.assert(l.Len(f.p1) == 4, "length %d, want 4", l.Len(f.p1))
	t.assert(l.Head(f.p4) == f.p1, "head of orange is %d", l.Head(f.p4))
	t.assert(l.Free(f.p2), "apple shares nothing with banana and should be free")
	t.assert(l.TrailingOfNode(f.p4), "orange shares versions with pear")
	t.assert(l.NodeToRight(f.p3) && !l.NodeToRight(f.p1), "node after pear only")

	got := l.NextFollowing(f.p1, versions.MustOf(7, 14))
	t.assert(got == f.p3, "next following {7,14} is %d, want pear", got)

	r, err := pair.NewOrdinary(versions.MustOf(1), []rune("kiwi"))
	if !t.must(err, "new run") {
		return
	}
	kiwi, err := l.Create(r)
	if !t.must(err, "create kiwi") {
		return
	}
	before := l.OrdinaryLen(f.p1)
	l.Replace(f.p3, kiwi)
	t.assert(l.Len(f.p1) == 4, "replace changed the length")
	t.assert(l.Left(f.p3) == linkpair.Nil && l.Right(f.p3) == linkpair.Nil, "replaced node still linked")
	t.assert(l.Right(f.p2) == kiwi && l.Left(f.p4) == kiwi, "kiwi not linked in pear's place")
	t.assert(l.OrdinaryLen(f.p1) == before, "replace changed the ordinary length")
}

func checkSplit(t *tally) {
	f, ok := newFruitList(t)
	if !ok {
		return
	}
	l := f.l
	right, err := l.Split(f.p2, 2)
	if !t.must(err, "split apple") {
		return
	}
	t.assert(string(l.Run(f.p2).Text) == "ap" && string(l.Run(right).Text) == "ple",
		"split gave %q and %q", l.Run(f.p2).Text, l.Run(right).Text)
	t.assert(l.Right(f.p2) == right && l.Left(f.p3) == right, "split half not linked")
	t.assert(l.Run(right).Versions.Equals(l.Run(f.p2).Versions), "split halves differ in versions")

	hint, err := pair.NewHint(versions.MustOf(4))
	if !t.must(err, "new hint") {
		return
	}
	_, err = hint.Split(1)
	t.assert(errors.Is(err, errors.ErrUnsupported), "splitting a hint: %v", err)
}

func checkHints(t *tally) {
	f, ok := newFruitList(t)
	if !ok {
		return
	}
	l := f.l
	if !t.must(l.AddHint(f.p4, 9), "add hint") {
		return
	}
	h := l.Left(f.p4)
	t.assert(h != f.p3 && l.Run(h).IsHint(), "no hint before orange")
	n := l.Len(f.p1)
	t.must(l.AddHint(f.p4, 9), "add hint again")
	t.assert(l.Len(f.p1) == n, "adding the same hint twice grew the list")
	t.must(l.AddHint(f.p4, 11), "grow hint")
	t.assert(l.Run(h).Versions.Equals(versions.MustOf(9, 11)), "hint holds %s", l.Run(h).Versions)

	ov := l.NodeOverhang(f.p3)
	t.assert(ov.Equals(versions.MustOf(9, 11, 19)), "overhang after pear is %s", ov)
}

func checkCircular(t *tally) {
	f, ok := newFruitList(t)
	if !ok {
		return
	}
	l := f.l
	t.assert(!l.IsCircular(f.p1), "straight list reported circular")
	l.SetRight(f.p4, f.p2)
	t.assert(l.IsCircular(f.p1), "cycle not detected")
}

func checkFollows(t *tally) {
	text := "abcxxdef"
	r, err := pair.NewOrdinary(versions.MustOf(1), []rune("abcdef"))
	if !t.must(err, "new run") {
		return
	}
	runs := []*pair.Run{r}
	tree := suffixtree.New([]rune(text))
	log := logging.NewScratch(logging.ScratchLen)

	first, err := match.New(0, 0, runs, tree, versions.MustOf(1), log)
	if !t.must(err, "new match") {
		return
	}
	first.ExtendSingle()
	t.assert(first.Length == 3, "abc matched %d characters", first.Length)

	second, err := match.New(0, 3, runs, tree, versions.MustOf(1), log)
	if !t.must(err, "new match") {
		return
	}
	second.ExtendSingle()
	t.assert(second.STOffset == 5, "def found at %d, want 5", second.STOffset)
	t.assert(match.Follows(first, second), "two skipped characters should be within reach")
	t.assert(!match.Follows(second, first), "matches out of order reported as following")
}

func checkNodeBalance(t *tally) {
	n := vgnode.New()
	in, err := pair.NewOrdinary(versions.MustOf(1, 2), []rune("in"))
	if !t.must(err, "new run") {
		return
	}
	out, err := pair.NewOrdinary(versions.MustOf(1), []rune("out"))
	if !t.must(err, "new run") {
		return
	}
	t.must(n.AddIncoming(vgnode.Edge{Kind: vgnode.Start, ID: linkpair.Nil, Run: in}), "add incoming")
	t.must(n.AddOutgoing(vgnode.Edge{Kind: vgnode.Body, ID: linkpair.Nil, Run: out}), "add outgoing")
	t.assert(!n.Balanced(), "node missing version 2 reported balanced")
	t.assert(n.Overhang().Equals(versions.MustOf(2)), "overhang is %s", n.Overhang())

	foreign, err := pair.NewOrdinary(versions.MustOf(5), []rune("x"))
	if !t.must(err, "new run") {
		return
	}
	err = n.AddOutgoing(vgnode.Edge{Kind: vgnode.Body, ID: linkpair.Nil, Run: foreign})
	t.assert(errors.Is(err, vgnode.ErrUnbalanced), "foreign edge accepted: %v", err)
}

func checkRoundTrip(t *tally) {
	texts := []string{
		"the quick brown fox",
		"the quick red fox",
		"a quick brown dog",
		"",
		"the quick brown fox jumps",
	}
	doc := mvd.New()
	for i, text := range texts {
		_, err := doc.AddVersion(context.Background(), mvd.Meta{}, text, mvd.Options{})
		if !t.must(err, fmt.Sprintf("add version %d", i+1)) {
			return
		}
	}
	for i, want := range texts {
		got, err := doc.VersionText(i + 1)
		if t.must(err, "version text") {
			t.assert(got == want, "version %d reads %q, want %q", i+1, got, want)
		}
	}
	t.must(doc.Validate(), "validate")
}
