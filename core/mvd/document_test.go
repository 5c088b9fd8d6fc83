package mvd

import (
	"context"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/nmerge/core/errors"
	"github.com/FocuswithJustin/nmerge/core/linkpair"
	"github.com/FocuswithJustin/nmerge/internal/logging"
)

func add(t *testing.T, d *Document, name, text string) *Result {
	t.Helper()
	res, err := d.AddVersion(context.Background(), Meta{ShortName: name}, text, Options{})
	if err != nil {
		t.Fatalf("AddVersion(%s): %v", name, err)
	}
	return res
}

func checkTexts(t *testing.T, d *Document, texts []string) {
	t.Helper()
	for i, want := range texts {
		got, err := d.VersionText(i + 1)
		if err != nil {
			t.Fatalf("VersionText(%d): %v", i+1, err)
		}
		if got != want {
			t.Errorf("VersionText(%d) = %q, want %q", i+1, got, want)
		}
	}
	if err := d.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestFirstVersion(t *testing.T) {
	d := New()
	res := add(t, d, "A", "the cat sat")
	if res.Version.ID != 1 || res.Runs != 1 || res.Inserted != 11 {
		t.Errorf("result = %+v", res)
	}
	if len(d.Runs()) != 1 || d.List().Left(d.Head()) != linkpair.Nil {
		t.Error("first version should be a single run")
	}
	checkTexts(t, d, []string{"the cat sat"})
}

func TestIdenticalVersionShares(t *testing.T) {
	d := New()
	add(t, d, "A", "abcdefgh")
	res := add(t, d, "B", "abcdefgh")
	if res.Shared != 8 || res.Inserted != 0 || res.Runs != 1 {
		t.Errorf("result = %+v, want all 8 characters shared in one run", res)
	}
	if got := d.Runs()[0].Versions.String(); got != "{1,2}" {
		t.Errorf("run versions = %s, want {1,2}", got)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
	}{
		{"substitution", []string{
			"the quick brown fox",
			"the quick red fox",
		}},
		{"insertion and deletion", []string{
			"hello world",
			"hello brave new world",
			"hello world again",
			"world",
		}},
		{"many versions", []string{
			"In the beginning was the Word",
			"In the beginning was the word, and the word was with God",
			"At the beginning was the Word",
			"In the beginning the Word was",
			"",
			"completely unrelated text",
			"In the beginning was the Word",
		}},
		{"repeats", []string{
			"abcabcabc",
			"abcXabcabc",
			"cbacbacba",
			"abcabc",
		}},
		{"unicode", []string{
			"Ἐν ἀρχῇ ἦν ὁ λόγος",
			"Ἐν ἀρχῇ ἦν ὁ θεός",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New()
			for i, text := range tt.texts {
				res := add(t, d, "", text)
				if n := len([]rune(text)); res.Shared+res.Inserted != n {
					t.Errorf("version %d: shared %d + inserted %d != %d", i+1, res.Shared, res.Inserted, n)
				}
				checkTexts(t, d, tt.texts[:i+1])
			}
		})
	}
}

func TestAlignmentSharesText(t *testing.T) {
	d := New()
	add(t, d, "A", "hello world")
	res := add(t, d, "B", "hello brave world")
	if res.Shared < len("hello world")-1 {
		t.Errorf("Shared = %d, want most of \"hello world\" shared", res.Shared)
	}
	if res.NewRuns == 0 || res.Splits == 0 {
		t.Errorf("result = %+v: expected a split and a new run", res)
	}
}

func TestVersionMetadata(t *testing.T) {
	d := New()
	res, err := d.AddVersion(context.Background(), Meta{ShortName: "KJV", LongName: "King James", Group: "en"}, "text", Options{})
	if err != nil {
		t.Fatal(err)
	}
	sum := blake3.Sum256([]byte("text"))
	if res.Version.Digest != hex.EncodeToString(sum[:]) {
		t.Errorf("Digest = %s", res.Version.Digest)
	}
	v, err := d.Version(1)
	if err != nil || v.LongName != "King James" || v.Group != "en" || v.Length != 4 {
		t.Errorf("Version(1) = %+v, %v", v, err)
	}
	add(t, d, "", "more")
	if got := d.Versions()[1].ShortName; got != "v2" {
		t.Errorf("default short name = %q, want v2", got)
	}

	_, err = d.AddVersion(context.Background(), Meta{ShortName: "KJV"}, "dup", Options{})
	var verr *errors.ValidationError
	if !errors.As(err, &verr) || verr.Field != "short_name" {
		t.Errorf("duplicate name error = %v", err)
	}
	if len(d.Versions()) != 2 {
		t.Error("rejected version was registered")
	}
}

func TestVersionTextUnknown(t *testing.T) {
	d := New()
	if _, err := d.VersionText(3); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("VersionText(3) error = %v, want not found", err)
	}
}

func TestValidateDetectsCycle(t *testing.T) {
	d := New()
	add(t, d, "A", "one two three")
	add(t, d, "B", "one 2 three")
	ids := d.List().IDs(d.Head())
	if len(ids) < 2 {
		t.Fatalf("expected several runs, got %d", len(ids))
	}
	d.List().SetRight(ids[len(ids)-1], ids[0])

	err := d.Validate()
	var ierr *errors.InvariantError
	if !errors.As(err, &ierr) || !errors.Is(err, errors.ErrInvariant) {
		t.Errorf("Validate() = %v, want invariant error", err)
	}
}

func TestCancelledBeforeMutation(t *testing.T) {
	d := New()
	add(t, d, "A", "abc")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.AddVersion(ctx, Meta{}, "abd", Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("AddVersion() error = %v, want context.Canceled", err)
	}
	if len(d.Versions()) != 1 || len(d.Runs()) != 1 {
		t.Error("cancelled alignment modified the document")
	}
}

func TestAllocationFailure(t *testing.T) {
	d := NewWithCapacity(1)
	add(t, d, "A", "abc")

	log := logging.NewScratch(0)
	_, err := d.AddVersion(context.Background(), Meta{}, "xyz", Options{Log: log})
	if !errors.Is(err, errors.ErrAllocation) {
		t.Fatalf("AddVersion() error = %v, want allocation failure", err)
	}
	if !strings.Contains(log.String(), "linkpair: failed to create object") {
		t.Errorf("log = %q", log.String())
	}
}

func TestRepetitiveVersionSeedsOnce(t *testing.T) {
	text := strings.Repeat("ab", 4000)
	d := New()
	add(t, d, "A", text)
	res := add(t, d, "B", text)
	if res.Candidates != 1 || res.Shared != len(text) || res.Runs != 1 {
		t.Errorf("result = %+v, want one candidate sharing the whole run", res)
	}

	res = add(t, d, "C", text[:3000]+"xyz"+text[3000:])
	if res.Shared < 5000 || res.Shared+res.Inserted != len(text)+3 {
		t.Errorf("shared %d inserted %d of %d", res.Shared, res.Inserted, len(text)+3)
	}
	if res.Candidates > 4 {
		t.Errorf("Candidates = %d, want positions inside kept chains skipped", res.Candidates)
	}
	checkTexts(t, d, []string{text, text, text[:3000] + "xyz" + text[3000:]})
}

func seg(run, from, to, t int) segment {
	return segment{t: t, n: to - from, first: pos{run, from}, last: pos{run, to - 1}}
}

func TestFits(t *testing.T) {
	accepted := []segment{seg(0, 0, 5, 0), seg(2, 0, 5, 20), seg(4, 0, 5, 40)}
	tests := []struct {
		name string
		segs []segment
		want bool
	}{
		{"between neighbours", []segment{seg(1, 0, 4, 10)}, true},
		{"after the last", []segment{seg(5, 0, 2, 50)}, true},
		{"before the first", []segment{{t: 0, n: 0}}, false},
		{"same start as accepted", []segment{seg(2, 0, 3, 30)}, false},
		{"crosses in the text", []segment{seg(1, 0, 4, 30)}, false},
		{"overlaps in the run list", []segment{seg(0, 3, 5, 10)}, false},
		{"text overlaps predecessor", []segment{seg(1, 0, 4, 2)}, false},
		{"chain in order", []segment{seg(1, 0, 2, 8), seg(3, 0, 2, 30)}, true},
		{"chain out of order", []segment{seg(3, 0, 2, 30), seg(1, 0, 2, 8)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fits(accepted, tt.segs); got != tt.want {
				t.Errorf("fits() = %v, want %v", got, tt.want)
			}
		})
	}
}
