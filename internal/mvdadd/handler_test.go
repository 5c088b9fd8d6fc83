package mvdadd

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/nmerge/core/errors"
	"github.com/FocuswithJustin/nmerge/core/plugins"
)

func TestRegistered(t *testing.T) {
	p := plugins.GetEmbeddedPlugin("mvd.add")
	if p == nil {
		t.Fatal("mvd.add not registered")
	}
	if _, ok := p.Handler.(*Handler); !ok {
		t.Errorf("handler is %T", p.Handler)
	}
	if err := plugins.CheckPluginCompatibility(Manifest(), plugins.HostVersion); err != nil {
		t.Errorf("manifest incompatible with host: %v", err)
	}
}

func TestDescriptions(t *testing.T) {
	h := &Handler{}
	if h.Name() != "add" {
		t.Errorf("Name() = %q", h.Name())
	}
	if !strings.HasPrefix(h.Version(), "add 1.0.0") {
		t.Errorf("Version() = %q", h.Version())
	}
	for _, flag := range []string{"--short-name", "--long-name", "--group", "--min-match", "--format", "--xz"} {
		if !strings.Contains(h.Help(), flag) {
			t.Errorf("Help() does not mention %s", flag)
		}
	}
}

func TestSelfTest(t *testing.T) {
	var passed, failed int
	h := &Handler{}
	if !h.Test(&passed, &failed) {
		t.Errorf("self-test failed: %d passed, %d failed", passed, failed)
	}
	if passed == 0 || failed != 0 {
		t.Errorf("passed = %d, failed = %d", passed, failed)
	}

	// counters accumulate across runs
	before := passed
	h.Test(&passed, &failed)
	if passed != 2*before {
		t.Errorf("second run passed = %d, want %d", passed, 2*before)
	}
}

func TestTallyCountsFailures(t *testing.T) {
	var passed, failed int
	tl := &tally{passed: &passed, failed: &failed, check: "unit"}
	tl.assert(true, "fine")
	tl.assert(false, "broken %d", 1)
	if tl.must(nil, "ok") != true || tl.must(errors.ErrInternal, "bad") != false {
		t.Error("must() result wrong")
	}
	if passed != 2 || failed != 2 {
		t.Errorf("passed = %d, failed = %d", passed, failed)
	}
}
