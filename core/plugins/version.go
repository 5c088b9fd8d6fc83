package plugins

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/nmerge/core/errors"
)

// SemVer is a plugin or host version.
type SemVer struct {
	Major int
	Minor int
	Patch int
}

// ParseSemVer parses "1.2.3", "v1.2" or "1". Missing parts are zero.
func ParseSemVer(v string) (*SemVer, error) {
	if v == "" {
		return nil, errors.NewParse("version", "", "empty version string")
	}
	parts := strings.Split(strings.TrimPrefix(v, "v"), ".")
	if len(parts) > 3 {
		return nil, errors.NewParse("version", v, "expected X.Y.Z")
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, errors.NewParse("version", v, "component "+strconv.Quote(p)+" is not a number")
		}
		nums[i] = n
	}
	return &SemVer{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

func (v *SemVer) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
}

// Compare returns -1, 0 or 1 as v is older than, equal to or newer than o.
func (v *SemVer) Compare(o *SemVer) int {
	for _, d := range [3]int{v.Major - o.Major, v.Minor - o.Minor, v.Patch - o.Patch} {
		switch {
		case d < 0:
			return -1
		case d > 0:
			return 1
		}
	}
	return 0
}

// IsCompatibleWith reports whether v satisfies a plugin that requires
// version required: same major, minor at least as new.
func (v *SemVer) IsCompatibleWith(required *SemVer) bool {
	return v.Major == required.Major && v.Minor >= required.Minor
}
