// Package semver implements the semantic version model used by the skill
// engine: version parsing and total-order comparison, plus the requirement
// grammar (caret, tilde, wildcard, and comparator clauses) that dependency
// edges declare against.
package semver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrInvalidVersion indicates a string that is not MAJOR.MINOR.PATCH[-PRE].
	ErrInvalidVersion = errors.New("invalid version")

	// ErrInvalidRequirement indicates a requirement expression that could not
	// be parsed.
	ErrInvalidRequirement = errors.New("invalid version requirement")
)

// =============================================================================
// PreID
// =============================================================================

// PreID is a single prerelease identifier, either numeric or alphanumeric.
type PreID struct {
	Raw     string
	Num     uint64
	Numeric bool
}

func parsePreID(raw string) (PreID, error) {
	if raw == "" {
		return PreID{}, fmt.Errorf("%w: empty prerelease identifier", ErrInvalidVersion)
	}
	for _, r := range raw {
		ok := r == '-' ||
			(r >= '0' && r <= '9') ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z')
		if !ok {
			return PreID{}, fmt.Errorf("%w: bad prerelease identifier %q", ErrInvalidVersion, raw)
		}
	}
	if isAllDigits(raw) {
		if len(raw) > 1 && raw[0] == '0' {
			return PreID{}, fmt.Errorf("%w: leading zero in prerelease identifier %q", ErrInvalidVersion, raw)
		}
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return PreID{}, fmt.Errorf("%w: prerelease identifier %q", ErrInvalidVersion, raw)
		}
		return PreID{Raw: raw, Num: n, Numeric: true}, nil
	}
	return PreID{Raw: raw}, nil
}

// compare orders prerelease identifiers: numeric before alphanumeric,
// numerics by value, alphanumerics lexically.
func (p PreID) compare(o PreID) int {
	switch {
	case p.Numeric && !o.Numeric:
		return -1
	case !p.Numeric && o.Numeric:
		return 1
	case p.Numeric:
		switch {
		case p.Num < o.Num:
			return -1
		case p.Num > o.Num:
			return 1
		}
		return 0
	default:
		return strings.Compare(p.Raw, o.Raw)
	}
}

// =============================================================================
// Version
// =============================================================================

// Version is a parsed semantic version. Construct only via Parse or
// MustParse so malformed input can never reach comparisons.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
	Pre   []PreID
}

// Parse parses MAJOR.MINOR.PATCH[-PRERELEASE]. Malformed input returns an
// error wrapping ErrInvalidVersion; it is never silently defaulted.
func Parse(s string) (Version, error) {
	core := s
	pre := ""
	if i := strings.IndexByte(s, '-'); i >= 0 {
		core, pre = s[:i], s[i+1:]
	}

	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	var nums [3]uint64
	for i, part := range parts {
		n, err := parseCoreNumber(part)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
		}
		nums[i] = n
	}

	v := Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}
	if pre == "" {
		if strings.HasSuffix(s, "-") {
			return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
		}
		return v, nil
	}

	for _, raw := range strings.Split(pre, ".") {
		id, err := parsePreID(raw)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
		}
		v.Pre = append(v.Pre, id)
	}
	return v, nil
}

// MustParse parses s and panics on failure. For literals in tests and setup.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// parseCoreNumber rejects empty parts, non-digits, and leading zeros
// beyond a single "0".
func parseCoreNumber(s string) (uint64, error) {
	if s == "" || !isAllDigits(s) {
		return 0, ErrInvalidVersion
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, ErrInvalidVersion
	}
	return strconv.ParseUint(s, 10, 32)
}

func isAllDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// String renders the version back to its canonical form.
func (v Version) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.%d.%d", v.Major, v.Minor, v.Patch)
	for i, id := range v.Pre {
		if i == 0 {
			b.WriteByte('-')
		} else {
			b.WriteByte('.')
		}
		b.WriteString(id.Raw)
	}
	return b.String()
}

// Prerelease reports whether the version carries prerelease identifiers.
func (v Version) Prerelease() bool {
	return len(v.Pre) > 0
}

// Compare returns -1, 0, or 1 ordering v against o.
//
// Major, minor, and patch compare numerically. At equal core versions a
// release (no prerelease) is greater than any prerelease; prerelease
// sequences compare positionally, with a shorter sequence that prefixes a
// longer one ordering lower.
func (v Version) Compare(o Version) int {
	if c := compareUint(v.Major, o.Major); c != 0 {
		return c
	}
	if c := compareUint(v.Minor, o.Minor); c != 0 {
		return c
	}
	if c := compareUint(v.Patch, o.Patch); c != 0 {
		return c
	}

	switch {
	case len(v.Pre) == 0 && len(o.Pre) == 0:
		return 0
	case len(v.Pre) == 0:
		return 1
	case len(o.Pre) == 0:
		return -1
	}

	for i := 0; i < len(v.Pre) && i < len(o.Pre); i++ {
		if c := v.Pre[i].compare(o.Pre[i]); c != 0 {
			return c
		}
	}
	return compareUint(uint64(len(v.Pre)), uint64(len(o.Pre)))
}

// Equal reports whether v and o are the same version, prerelease included.
func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

// Less reports whether v precedes o.
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Compare orders two version strings, parsing both first.
func Compare(a, b string) (int, error) {
	va, err := Parse(a)
	if err != nil {
		return 0, err
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

// Latest returns the greatest parseable version from versions, skipping
// entries that fail to parse. Returns false if nothing parsed.
func Latest(versions []string) (Version, bool) {
	var best Version
	found := false
	for _, s := range versions {
		v, err := Parse(s)
		if err != nil {
			continue
		}
		if !found || best.Less(v) {
			best = v
			found = true
		}
	}
	return best, found
}
