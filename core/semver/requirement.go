package semver

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// Comparator
// =============================================================================

// compOp is the kind of a single requirement clause.
type compOp int

const (
	opExact compOp = iota
	opGreater
	opGreaterEq
	opLess
	opLessEq
	opCaret
	opTilde
	opWildcard
)

func (o compOp) String() string {
	switch o {
	case opExact:
		return "="
	case opGreater:
		return ">"
	case opGreaterEq:
		return ">="
	case opLess:
		return "<"
	case opLessEq:
		return "<="
	case opCaret:
		return "^"
	case opTilde:
		return "~"
	case opWildcard:
		return "*"
	}
	return "?"
}

// partial is a version with a remembered significant-digit count. "1.2"
// zero-fills to 1.2.0 but still knows the patch was unspecified, which is
// what caret, tilde, and wildcard upper bounds depend on.
type partial struct {
	major, minor, patch uint64
	hasMinor            bool
	hasPatch            bool
	pre                 []PreID
}

func (p partial) version() Version {
	return Version{Major: p.major, Minor: p.minor, Patch: p.patch, Pre: p.pre}
}

// Comparator is one clause of a requirement.
type Comparator struct {
	op compOp
	v  partial
}

// lowerBound is the inclusive floor of the clause's accepted range.
func (c Comparator) lowerBound() Version {
	return c.v.version()
}

// upperBound returns the exclusive ceiling implied by caret, tilde, and
// wildcard clauses, computed from the clause's significant-digit count.
// ok is false where the clause has no ceiling.
func (c Comparator) upperBound() (Version, bool) {
	switch c.op {
	case opCaret:
		return c.caretUpper(), true
	case opTilde:
		return c.tildeUpper(), true
	case opWildcard:
		if !c.v.hasMinor {
			return Version{}, false // bare "*"
		}
		if !c.v.hasPatch {
			return Version{Major: c.v.major + 1}, true // "1.*"
		}
		return Version{Major: c.v.major, Minor: c.v.minor + 1}, true // "1.2.*"
	case opExact:
		// Partial exact clauses ("=1.2") accept the whole unspecified tail.
		if !c.v.hasMinor {
			return Version{Major: c.v.major + 1}, true
		}
		if !c.v.hasPatch {
			return Version{Major: c.v.major, Minor: c.v.minor + 1}, true
		}
		return Version{}, false
	}
	return Version{}, false
}

func (c Comparator) caretUpper() Version {
	switch {
	case c.v.major > 0:
		return Version{Major: c.v.major + 1}
	case !c.v.hasMinor:
		// ^0 admits everything below 1.0.0.
		return Version{Major: 1}
	case c.v.minor > 0:
		// Leading-zero major: the minor digit is the breaking boundary.
		return Version{Minor: c.v.minor + 1}
	case !c.v.hasPatch:
		return Version{Minor: c.v.minor + 1}
	default:
		// ^0.0.x: only the exact patch line is compatible.
		return Version{Patch: c.v.patch + 1}
	}
}

func (c Comparator) tildeUpper() Version {
	if !c.v.hasMinor {
		return Version{Major: c.v.major + 1}
	}
	return Version{Major: c.v.major, Minor: c.v.minor + 1}
}

// matches evaluates the clause against v via Compare.
func (c Comparator) matches(v Version) bool {
	switch c.op {
	case opGreater:
		return v.Compare(c.lowerBound()) > 0
	case opGreaterEq:
		return v.Compare(c.lowerBound()) >= 0
	case opLess:
		return v.Compare(c.lowerBound()) < 0
	case opLessEq:
		return v.Compare(c.lowerBound()) <= 0
	case opExact:
		if c.v.hasPatch {
			return v.Compare(c.lowerBound()) == 0
		}
	case opWildcard:
		if !c.v.hasMinor {
			return true
		}
	}

	// Range clauses: caret, tilde, wildcard, and partial exact.
	if v.Compare(c.lowerBound()) < 0 {
		return false
	}
	upper, ok := c.upperBound()
	if !ok {
		return true
	}
	return v.Compare(upper) < 0
}

// preCompatible reports whether a prerelease version is anchored by this
// clause: the clause names a prerelease on the same core triple.
func (c Comparator) preCompatible(v Version) bool {
	return len(c.v.pre) > 0 &&
		c.v.major == v.Major && c.v.minor == v.Minor && c.v.patch == v.Patch
}

// String renders the clause back to source syntax.
func (c Comparator) String() string {
	p := c.v
	switch c.op {
	case opWildcard:
		switch {
		case !p.hasMinor:
			return "*"
		case !p.hasPatch:
			return fmt.Sprintf("%d.*", p.major)
		default:
			return fmt.Sprintf("%d.%d.*", p.major, p.minor)
		}
	case opCaret, opTilde:
		return c.op.String() + p.render()
	default:
		return c.op.String() + p.render()
	}
}

func (p partial) render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", p.major)
	if p.hasMinor {
		fmt.Fprintf(&b, ".%d", p.minor)
	}
	if p.hasPatch {
		fmt.Fprintf(&b, ".%d", p.patch)
	}
	for i, id := range p.pre {
		if i == 0 {
			b.WriteByte('-')
		} else {
			b.WriteByte('.')
		}
		b.WriteString(id.Raw)
	}
	return b.String()
}

// =============================================================================
// Requirement
// =============================================================================

// Requirement is an ordered AND-list of comparators. The zero value (and
// "*", and the empty string) matches every version.
type Requirement struct {
	clauses []Comparator
}

// ParseRequirement parses a comma-separated requirement expression.
// Malformed input returns an error wrapping ErrInvalidRequirement.
func ParseRequirement(s string) (Requirement, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || trimmed == "*" {
		return Requirement{}, nil
	}

	var req Requirement
	for _, raw := range strings.Split(trimmed, ",") {
		clause := strings.TrimSpace(raw)
		if clause == "" {
			return Requirement{}, fmt.Errorf("%w: empty clause in %q", ErrInvalidRequirement, s)
		}
		c, err := parseComparator(clause)
		if err != nil {
			return Requirement{}, fmt.Errorf("%w: %q", ErrInvalidRequirement, s)
		}
		req.clauses = append(req.clauses, c)
	}
	return req, nil
}

// MustParseRequirement parses s and panics on failure.
func MustParseRequirement(s string) Requirement {
	r, err := ParseRequirement(s)
	if err != nil {
		panic(err)
	}
	return r
}

func parseComparator(clause string) (Comparator, error) {
	op := opCaret
	rest := clause
	switch {
	case strings.HasPrefix(clause, "^"):
		op, rest = opCaret, clause[1:]
	case strings.HasPrefix(clause, "~"):
		op, rest = opTilde, clause[1:]
	case strings.HasPrefix(clause, ">="):
		op, rest = opGreaterEq, clause[2:]
	case strings.HasPrefix(clause, "<="):
		op, rest = opLessEq, clause[2:]
	case strings.HasPrefix(clause, ">"):
		op, rest = opGreater, clause[1:]
	case strings.HasPrefix(clause, "<"):
		op, rest = opLess, clause[1:]
	case strings.HasPrefix(clause, "="):
		op, rest = opExact, clause[1:]
	default:
		// A bare version is caret, matching cargo's grammar.
	}
	rest = strings.TrimSpace(rest)

	if isWildcardClause(rest) {
		// Wildcards take no operator prefix.
		if rest != clause {
			return Comparator{}, ErrInvalidRequirement
		}
		return parseWildcard(rest)
	}

	p, err := parsePartial(rest)
	if err != nil {
		return Comparator{}, err
	}
	return Comparator{op: op, v: p}, nil
}

func isWildcardClause(s string) bool {
	return s == "*" ||
		strings.HasSuffix(s, ".*") ||
		strings.HasSuffix(s, ".x") ||
		strings.HasSuffix(s, ".X")
}

// parseWildcard handles "*", "1.*", and "1.2.*" ("x"/"X" accepted for "*").
func parseWildcard(s string) (Comparator, error) {
	if s == "*" {
		return Comparator{op: opWildcard}, nil
	}

	p, err := parsePartial(s[:len(s)-2])
	if err != nil || len(p.pre) > 0 || p.hasPatch {
		return Comparator{}, ErrInvalidRequirement
	}

	v := partial{major: p.major, hasMinor: true}
	if p.hasMinor {
		// "1.2.*": the wildcard sits at patch granularity.
		v.minor, v.hasPatch = p.minor, true
	}
	return Comparator{op: opWildcard, v: v}, nil
}

func parsePartial(s string) (partial, error) {
	core := s
	pre := ""
	if i := strings.IndexByte(s, '-'); i >= 0 {
		core, pre = s[:i], s[i+1:]
	}

	parts := strings.Split(core, ".")
	if len(parts) == 0 || len(parts) > 3 {
		return partial{}, ErrInvalidRequirement
	}

	var p partial
	for i, part := range parts {
		if !isAllDigits(part) || (len(part) > 1 && part[0] == '0') {
			return partial{}, ErrInvalidRequirement
		}
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return partial{}, ErrInvalidRequirement
		}
		switch i {
		case 0:
			p.major = n
		case 1:
			p.minor, p.hasMinor = n, true
		case 2:
			p.patch, p.hasPatch = n, true
		}
	}

	if pre != "" {
		if !p.hasPatch {
			return partial{}, ErrInvalidRequirement
		}
		for _, raw := range strings.Split(pre, ".") {
			id, err := parsePreID(raw)
			if err != nil {
				return partial{}, ErrInvalidRequirement
			}
			p.pre = append(p.pre, id)
		}
	}
	return p, nil
}

// Matches reports whether v satisfies every clause of the requirement.
//
// Prerelease versions additionally require one clause to name a prerelease
// on the same core triple, so "^1.2.3" never drags in "2.0.0-alpha". The
// empty requirement matches everything, prereleases included.
func (r Requirement) Matches(v Version) bool {
	if len(r.clauses) == 0 {
		return true
	}
	for _, c := range r.clauses {
		if !c.matches(v) {
			return false
		}
	}
	if !v.Prerelease() {
		return true
	}
	for _, c := range r.clauses {
		if c.preCompatible(v) {
			return true
		}
	}
	return false
}

// String renders the requirement back to source syntax.
func (r Requirement) String() string {
	if len(r.clauses) == 0 {
		return "*"
	}
	parts := make([]string, len(r.clauses))
	for i, c := range r.clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// Satisfies parses both arguments and reports whether version meets
// requirement. Parse failures surface as errors, never as "compatible".
func Satisfies(version, requirement string) (bool, error) {
	v, err := Parse(version)
	if err != nil {
		return false, err
	}
	r, err := ParseRequirement(requirement)
	if err != nil {
		return false, err
	}
	return r.Matches(v), nil
}
