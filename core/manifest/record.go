// Package manifest defines the skill record consumed by the engine and the
// parsers that construct it from package files: JSON skill packages and
// SKILL.md files with YAML frontmatter. Version and requirement strings
// are validated through core/semver at this boundary; malformed input is
// rejected, never coerced.
package manifest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/adalundhe/weft/core/semver"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrMissingID     = errors.New("missing required field: id")
	ErrMissingName   = errors.New("missing required field: name")
	ErrMissingDesc   = errors.New("missing required field: description")
	ErrInvalidName   = errors.New("invalid skill name")
	ErrNameTooLong   = errors.New("name exceeds 64 characters")
	ErrDescTooLong   = errors.New("description exceeds 1024 characters")
	ErrNameMismatch  = errors.New("skill name must match directory name")
	ErrSkillNotFound = errors.New("SKILL.md not found")
	ErrParseFailed   = errors.New("failed to parse manifest")
	ErrBadDependency = errors.New("malformed dependency")
)

const (
	maxNameLength = 64
	maxDescLength = 1024
)

var namePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// =============================================================================
// SkillRecord
// =============================================================================

// Dependency declares a required skill, optionally constrained to a
// version range. The source syntax is "id" or "id@requirement".
type Dependency struct {
	SkillID     string
	Requirement string
}

// ParseDependency splits "id" or "id@requirement" and validates the
// requirement expression if present.
func ParseDependency(s string) (Dependency, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Dependency{}, fmt.Errorf("%w: empty", ErrBadDependency)
	}

	id, reqStr, has := strings.Cut(s, "@")
	id = strings.TrimSpace(id)
	if id == "" {
		return Dependency{}, fmt.Errorf("%w: %q", ErrBadDependency, s)
	}
	if !has {
		return Dependency{SkillID: id}, nil
	}

	reqStr = strings.TrimSpace(reqStr)
	if _, err := semver.ParseRequirement(reqStr); err != nil {
		return Dependency{}, fmt.Errorf("%w: %q: %v", ErrBadDependency, s, err)
	}
	return Dependency{SkillID: id, Requirement: reqStr}, nil
}

// String renders the dependency back to source syntax.
func (d Dependency) String() string {
	if d.Requirement == "" {
		return d.SkillID
	}
	return d.SkillID + "@" + d.Requirement
}

// SkillRecord is the declarative view of one skill package as the engine
// consumes it. Records are immutable once registered; an update is modeled
// as remove plus re-add so the indices stay consistent.
type SkillRecord struct {
	ID           string
	Name         string
	Description  string
	Author       string
	Version      semver.Version
	Tags         []string
	Dependencies []Dependency
}

// HasTag reports whether the record carries tag.
func (r *SkillRecord) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the record.
func (r *SkillRecord) Clone() *SkillRecord {
	out := *r
	out.Tags = append([]string(nil), r.Tags...)
	out.Dependencies = append([]Dependency(nil), r.Dependencies...)
	return &out
}

// Validate checks the record against the metadata rules: id, name, and
// description present; name lowercase hyphenated and within length caps.
func (r *SkillRecord) Validate() error {
	if r.ID == "" {
		return ErrMissingID
	}
	if r.Name == "" {
		return ErrMissingName
	}
	if len(r.Name) > maxNameLength {
		return ErrNameTooLong
	}
	if !namePattern.MatchString(r.Name) {
		return ErrInvalidName
	}
	if r.Description == "" {
		return ErrMissingDesc
	}
	if len(r.Description) > maxDescLength {
		return ErrDescTooLong
	}
	return nil
}
