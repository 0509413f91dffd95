package semver

import (
	"errors"
	"fmt"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrUnknownSkill indicates a skill id the checker has no version for.
	ErrUnknownSkill = errors.New("unknown skill")
)

// IncompatibleError reports a version that fails a requirement. It is a
// distinct class from parse and unknown-skill errors so callers can message
// "X needs version Z" separately from "X isn't installed".
type IncompatibleError struct {
	Version     string
	Requirement string
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("version %s does not satisfy requirement %s", e.Version, e.Requirement)
}

// =============================================================================
// Checker
// =============================================================================

// Checker tracks the installed version of each skill and answers
// compatibility questions against them.
type Checker struct {
	available map[string]Version
}

// NewChecker creates an empty checker.
func NewChecker() *Checker {
	return &Checker{available: make(map[string]Version)}
}

// AddVersion records the installed version for a skill. The version string
// is parse-validated; malformed input is rejected, not stored.
func (c *Checker) AddVersion(skillID, version string) error {
	v, err := Parse(version)
	if err != nil {
		return err
	}
	c.available[skillID] = v
	return nil
}

// Version returns the recorded version for a skill.
func (c *Checker) Version(skillID string) (Version, bool) {
	v, ok := c.available[skillID]
	return v, ok
}

// Len returns the number of recorded skills.
func (c *Checker) Len() int {
	return len(c.available)
}

// Check reports whether the recorded version of skillID meets requirement.
// Unknown skills and malformed requirements are errors; an unmet
// requirement returns an IncompatibleError.
func (c *Checker) Check(skillID, requirement string) error {
	v, ok := c.available[skillID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSkill, skillID)
	}
	req, err := ParseRequirement(requirement)
	if err != nil {
		return err
	}
	if !req.Matches(v) {
		return &IncompatibleError{Version: v.String(), Requirement: requirement}
	}
	return nil
}

// FindCompatible returns the recorded version of skillID if it satisfies
// requirement.
func (c *Checker) FindCompatible(skillID, requirement string) (Version, bool) {
	v, ok := c.available[skillID]
	if !ok {
		return Version{}, false
	}
	req, err := ParseRequirement(requirement)
	if err != nil {
		return Version{}, false
	}
	if !req.Matches(v) {
		return Version{}, false
	}
	return v, true
}

// UpdateAvailable reports whether the recorded version of skillID is newer
// than current.
func (c *Checker) UpdateAvailable(skillID, current string) (bool, error) {
	cur, err := Parse(current)
	if err != nil {
		return false, err
	}
	v, ok := c.available[skillID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownSkill, skillID)
	}
	return cur.Less(v), nil
}

// CheckDependencies validates a dependency list of (skill id, requirement)
// pairs against the recorded versions, returning the first failure. An
// empty requirement string only requires presence.
func (c *Checker) CheckDependencies(deps []Dep) error {
	for _, dep := range deps {
		v, ok := c.available[dep.SkillID]
		if !ok {
			return fmt.Errorf("%w: dependency %s", ErrUnknownSkill, dep.SkillID)
		}
		if dep.Requirement == "" {
			continue
		}
		req, err := ParseRequirement(dep.Requirement)
		if err != nil {
			return err
		}
		if !req.Matches(v) {
			return fmt.Errorf("dependency %s: %w", dep.SkillID,
				&IncompatibleError{Version: v.String(), Requirement: dep.Requirement})
		}
	}
	return nil
}

// Dep is a dependency edge as the checker sees it: a target skill and an
// optional requirement expression.
type Dep struct {
	SkillID     string
	Requirement string
}
