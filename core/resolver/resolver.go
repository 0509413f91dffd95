// Package resolver computes safe load orders for skill dependency graphs.
//
// Resolution is purely structural: it distinguishes missing dependencies
// from cycles and emits a deterministic topological order. Version-range
// checking is a separate, composable pass layered on core/semver.
package resolver

import (
	"errors"
	"fmt"
	"sort"

	"github.com/adalundhe/weft/core/semver"
)

// =============================================================================
// Graph
// =============================================================================

// Dependency is one edge of the graph: a required skill and an optional
// version requirement expression.
type Dependency struct {
	SkillID     string
	Requirement string
}

// Depend builds an edge without a version requirement.
func Depend(skillID string) Dependency {
	return Dependency{SkillID: skillID}
}

// DependOn builds an edge with a version requirement.
func DependOn(skillID, requirement string) Dependency {
	return Dependency{SkillID: skillID, Requirement: requirement}
}

// String renders the edge as "id" or "id@requirement".
func (d Dependency) String() string {
	if d.Requirement == "" {
		return d.SkillID
	}
	return d.SkillID + "@" + d.Requirement
}

// Graph maps each skill id to its ordered prerequisites. Graphs are built
// fresh per resolution call and never persisted.
type Graph map[string][]Dependency

// =============================================================================
// Result
// =============================================================================

// Status classifies a resolution outcome.
type Status int

const (
	// StatusResolved indicates a valid load order was produced.
	StatusResolved Status = iota
	// StatusCircular indicates a dependency cycle.
	StatusCircular
	// StatusMissing indicates edges pointing at unregistered skills.
	StatusMissing
)

func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusCircular:
		return "circular dependency"
	case StatusMissing:
		return "missing dependencies"
	}
	return "unknown"
}

// Result is the outcome of a structural resolution.
type Result struct {
	Status Status

	// LoadOrder lists every node with all prerequisites preceding their
	// dependents. Set only when Status is StatusResolved.
	LoadOrder []string

	// Cycle is one concrete cycle path: consecutive ids are dependency
	// edges and the last id depends on the first. Set for StatusCircular.
	Cycle []string

	// Missing lists edge targets absent from the registry, sorted.
	// Set for StatusMissing.
	Missing []string
}

// Resolved reports whether a load order was produced.
func (r Result) Resolved() bool {
	return r.Status == StatusResolved
}

// =============================================================================
// IncompatibleError
// =============================================================================

// IncompatibleError reports a dependency edge whose installed version does
// not meet the declared requirement. Distinct from the structural failure
// classes so callers can message the two differently.
type IncompatibleError struct {
	Skill       string
	Dependency  string
	Version     string
	Requirement string
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("%s requires %s@%s but %s is installed",
		e.Skill, e.Dependency, e.Requirement, e.Version)
}

// =============================================================================
// Resolver
// =============================================================================

// Resolver holds the registry of known skill ids and versions. The
// registry only distinguishes present from missing during resolution; it
// does not own full records.
type Resolver struct {
	available map[string]semver.Version
}

// New creates an empty resolver.
func New() *Resolver {
	return &Resolver{available: make(map[string]semver.Version)}
}

// AddSkill registers a known skill. The version string is parse-validated.
func (r *Resolver) AddSkill(skillID, version string) error {
	v, err := semver.Parse(version)
	if err != nil {
		return err
	}
	r.available[skillID] = v
	return nil
}

// RemoveSkill drops a skill from the registry.
func (r *Resolver) RemoveSkill(skillID string) {
	delete(r.available, skillID)
}

// Has reports whether a skill id is registered.
func (r *Resolver) Has(skillID string) bool {
	_, ok := r.available[skillID]
	return ok
}

// Resolve validates graph structure and computes a load order.
//
// Missing edge targets short-circuit before any sorting. Otherwise Kahn's
// algorithm runs with a sorted ready queue, so ties break lexicographically
// by id at every dequeue and the order is reproducible across runs. If the
// queue drains early a cycle exists; one concrete path is recovered by DFS
// and reported. An empty graph resolves to an empty order.
func (r *Resolver) Resolve(graph Graph) Result {
	if missing := r.findMissing(graph); len(missing) > 0 {
		return Result{Status: StatusMissing, Missing: missing}
	}

	nodes, remaining, dependents := buildTopoState(graph)

	queue := make([]string, 0, len(nodes))
	for id, deg := range remaining {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, dependent := range dependents[id] {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				queue = insertSorted(queue, dependent)
			}
		}
	}

	if len(order) != len(nodes) {
		return Result{Status: StatusCircular, Cycle: recoverCycle(graph, order, nodes)}
	}
	return Result{Status: StatusResolved, LoadOrder: order}
}

// findMissing collects edge targets absent from the registry, sorted and
// deduplicated.
func (r *Resolver) findMissing(graph Graph) []string {
	seen := make(map[string]struct{})
	for _, deps := range graph {
		for _, dep := range deps {
			if !r.Has(dep.SkillID) {
				seen[dep.SkillID] = struct{}{}
			}
		}
	}
	missing := make([]string, 0, len(seen))
	for id := range seen {
		missing = append(missing, id)
	}
	sort.Strings(missing)
	return missing
}

// buildTopoState collects the node set and, per node, the count of
// unresolved prerequisites plus the reverse edges used to release
// dependents as prerequisites are emitted.
func buildTopoState(graph Graph) (nodes map[string]struct{}, remaining map[string]int, dependents map[string][]string) {
	nodes = make(map[string]struct{}, len(graph))
	remaining = make(map[string]int, len(graph))
	dependents = make(map[string][]string)

	for id, deps := range graph {
		nodes[id] = struct{}{}
		remaining[id] = len(deps)
		for _, dep := range deps {
			nodes[dep.SkillID] = struct{}{}
			if _, ok := remaining[dep.SkillID]; !ok {
				remaining[dep.SkillID] = 0
			}
			dependents[dep.SkillID] = append(dependents[dep.SkillID], id)
		}
	}
	return nodes, remaining, dependents
}

// insertSorted keeps the ready queue lexicographically ordered.
func insertSorted(queue []string, id string) []string {
	i := sort.SearchStrings(queue, id)
	queue = append(queue, "")
	copy(queue[i+1:], queue[i:])
	queue[i] = id
	return queue
}

// recoverCycle walks dependency edges among the unemitted nodes until one
// repeats, returning the closed path. Every unemitted node keeps at least
// one unemitted prerequisite, so the walk cannot dead-end. The start is
// the smallest unemitted id, keeping the reported path deterministic.
func recoverCycle(graph Graph, order []string, nodes map[string]struct{}) []string {
	emitted := make(map[string]struct{}, len(order))
	for _, id := range order {
		emitted[id] = struct{}{}
	}

	var start string
	for id := range nodes {
		if _, done := emitted[id]; done {
			continue
		}
		if start == "" || id < start {
			start = id
		}
	}

	onPath := make(map[string]int)
	path := []string{}
	current := start
	for {
		if at, seen := onPath[current]; seen {
			return path[at:]
		}
		onPath[current] = len(path)
		path = append(path, current)

		next := ""
		for _, dep := range graph[current] {
			if _, done := emitted[dep.SkillID]; !done {
				next = dep.SkillID
				break
			}
		}
		current = next
	}
}

// CheckVersions runs the version-compatibility pass over every edge that
// declares a requirement. Failures for all unmet edges are joined into one
// error; errors.As recovers individual IncompatibleError values. Edges
// whose target is unregistered are the structural pass's concern and are
// skipped here, never reported as incompatible.
func (r *Resolver) CheckVersions(graph Graph) error {
	ids := make([]string, 0, len(graph))
	for id := range graph {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		for _, dep := range graph[id] {
			installed, ok := r.available[dep.SkillID]
			if !ok || dep.Requirement == "" {
				continue
			}
			req, err := semver.ParseRequirement(dep.Requirement)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s -> %s: %w", id, dep.SkillID, err))
				continue
			}
			if !req.Matches(installed) {
				errs = append(errs, &IncompatibleError{
					Skill:       id,
					Dependency:  dep.SkillID,
					Version:     installed.String(),
					Requirement: dep.Requirement,
				})
			}
		}
	}
	return errors.Join(errs...)
}

// ResolveChecked composes the structural and version passes for callers
// wanting a single call. Structural failures come back in the Result;
// version failures come back as an error alongside a resolved Result, so
// the two classes stay distinguishable.
func (r *Resolver) ResolveChecked(graph Graph) (Result, error) {
	result := r.Resolve(graph)
	if !result.Resolved() {
		return result, nil
	}
	return result, r.CheckVersions(graph)
}
