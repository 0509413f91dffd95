// Package tags provides the inverted tag index and the boolean filter
// algebra evaluated over it. Lookups are O(1) amortized and filters reduce
// to set algebra over per-tag id sets, so queries cost on the order of the
// smallest matching tag set rather than a full scan.
package tags

import "sort"

// =============================================================================
// Set
// =============================================================================

// Set is a set of skill ids.
type Set map[string]struct{}

// NewSet builds a set from ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s Set) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func (s Set) intersect(o Set) Set {
	small, large := s, o
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(Set)
	for id := range small {
		if large.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

func (s Set) union(o Set) Set {
	out := s.Clone()
	for id := range o {
		out[id] = struct{}{}
	}
	return out
}

// subtract returns s minus o.
func (s Set) subtract(o Set) Set {
	out := make(Set)
	for id := range s {
		if !o.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// =============================================================================
// Index
// =============================================================================

// Index is an inverted mapping from tag to the set of skill ids bearing
// that tag. An id appears under a tag iff the current record for that id
// carries the tag; maintenance is the collection's job.
type Index struct {
	byTag map[string]Set
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{byTag: make(map[string]Set)}
}

// Insert adds id under each tag, creating tag entries as needed.
func (ix *Index) Insert(id string, tagList []string) {
	for _, tag := range tagList {
		set, ok := ix.byTag[tag]
		if !ok {
			set = make(Set)
			ix.byTag[tag] = set
		}
		set[id] = struct{}{}
	}
}

// Remove drops id from each tag's set, pruning entries that empty out.
// Absent and empty are equivalent for lookups, so pruning only saves
// memory.
func (ix *Index) Remove(id string, tagList []string) {
	for _, tag := range tagList {
		set, ok := ix.byTag[tag]
		if !ok {
			continue
		}
		delete(set, id)
		if len(set) == 0 {
			delete(ix.byTag, tag)
		}
	}
}

// Lookup returns a copy of the id set for tag. Unknown tags yield an
// empty set, never an error.
func (ix *Index) Lookup(tag string) Set {
	set, ok := ix.byTag[tag]
	if !ok {
		return make(Set)
	}
	return set.Clone()
}

// Count returns the number of ids under tag.
func (ix *Index) Count(tag string) int {
	return len(ix.byTag[tag])
}

// Tags returns all known tags in ascending order.
func (ix *Index) Tags() []string {
	out := make([]string, 0, len(ix.byTag))
	for tag := range ix.byTag {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Clear drops every entry.
func (ix *Index) Clear() {
	ix.byTag = make(map[string]Set)
}

// lookupRef returns the live set for a tag without copying; evaluation
// never mutates it.
func (ix *Index) lookupRef(tag string) Set {
	return ix.byTag[tag]
}
