package tags

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// Filter
// =============================================================================

// Filter is a boolean expression over tags, evaluated against an Index
// with set algebra. Complements (NotHas, NoneOf) are taken within a
// universe of all known ids, supplied by the caller.
type Filter interface {
	// Eval computes the matching id set.
	Eval(ix *Index, universe Set) Set

	// canon renders a canonical form of the expression structure, stable
	// across equivalent constructions, for cache fingerprinting.
	canon(b *strings.Builder)
}

// Fingerprint hashes the filter's canonical form. Structurally identical
// filters always produce the same fingerprint, so it is usable as a cache
// key.
func Fingerprint(f Filter) string {
	var b strings.Builder
	f.canon(&b)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// =============================================================================
// Leaves
// =============================================================================

type hasFilter struct{ tag string }

// Has matches ids carrying tag.
func Has(tag string) Filter { return hasFilter{tag: tag} }

func (f hasFilter) Eval(ix *Index, _ Set) Set {
	return ix.Lookup(f.tag)
}

func (f hasFilter) canon(b *strings.Builder) {
	b.WriteString("has(")
	b.WriteString(strconv.Quote(f.tag))
	b.WriteByte(')')
}

type notHasFilter struct{ tag string }

// NotHas matches ids not carrying tag.
func NotHas(tag string) Filter { return notHasFilter{tag: tag} }

func (f notHasFilter) Eval(ix *Index, universe Set) Set {
	return universe.subtract(ix.lookupRef(f.tag))
}

func (f notHasFilter) canon(b *strings.Builder) {
	b.WriteString("not_has(")
	b.WriteString(strconv.Quote(f.tag))
	b.WriteByte(')')
}

type anyOfFilter struct{ tags []string }

// AnyOf matches ids carrying at least one of the tags.
func AnyOf(tagList ...string) Filter {
	return anyOfFilter{tags: sortedCopy(tagList)}
}

func (f anyOfFilter) Eval(ix *Index, _ Set) Set {
	out := make(Set)
	for _, tag := range f.tags {
		out = out.union(ix.lookupRef(tag))
	}
	return out
}

func (f anyOfFilter) canon(b *strings.Builder) {
	writeList(b, "any_of", f.tags)
}

type allOfFilter struct{ tags []string }

// AllOf matches ids carrying every one of the tags. An empty tag list
// matches the whole universe.
func AllOf(tagList ...string) Filter {
	return allOfFilter{tags: sortedCopy(tagList)}
}

func (f allOfFilter) Eval(ix *Index, universe Set) Set {
	if len(f.tags) == 0 {
		return universe.Clone()
	}
	out := ix.Lookup(f.tags[0])
	for _, tag := range f.tags[1:] {
		if len(out) == 0 {
			return out
		}
		out = out.intersect(ix.lookupRef(tag))
	}
	return out
}

func (f allOfFilter) canon(b *strings.Builder) {
	writeList(b, "all_of", f.tags)
}

type noneOfFilter struct{ tags []string }

// NoneOf matches ids carrying none of the tags.
func NoneOf(tagList ...string) Filter {
	return noneOfFilter{tags: sortedCopy(tagList)}
}

func (f noneOfFilter) Eval(ix *Index, universe Set) Set {
	out := universe.Clone()
	for _, tag := range f.tags {
		out = out.subtract(ix.lookupRef(tag))
	}
	return out
}

func (f noneOfFilter) canon(b *strings.Builder) {
	writeList(b, "none_of", f.tags)
}

// =============================================================================
// Composites
// =============================================================================

type andFilter struct{ left, right Filter }

// And matches the intersection of two filters.
func And(left, right Filter) Filter { return andFilter{left: left, right: right} }

func (f andFilter) Eval(ix *Index, universe Set) Set {
	return f.left.Eval(ix, universe).intersect(f.right.Eval(ix, universe))
}

func (f andFilter) canon(b *strings.Builder) {
	writeComposite(b, "and", f.left, f.right)
}

type orFilter struct{ left, right Filter }

// Or matches the union of two filters.
func Or(left, right Filter) Filter { return orFilter{left: left, right: right} }

func (f orFilter) Eval(ix *Index, universe Set) Set {
	return f.left.Eval(ix, universe).union(f.right.Eval(ix, universe))
}

func (f orFilter) canon(b *strings.Builder) {
	writeComposite(b, "or", f.left, f.right)
}

// =============================================================================
// Canonicalization helpers
// =============================================================================

func sortedCopy(tagList []string) []string {
	out := make([]string, len(tagList))
	copy(out, tagList)
	sort.Strings(out)
	return out
}

// writeList quotes each tag so the serialization stays injective: tags
// are unconstrained strings, and a raw "," or ")" inside one must not
// read as a delimiter.
func writeList(b *strings.Builder, name string, tagList []string) {
	b.WriteString(name)
	b.WriteByte('(')
	for i, tag := range tagList {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(tag))
	}
	b.WriteByte(')')
}

// writeComposite orders the operands by canonical form; and/or are
// commutative, so And(a,b) and And(b,a) fingerprint identically.
func writeComposite(b *strings.Builder, name string, left, right Filter) {
	var lb, rb strings.Builder
	left.canon(&lb)
	right.canon(&rb)
	l, r := lb.String(), rb.String()
	if r < l {
		l, r = r, l
	}
	b.WriteString(name)
	b.WriteByte('(')
	b.WriteString(l)
	b.WriteByte(',')
	b.WriteString(r)
	b.WriteByte(')')
}
