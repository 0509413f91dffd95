// Package collection provides the indexed skill collection: the primary
// record store, its inverted tag index, and a bounded LRU cache of filter
// query results. It is the aggregate the rest of the engine registers
// records into and queries against.
package collection

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/adalundhe/weft/core/manifest"
	"github.com/adalundhe/weft/core/resolver"
	"github.com/adalundhe/weft/core/tags"
)

// DefaultCacheSize is the default capacity of the query cache.
const DefaultCacheSize = 128

// CacheStats reports query cache behavior.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// Collection owns skill records, maintains the tag index incrementally,
// and caches filter query results. Structural mutations purge the whole
// cache: filter results may depend on any record, so coarse invalidation
// is the invariant, not an optimization shortcut.
//
// All methods are safe for concurrent use; mutations take the write lock,
// reads and queries share the read lock.
type Collection struct {
	mu      sync.RWMutex
	records map[string]*manifest.SkillRecord
	index   *tags.Index
	cache   *lru.Cache[string, []string]

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a collection with the default query cache capacity.
func New() *Collection {
	c, err := NewWithCacheSize(DefaultCacheSize)
	if err != nil {
		panic(err)
	}
	return c
}

// NewWithCacheSize creates a collection with a query cache bounded to
// size entries.
func NewWithCacheSize(size int) (*Collection, error) {
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("query cache: %w", err)
	}
	return &Collection{
		records: make(map[string]*manifest.SkillRecord),
		index:   tags.NewIndex(),
		cache:   cache,
	}, nil
}

// =============================================================================
// Mutation
// =============================================================================

// Add registers a record, replacing any existing record with the same id
// (remove plus re-add, so the tag index never holds stale tags). The
// whole query cache is invalidated.
func (c *Collection) Add(record *manifest.SkillRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.records[record.ID]; ok {
		c.index.Remove(old.ID, old.Tags)
	}
	stored := record.Clone()
	c.records[stored.ID] = stored
	c.index.Insert(stored.ID, stored.Tags)
	c.cache.Purge()
	return nil
}

// Remove drops a record by id, reporting whether it existed. The query
// cache is invalidated.
func (c *Collection) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	record, ok := c.records[id]
	if !ok {
		return false
	}
	c.index.Remove(record.ID, record.Tags)
	delete(c.records, id)
	c.cache.Purge()
	return true
}

// AddBatch registers many records at once: all insertions are staged
// first, then the tag index is updated in a single pass and the cache is
// invalidated once. Records that fail validation are reported and
// skipped; the rest still land.
func (c *Collection) AddBatch(records []*manifest.SkillRecord) error {
	staged := make([]*manifest.SkillRecord, 0, len(records))
	var firstErr error
	for _, record := range records {
		if err := record.Validate(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("skill %q: %w", record.ID, err)
			}
			continue
		}
		staged = append(staged, record.Clone())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, record := range staged {
		if old, ok := c.records[record.ID]; ok {
			c.index.Remove(old.ID, old.Tags)
		}
		c.records[record.ID] = record
	}
	for _, record := range staged {
		// A later duplicate in the batch wins; index only what is stored.
		if c.records[record.ID] == record {
			c.index.Insert(record.ID, record.Tags)
		}
	}
	c.cache.Purge()
	return firstErr
}

// RebuildIndexes discards the tag index and query cache and reconstructs
// the index from the primary store. For callers that mutated records out
// of band and cannot route through Add/Remove.
func (c *Collection) RebuildIndexes() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index.Clear()
	for _, record := range c.records {
		c.index.Insert(record.ID, record.Tags)
	}
	c.cache.Purge()
}

// =============================================================================
// Lookup
// =============================================================================

// GetByID returns the record for id.
func (c *Collection) GetByID(id string) (*manifest.SkillRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.records[id]
	return record, ok
}

// GetByTag returns all records carrying tag, ascending by id.
func (c *Collection) GetByTag(tag string) []*manifest.SkillRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolveIDs(c.index.Lookup(tag).Sorted())
}

// Size returns the number of records.
func (c *Collection) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// IDs returns every record id, ascending.
func (c *Collection) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortedIDs()
}

// Tags returns every indexed tag, ascending.
func (c *Collection) Tags() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.Tags()
}

// =============================================================================
// Query
// =============================================================================

// Query evaluates a tag filter and returns matching records ascending by
// id, independent of insertion order. Results are cached by the filter's
// canonical fingerprint; cached id lists are resolved against the live
// store on every hit.
func (c *Collection) Query(filter tags.Filter) []*manifest.SkillRecord {
	key := tags.Fingerprint(filter)

	c.mu.RLock()
	defer c.mu.RUnlock()

	if ids, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		return c.resolveIDs(ids)
	}
	c.misses.Add(1)

	universe := tags.NewSet(c.sortedIDs()...)
	ids := filter.Eval(c.index, universe).Sorted()
	c.cache.Add(key, ids)
	return c.resolveIDs(ids)
}

// CacheStats returns query cache counters.
func (c *Collection) CacheStats() CacheStats {
	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.cache.Len(),
	}
}

func (c *Collection) sortedIDs() []string {
	ids := make([]string, 0, len(c.records))
	for id := range c.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// resolveIDs maps cached or computed id lists back to records. Every
// structural mutation purges the cache, so a cached id with no record is
// an index maintenance bug, not bad input.
func (c *Collection) resolveIDs(ids []string) []*manifest.SkillRecord {
	out := make([]*manifest.SkillRecord, 0, len(ids))
	for _, id := range ids {
		record, ok := c.records[id]
		if !ok {
			panic(fmt.Sprintf("collection: cached query references unknown skill %q", id))
		}
		out = append(out, record)
	}
	return out
}

// =============================================================================
// Resolution bridge
// =============================================================================

// Graph builds the dependency graph over the current records.
func (c *Collection) Graph() resolver.Graph {
	c.mu.RLock()
	defer c.mu.RUnlock()

	graph := make(resolver.Graph, len(c.records))
	for id, record := range c.records {
		deps := make([]resolver.Dependency, 0, len(record.Dependencies))
		for _, dep := range record.Dependencies {
			deps = append(deps, resolver.Dependency{
				SkillID:     dep.SkillID,
				Requirement: dep.Requirement,
			})
		}
		graph[id] = deps
	}
	return graph
}

// BuildResolver returns a resolver seeded with every record's id and
// version.
func (c *Collection) BuildResolver() *resolver.Resolver {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r := resolver.New()
	for id, record := range c.records {
		// Versions were parse-validated at the manifest boundary.
		if err := r.AddSkill(id, record.Version.String()); err != nil {
			panic(fmt.Sprintf("collection: stored version for %q failed to parse: %v", id, err))
		}
	}
	return r
}
