package collection_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/weft/core/collection"
	"github.com/adalundhe/weft/core/manifest"
	"github.com/adalundhe/weft/core/semver"
	"github.com/adalundhe/weft/core/tags"
)

func record(id, version string, tagList []string, deps ...manifest.Dependency) *manifest.SkillRecord {
	return &manifest.SkillRecord{
		ID:           id,
		Name:         id,
		Description:  "skill " + id,
		Version:      semver.MustParse(version),
		Tags:         tagList,
		Dependencies: deps,
	}
}

func ids(records []*manifest.SkillRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestAddAndGet(t *testing.T) {
	c := collection.New()

	require.NoError(t, c.Add(record("parser", "1.0.0", []string{"core"})))

	got, ok := c.GetByID("parser")
	require.True(t, ok)
	assert.Equal(t, "parser", got.ID)
	assert.Equal(t, 1, c.Size())

	_, ok = c.GetByID("missing")
	assert.False(t, ok)
}

func TestAddRejectsInvalidRecord(t *testing.T) {
	c := collection.New()

	err := c.Add(&manifest.SkillRecord{ID: "bad", Name: "Bad Name", Description: "x"})
	assert.ErrorIs(t, err, manifest.ErrInvalidName)
	assert.Zero(t, c.Size())
}

func TestAddIsolatesCallerRecord(t *testing.T) {
	c := collection.New()
	original := record("parser", "1.0.0", []string{"core"})
	require.NoError(t, c.Add(original))

	original.Tags[0] = "mutated"

	got, _ := c.GetByID("parser")
	assert.Equal(t, []string{"core"}, got.Tags)
	assert.True(t, c.Query(tags.Has("core"))[0].HasTag("core"))
}

func TestAddReplaceRetags(t *testing.T) {
	c := collection.New()
	require.NoError(t, c.Add(record("parser", "1.0.0", []string{"core", "old"})))
	require.NoError(t, c.Add(record("parser", "2.0.0", []string{"core", "new"})))

	assert.Equal(t, 1, c.Size())
	got, _ := c.GetByID("parser")
	assert.Equal(t, "2.0.0", got.Version.String())

	assert.Empty(t, c.Query(tags.Has("old")))
	assert.Equal(t, []string{"parser"}, ids(c.Query(tags.Has("new"))))
}

func TestRemove(t *testing.T) {
	c := collection.New()
	require.NoError(t, c.Add(record("parser", "1.0.0", []string{"core"})))

	assert.True(t, c.Remove("parser"))
	assert.False(t, c.Remove("parser"))
	assert.Zero(t, c.Size())
	assert.Empty(t, c.Query(tags.Has("core")))
}

func TestQueryScenario(t *testing.T) {
	c := collection.New()
	require.NoError(t, c.Add(record("skill-a", "1.0.0", []string{"core"})))
	require.NoError(t, c.Add(record("skill-b", "1.0.0", []string{"core", "util"},
		manifest.Dependency{SkillID: "skill-a"})))
	require.NoError(t, c.Add(record("skill-c", "1.0.0", []string{"app"},
		manifest.Dependency{SkillID: "skill-a"},
		manifest.Dependency{SkillID: "skill-b"})))

	assert.Equal(t, []string{"skill-a", "skill-b"}, ids(c.Query(tags.Has("core"))))
	assert.Equal(t, []string{"skill-b"}, ids(c.Query(tags.And(tags.Has("core"), tags.Has("util")))))
	assert.Equal(t, []string{"skill-c"}, ids(c.Query(tags.NotHas("core"))))

	result := c.BuildResolver().Resolve(c.Graph())
	require.True(t, result.Resolved())
	assert.Equal(t, []string{"skill-a", "skill-b", "skill-c"}, result.LoadOrder)
}

func TestQueryOrderIndependentOfInsertion(t *testing.T) {
	c := collection.New()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, c.Add(record(id, "1.0.0", []string{"core"})))
	}

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, ids(c.Query(tags.Has("core"))))
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, c.IDs())
}

func TestQueryCacheHitsAndInvalidation(t *testing.T) {
	c := collection.New()
	require.NoError(t, c.Add(record("alpha", "1.0.0", []string{"core"})))

	filter := tags.Has("core")
	first := ids(c.Query(filter))
	second := ids(c.Query(filter))
	assert.Equal(t, first, second)

	stats := c.CacheStats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 1, stats.Entries)

	// A mutation purges the cache; the re-query is correct and a miss.
	require.NoError(t, c.Add(record("beta", "1.0.0", []string{"core"})))
	assert.Equal(t, []string{"alpha", "beta"}, ids(c.Query(filter)))
	assert.Equal(t, int64(2), c.CacheStats().Misses)
}

func TestQueryCacheRemoveInvalidates(t *testing.T) {
	c := collection.New()
	require.NoError(t, c.Add(record("alpha", "1.0.0", []string{"core"})))
	require.NoError(t, c.Add(record("beta", "1.0.0", []string{"core"})))

	filter := tags.Has("core")
	require.Equal(t, []string{"alpha", "beta"}, ids(c.Query(filter)))

	c.Remove("alpha")
	assert.Equal(t, []string{"beta"}, ids(c.Query(filter)))
}

// A tag containing the fingerprint delimiter must not alias another
// filter's cache entry: each query gets its own result, whichever runs
// first.
func TestQueryCacheDistinguishesDelimiterTags(t *testing.T) {
	c := collection.New()
	require.NoError(t, c.Add(record("only-a", "1.0.0", []string{"a"})))
	require.NoError(t, c.Add(record("only-ab", "1.0.0", []string{"a,b", "b"})))

	assert.Equal(t, []string{"only-ab"}, ids(c.Query(tags.AnyOf("a,b"))))
	assert.Equal(t, []string{"only-a", "only-ab"}, ids(c.Query(tags.AnyOf("a", "b"))))
	assert.Equal(t, []string{"only-ab"}, ids(c.Query(tags.AnyOf("a,b"))))

	stats := c.CacheStats()
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, int64(1), stats.Hits)
}

func TestQueryCacheEviction(t *testing.T) {
	c, err := collection.NewWithCacheSize(2)
	require.NoError(t, err)
	require.NoError(t, c.Add(record("alpha", "1.0.0", []string{"a", "b", "c"})))

	_ = c.Query(tags.Has("a"))
	_ = c.Query(tags.Has("b"))
	_ = c.Query(tags.Has("c"))

	stats := c.CacheStats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, int64(3), stats.Misses)

	// The oldest entry was evicted, so re-querying it misses again.
	_ = c.Query(tags.Has("a"))
	assert.Equal(t, int64(4), c.CacheStats().Misses)
}

func TestAddBatch(t *testing.T) {
	c := collection.New()

	err := c.AddBatch([]*manifest.SkillRecord{
		record("alpha", "1.0.0", []string{"core"}),
		record("beta", "1.0.0", []string{"util"}),
		record("gamma", "1.0.0", nil),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, c.Size())
	assert.Equal(t, []string{"alpha"}, ids(c.Query(tags.Has("core"))))
}

// AddBatch must leave the collection in the same state as equivalent
// sequential Add calls.
func TestAddBatchEquivalentToSequentialAdds(t *testing.T) {
	records := []*manifest.SkillRecord{
		record("alpha", "1.0.0", []string{"core", "util"}),
		record("beta", "1.0.0", []string{"core"}),
		record("alpha", "2.0.0", []string{"app"}), // later duplicate wins
	}

	sequential := collection.New()
	for _, r := range records {
		require.NoError(t, sequential.Add(r))
	}

	batched := collection.New()
	require.NoError(t, batched.AddBatch(records))

	assert.Equal(t, sequential.IDs(), batched.IDs())
	assert.Equal(t, sequential.Tags(), batched.Tags())
	for _, tag := range sequential.Tags() {
		assert.Equal(t, ids(sequential.GetByTag(tag)), ids(batched.GetByTag(tag)), "tag %q", tag)
	}
	got, _ := batched.GetByID("alpha")
	assert.Equal(t, "2.0.0", got.Version.String())
	assert.Equal(t, []string{"beta"}, ids(batched.Query(tags.Has("core"))))
}

func TestAddBatchSkipsInvalid(t *testing.T) {
	c := collection.New()

	err := c.AddBatch([]*manifest.SkillRecord{
		record("alpha", "1.0.0", []string{"core"}),
		{ID: "broken", Name: "Broken Name", Description: "x"},
		record("gamma", "1.0.0", []string{"core"}),
	})
	require.ErrorIs(t, err, manifest.ErrInvalidName)

	// Valid records still landed.
	assert.Equal(t, []string{"alpha", "gamma"}, c.IDs())
}

func TestGetByTag(t *testing.T) {
	c := collection.New()
	require.NoError(t, c.Add(record("beta", "1.0.0", []string{"core"})))
	require.NoError(t, c.Add(record("alpha", "1.0.0", []string{"core"})))

	assert.Equal(t, []string{"alpha", "beta"}, ids(c.GetByTag("core")))
	assert.Empty(t, c.GetByTag("missing"))
}

func TestRebuildIndexes(t *testing.T) {
	c := collection.New()
	require.NoError(t, c.Add(record("alpha", "1.0.0", []string{"core"})))

	// Out-of-band mutation desynchronizes the index until a rebuild.
	got, _ := c.GetByID("alpha")
	got.Tags = []string{"rewritten"}
	c.RebuildIndexes()

	assert.Empty(t, c.Query(tags.Has("core")))
	assert.Equal(t, []string{"alpha"}, ids(c.Query(tags.Has("rewritten"))))
}

func TestTags(t *testing.T) {
	c := collection.New()
	require.NoError(t, c.Add(record("alpha", "1.0.0", []string{"zeta", "core"})))

	assert.Equal(t, []string{"core", "zeta"}, c.Tags())
}

func TestGraphAndResolverBridge(t *testing.T) {
	c := collection.New()
	require.NoError(t, c.Add(record("dep", "1.5.0", nil)))
	require.NoError(t, c.Add(record("main", "1.0.0", nil,
		manifest.Dependency{SkillID: "dep", Requirement: "^1.0.0"})))

	r := c.BuildResolver()
	result, err := r.ResolveChecked(c.Graph())
	require.NoError(t, err)
	assert.Equal(t, []string{"dep", "main"}, result.LoadOrder)
}

func TestConcurrentQueriesAndMutations(t *testing.T) {
	c := collection.New()
	for i := 0; i < 8; i++ {
		require.NoError(t, c.Add(record(fmt.Sprintf("skill-%d", i), "1.0.0", []string{"core"})))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = c.Add(record(fmt.Sprintf("extra-%d", i%4), "1.0.0", []string{"core"}))
		}
	}()
	for i := 0; i < 100; i++ {
		for _, r := range c.Query(tags.Has("core")) {
			assert.True(t, r.HasTag("core"))
		}
	}
	<-done
}
