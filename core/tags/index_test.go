package tags_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/weft/core/tags"
)

func TestIndexInsertLookup(t *testing.T) {
	ix := tags.NewIndex()
	ix.Insert("alpha", []string{"core", "util"})
	ix.Insert("beta", []string{"core"})

	assert.Equal(t, []string{"alpha", "beta"}, ix.Lookup("core").Sorted())
	assert.Equal(t, []string{"alpha"}, ix.Lookup("util").Sorted())
	assert.Equal(t, 2, ix.Count("core"))
}

func TestIndexUnknownTag(t *testing.T) {
	ix := tags.NewIndex()
	ix.Insert("alpha", []string{"core"})

	set := ix.Lookup("missing")
	require.NotNil(t, set)
	assert.Empty(t, set)
	assert.Zero(t, ix.Count("missing"))
}

func TestIndexLookupReturnsCopy(t *testing.T) {
	ix := tags.NewIndex()
	ix.Insert("alpha", []string{"core"})

	set := ix.Lookup("core")
	delete(set, "alpha")

	assert.True(t, ix.Lookup("core").Has("alpha"))
}

func TestIndexRemovePrunesEmptyTags(t *testing.T) {
	ix := tags.NewIndex()
	ix.Insert("alpha", []string{"core", "util"})
	ix.Insert("beta", []string{"core"})

	ix.Remove("alpha", []string{"core", "util"})

	assert.Equal(t, []string{"beta"}, ix.Lookup("core").Sorted())
	assert.Empty(t, ix.Lookup("util"))
	assert.Equal(t, []string{"core"}, ix.Tags())
}

func TestIndexRemoveUnknownIsNoop(t *testing.T) {
	ix := tags.NewIndex()
	ix.Insert("alpha", []string{"core"})

	ix.Remove("ghost", []string{"core", "missing"})

	assert.Equal(t, []string{"alpha"}, ix.Lookup("core").Sorted())
}

func TestIndexTagsSorted(t *testing.T) {
	ix := tags.NewIndex()
	ix.Insert("alpha", []string{"zeta", "core", "mid"})

	assert.Equal(t, []string{"core", "mid", "zeta"}, ix.Tags())
}

func TestIndexClear(t *testing.T) {
	ix := tags.NewIndex()
	ix.Insert("alpha", []string{"core"})
	ix.Clear()

	assert.Empty(t, ix.Tags())
	assert.Empty(t, ix.Lookup("core"))
}

func TestSetOperations(t *testing.T) {
	s := tags.NewSet("b", "a", "c")

	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("z"))
	assert.Equal(t, []string{"a", "b", "c"}, s.Sorted())

	clone := s.Clone()
	delete(clone, "a")
	assert.True(t, s.Has("a"))
}
