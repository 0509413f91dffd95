package semver_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/weft/core/semver"
)

func TestParseValid(t *testing.T) {
	tests := []struct {
		input               string
		major, minor, patch uint64
		pre                 int
	}{
		{"0.0.0", 0, 0, 0, 0},
		{"1.2.3", 1, 2, 3, 0},
		{"10.20.30", 10, 20, 30, 0},
		{"1.0.0-alpha", 1, 0, 0, 1},
		{"1.0.0-alpha.1", 1, 0, 0, 2},
		{"2.1.0-rc.1.x86", 2, 1, 0, 3},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			v, err := semver.Parse(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.major, v.Major)
			assert.Equal(t, tc.minor, v.Minor)
			assert.Equal(t, tc.patch, v.Patch)
			assert.Len(t, v.Pre, tc.pre)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	inputs := []string{
		"",
		"1",
		"1.2",
		"1.2.3.4",
		"a.b.c",
		"1.2.x",
		"01.2.3",
		"1.02.3",
		"1.2.03",
		"1.2.3-",
		"1.2.3-alpha..1",
		"1.2.3-alpha_beta",
		"1.2.3-01",
		"-1.2.3",
		"1.2.3 ",
		"v1.2.3",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := semver.Parse(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, semver.ErrInvalidVersion)
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	inputs := []string{
		"0.0.0",
		"1.2.3",
		"1.0.0-alpha",
		"1.0.0-alpha.1",
		"2.0.0-rc.1.x86.64g",
	}

	for _, input := range inputs {
		v, err := semver.Parse(input)
		require.NoError(t, err)
		assert.Equal(t, input, v.String())

		again, err := semver.Parse(v.String())
		require.NoError(t, err)
		assert.True(t, v.Equal(again))
	}
}

func TestCompareCore(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"2.0.0", "1.0.0", 1},
		{"1.0.0", "2.0.0", -1},
		{"1.1.0", "1.0.9", 1},
		{"1.0.1", "1.0.0", 1},
		{"0.9.9", "1.0.0", -1},
	}

	for _, tc := range tests {
		got, err := semver.Compare(tc.a, tc.b)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s vs %s", tc.a, tc.b)
	}
}

func TestComparePrerelease(t *testing.T) {
	// Ascending per the prerelease ordering rules; each entry is strictly
	// less than every later one.
	ladder := []string{
		"1.0.0-1",
		"1.0.0-2",
		"1.0.0-11",
		"1.0.0-alpha",
		"1.0.0-alpha.1",
		"1.0.0-alpha.beta",
		"1.0.0-beta",
		"1.0.0-beta.2",
		"1.0.0-beta.11",
		"1.0.0-rc.1",
		"1.0.0",
	}

	for i := 0; i < len(ladder); i++ {
		for j := i + 1; j < len(ladder); j++ {
			got, err := semver.Compare(ladder[i], ladder[j])
			require.NoError(t, err)
			assert.Equal(t, -1, got, "%s should be < %s", ladder[i], ladder[j])

			rev, err := semver.Compare(ladder[j], ladder[i])
			require.NoError(t, err)
			assert.Equal(t, 1, rev, "%s should be > %s", ladder[j], ladder[i])
		}
	}
}

// TestCompareTotalOrder checks antisymmetry and transitivity over randomly
// generated version triples.
func TestCompareTotalOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pres := []string{"", "-alpha", "-alpha.1", "-beta", "-1", "-rc.2"}

	random := func() semver.Version {
		raw := versionString(rng.Intn(3), rng.Intn(3), rng.Intn(3)) +
			pres[rng.Intn(len(pres))]
		return semver.MustParse(raw)
	}

	for i := 0; i < 500; i++ {
		a, b, c := random(), random(), random()

		// Antisymmetry.
		assert.Equal(t, -a.Compare(b), b.Compare(a))

		// Transitivity.
		if a.Compare(b) <= 0 && b.Compare(c) <= 0 {
			assert.LessOrEqual(t, a.Compare(c), 0,
				"%s <= %s <= %s but %s > %s", a, b, c, a, c)
		}

		// Consistency with Equal.
		assert.Equal(t, a.Compare(b) == 0, a.Equal(b))
	}
}

func versionString(major, minor, patch int) string {
	return semver.Version{
		Major: uint64(major), Minor: uint64(minor), Patch: uint64(patch),
	}.String()
}

func TestLatest(t *testing.T) {
	v, ok := semver.Latest([]string{"1.0.0", "2.0.0", "1.5.0"})
	require.True(t, ok)
	assert.Equal(t, "2.0.0", v.String())

	// Unparseable entries are skipped, not fatal.
	v, ok = semver.Latest([]string{"1.0.0", "not-a-version", "0.9.0"})
	require.True(t, ok)
	assert.Equal(t, "1.0.0", v.String())

	// Releases outrank prereleases of the same core version.
	v, ok = semver.Latest([]string{"2.0.0-rc.1", "2.0.0", "1.9.9"})
	require.True(t, ok)
	assert.Equal(t, "2.0.0", v.String())

	_, ok = semver.Latest(nil)
	assert.False(t, ok)

	_, ok = semver.Latest([]string{"nope"})
	assert.False(t, ok)
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { semver.MustParse("bogus") })
	assert.NotPanics(t, func() { semver.MustParse("1.0.0") })
}
