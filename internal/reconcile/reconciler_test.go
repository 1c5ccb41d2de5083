package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfhs-dash/internal/dataset"
	"github.com/nfhs-dash/internal/geo"
	"github.com/nfhs-dash/internal/match"
	"github.com/nfhs-dash/internal/overrides"
)

type constScorer float64

func (constScorer) Name() string                     { return "const" }
func (c constScorer) Similarity(_, _ string) float64 { return float64(c) }

func testRegistry() *geo.Registry {
	return geo.NewRegistry([]geo.Feature{
		geo.NewFeature("1", "Daman, Daman and Diu"),
		geo.NewFeature("2", "Diu, Daman and Diu"),
		geo.NewFeature("3", "Kollam, Kerala"),
		geo.NewFeature("4", "Idukki, Kerala"),
	})
}

var testPairs = []Pair{
	{"D & D", "Daman"},
	{"D & D", "Diu"},
	{"Kerala ", "kollam"},
	{"Kerala ", "Nowhere"},
}

func TestReconcileWithoutOverrides(t *testing.T) {
	res := New(nil, nil, nil).Reconcile(testRegistry(), testPairs)

	require.Len(t, res.Regions, 2)
	dd, ok := res.Region("D & D")
	require.True(t, ok)
	assert.Equal(t, MethodUnmatched, dd.Method)
	assert.False(t, dd.Resolved())

	sub, ok := res.Lookup("D & D", "Daman")
	require.True(t, ok)
	assert.Equal(t, "N/A,N/A", sub.Key)
	_, keyed := sub.GeoKey()
	assert.False(t, keyed)

	kl, ok := res.Lookup("Kerala ", "kollam")
	require.True(t, ok)
	key, keyed := kl.GeoKey()
	assert.True(t, keyed)
	assert.Equal(t, "Kollam, Kerala", key)
	assert.Equal(t, MethodFuzzy, kl.Method)

	_, found := testRegistry().Lookup(key)
	assert.True(t, found, "join key must name a registry feature")

	// one unmatched region plus its two sub-regions, plus Nowhere
	assert.Equal(t, 4, res.Report.Count(KindUnmatched))
}

func TestReconcileDamanAndDiuOverride(t *testing.T) {
	res := New(nil, overrides.Default(), nil).Reconcile(testRegistry(), testPairs)

	dd, _ := res.Region("D & D")
	assert.Equal(t, MethodOverride, dd.Method)
	assert.Equal(t, " Daman and Diu", dd.Canonical)

	for _, sub := range []string{"Daman", "Diu"} {
		m, ok := res.Lookup("D & D", sub)
		require.True(t, ok)
		key, keyed := m.GeoKey()
		require.True(t, keyed, sub)
		assert.Equal(t, sub+", Daman and Diu", key)
		assert.Equal(t, MethodFuzzy, m.Method)
	}

	assert.Equal(t, 1, res.Report.Count(KindUnmatched))
}

func TestReconcileUnmatchedRetained(t *testing.T) {
	res := New(nil, overrides.Default(), nil).Reconcile(testRegistry(), testPairs)

	m, ok := res.Lookup("Kerala ", "Nowhere")
	require.True(t, ok, "unmatched pairs keep their row")
	assert.Equal(t, MethodUnmatched, m.Method)
	assert.Equal(t, "N/A, Kerala", m.Key)
	_, keyed := m.GeoKey()
	assert.False(t, keyed)

	unmatched := res.Report.Of(KindUnmatched)
	require.Len(t, unmatched, 1)
	assert.Equal(t, LevelSubRegion, unmatched[0].Level)
	assert.Equal(t, "Nowhere", unmatched[0].SubRegion)
	assert.Contains(t, unmatched[0].String(), "Nowhere")
}

func TestOverrideWinsOverFuzzy(t *testing.T) {
	table := &overrides.Table{
		SubRegions: []overrides.SubRegionOverride{
			{Region: "Kerala", SubRegion: "Kollam", Target: "idukki"},
		},
	}
	res := New(nil, table, nil).Reconcile(testRegistry(), testPairs)

	m, _ := res.Lookup("Kerala ", "kollam")
	assert.Equal(t, MethodOverride, m.Method)
	assert.Equal(t, "Idukki", m.CanonicalSubRegion)
	assert.Equal(t, "Idukki, Kerala", m.Key)
}

func TestOverrideUnknownTarget(t *testing.T) {
	table := &overrides.Table{Regions: map[string]string{"Kerala": "Atlantis"}}
	res := New(nil, table, nil).Reconcile(testRegistry(), testPairs)

	rm, _ := res.Region("Kerala ")
	assert.Equal(t, "Atlantis", rm.Canonical)
	assert.Equal(t, MethodOverride, rm.Method)

	unknown := res.Report.Of(KindUnknownTarget)
	require.Len(t, unknown, 1)
	assert.Equal(t, "Atlantis", unknown[0].Chosen)

	m, _ := res.Lookup("Kerala ", "kollam")
	_, keyed := m.GeoKey()
	assert.False(t, keyed)
}

func TestAmbiguousReported(t *testing.T) {
	m := match.NewMatcher(constScorer(0.9), 0.5)
	res := New(m, nil, nil).Reconcile(testRegistry(), []Pair{{"Somewhere", "Place"}})

	rm, _ := res.Region("Somewhere")
	assert.True(t, rm.Ambiguous)
	assert.Equal(t, " Daman and Diu", rm.Canonical)
	assert.Equal(t, []string{" Kerala"}, rm.Tied)

	sub, _ := res.Lookup("Somewhere", "Place")
	assert.Equal(t, "Daman", sub.CanonicalSubRegion)
	assert.True(t, sub.Ambiguous)

	assert.Equal(t, 2, res.Report.Count(KindAmbiguous))
}

func TestReconcileIdempotent(t *testing.T) {
	r := New(nil, overrides.Default(), nil)
	first := r.Reconcile(testRegistry(), testPairs)
	second := r.Reconcile(testRegistry(), testPairs)
	assert.Equal(t, first, second)

	for _, m := range first.SubRegions {
		again, ok := second.Lookup(m.Region, m.SubRegion)
		require.True(t, ok)
		assert.Equal(t, m.Key, again.Key)
	}
}

func TestPairsFrom(t *testing.T) {
	tbl := dataset.FromStrings("districts", []string{"State", "District name", "v"}, [][]string{
		{"Kerala", "Kollam", "1"},
		{"Kerala", "Kollam", "2"},
		{"Kerala", "Idukki", "3"},
		{"D & D", "Diu", "4"},
	})

	pairs, err := PairsFrom(tbl, "State", "District name")
	require.NoError(t, err)
	assert.Equal(t, []Pair{{"Kerala", "Kollam"}, {"Kerala", "Idukki"}, {"D & D", "Diu"}}, pairs)

	_, err = PairsFrom(tbl, "State", "District")
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	res := New(nil, overrides.Default(), nil).Reconcile(testRegistry(), testPairs)
	s := res.Stats()
	assert.Equal(t, 1, s.Regions[MethodOverride])
	assert.Equal(t, 1, s.Regions[MethodFuzzy])
	assert.Equal(t, 3, s.Keyed)
	assert.Equal(t, 1, s.SubRegions[MethodUnmatched])
}
