package match

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constScorer gives every pair the same score, to exercise tie handling
type constScorer float64

func (constScorer) Name() string                     { return "const" }
func (c constScorer) Similarity(_, _ string) float64 { return float64(c) }

var geoStates = []string{
	" Andhra Pradesh",
	" Karnataka",
	" Kerala",
	" Daman and Diu",
	" Dadra and Nagar Haveli",
	" Jammu and Kashmir",
	" Nct of Delhi",
	" Tamil Nadu",
}

func TestRatioScorer(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"abcd", "bcde", 0.75},
		{"kerala", "kerala", 1.0},
		{"kerala", "kerla", 10.0 / 11.0},
		{"", "", 1.0},
		{"abc", "", 0.0},
		{"abc", "xyz", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			got := RatioScorer{}.Similarity(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestOtherScorers(t *testing.T) {
	lev := LevenshteinScorer{}
	assert.InDelta(t, 1.0, lev.Similarity("goa", "goa"), 1e-9)
	assert.InDelta(t, 1.0-1.0/6.0, lev.Similarity("kerala", "kerla"), 1e-9)
	assert.InDelta(t, 1.0, lev.Similarity("", ""), 1e-9)

	jw := JaroWinklerScorer{BoostThreshold: 0.7, PrefixSize: 4}
	assert.InDelta(t, 1.0, jw.Similarity("goa", "goa"), 1e-9)
	assert.InDelta(t, 0.0, jw.Similarity("goa", ""), 1e-9)
	s := jw.Similarity("kerala", "kerla")
	assert.True(t, s > 0.85 && s < 1.0, "jaro-winkler kerala/kerla = %v", s)
}

func TestScorerFor(t *testing.T) {
	for _, name := range []string{"", ScorerRatio, ScorerJaroWinkler, ScorerLevenshtein} {
		s, err := ScorerFor(name)
		require.NoError(t, err, name)
		require.NotNil(t, s)
	}

	_, err := ScorerFor("soundex")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	m, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 0.5, m.Cutoff())
	assert.Equal(t, ScorerRatio, m.ScorerName())

	_, err = New(Config{Scorer: ScorerRatio, Cutoff: 1.5})
	assert.Error(t, err)
}

func TestMatchExactCaseInsensitive(t *testing.T) {
	for _, scorer := range []Scorer{RatioScorer{}, JaroWinklerScorer{0.7, 4}, LevenshteinScorer{}} {
		m := NewMatcher(scorer, 0.5)
		for _, cand := range geoStates {
			t.Run(scorer.Name()+cand, func(t *testing.T) {
				// the raw data spells states without the boundary file's padding
				res := m.Match(" "+cand+" ", geoStates)
				require.True(t, res.Found)
				assert.Equal(t, cand, res.Candidate)
				assert.Equal(t, 1.0, res.Score)
				assert.False(t, res.Ambiguous)
			})
		}
	}
}

func TestMatchTypos(t *testing.T) {
	m := NewMatcher(RatioScorer{}, 0.5)

	tests := []struct {
		query string
		want  string
	}{
		{"Kerla", " Kerala"},
		{"Andhra pradesh", " Andhra Pradesh"},
		{"Jammu & Kashmir", " Jammu and Kashmir"},
		{"NCT Delhi", " Nct of Delhi"},
		{"Tamilnadu", " Tamil Nadu"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res := m.Match(tt.query, geoStates)
			require.True(t, res.Found, "score %.3f", res.Score)
			assert.Equal(t, tt.want, res.Candidate)
			assert.GreaterOrEqual(t, res.Score, 0.5)
		})
	}
}

func TestMatchBelowCutoff(t *testing.T) {
	m := NewMatcher(RatioScorer{}, 0.5)

	for _, q := range []string{"D & D", "D & DNH", "zzzz", "Lakshadweep"} {
		t.Run(q, func(t *testing.T) {
			res := m.Match(q, geoStates)
			assert.False(t, res.Found)
			assert.Empty(t, res.Candidate)
			assert.Less(t, res.Score, 0.5)
		})
	}
}

func TestMatchEmptyInputs(t *testing.T) {
	m := NewMatcher(nil, 0.5)

	assert.False(t, m.Match("", geoStates).Found)
	assert.False(t, m.Match("   ", geoStates).Found)
	assert.False(t, m.Match("Kerala", nil).Found)
	assert.False(t, m.Match("Kerala", []string{"", "  "}).Found)
}

func TestMatchTieBreakFirstSeen(t *testing.T) {
	m := NewMatcher(constScorer(0.8), 0.5)

	candidates := []string{"East", "North East", "South East"}
	for i := 0; i < 20; i++ {
		res := m.Match("Eest", candidates)
		require.True(t, res.Found)
		assert.Equal(t, "East", res.Candidate)
		assert.True(t, res.Ambiguous)
		assert.Equal(t, []string{"North East", "South East"}, res.Tied)
	}
}

func TestMatchDuplicateKeysNotTied(t *testing.T) {
	m := NewMatcher(constScorer(0.8), 0.5)

	res := m.Match("goa", []string{"Goa ", " GOA", "goa."})
	require.True(t, res.Found)
	assert.Equal(t, "Goa ", res.Candidate)
	assert.Equal(t, 1.0, res.Score)

	res = m.Match("x", []string{"Goa", "GOA"})
	assert.Equal(t, "Goa", res.Candidate)
	assert.False(t, res.Ambiguous)
}

func TestMatchCutoffBoundaryInclusive(t *testing.T) {
	m := NewMatcher(constScorer(0.5), 0.5)
	res := m.Match("a", []string{"b"})
	assert.True(t, res.Found)

	m = NewMatcher(constScorer(math.Nextafter(0.5, 0)), 0.5)
	res = m.Match("a", []string{"b"})
	assert.False(t, res.Found)
}
