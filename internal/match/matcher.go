package match

import (
	"fmt"

	"github.com/nfhs-dash/internal/normalize"
)

// Matcher picks the closest candidate name for a raw query name
type Matcher struct {
	scorer Scorer
	cutoff float64
}

// NewMatcher creates a matcher; a nil scorer falls back to the gestalt ratio
func NewMatcher(scorer Scorer, cutoff float64) *Matcher {
	if scorer == nil {
		scorer = RatioScorer{}
	}
	return &Matcher{scorer: scorer, cutoff: cutoff}
}

// New creates a matcher from configuration
func New(cfg Config) (*Matcher, error) {
	scorer, err := ScorerFor(cfg.Scorer)
	if err != nil {
		return nil, err
	}
	if cfg.Cutoff < 0 || cfg.Cutoff > 1 {
		return nil, fmt.Errorf("cutoff %.3f outside [0, 1]", cfg.Cutoff)
	}
	return NewMatcher(scorer, cfg.Cutoff), nil
}

// Cutoff returns the minimum similarity a match must reach
func (m *Matcher) Cutoff() float64 {
	return m.cutoff
}

// ScorerName returns the similarity measure in use
func (m *Matcher) ScorerName() string {
	return m.scorer.Name()
}

// Match scores the query against every candidate and returns the best one at
// or above the cutoff. Candidates are compared by normalized key; when two
// candidates share a key only the first is considered. Equal best scores
// resolve to the earliest candidate and mark the result ambiguous.
func (m *Matcher) Match(query string, candidates []string) Result {
	result := Result{Query: query}

	q := normalize.Key(query)
	if q == "" {
		return result
	}

	seen := make(map[string]bool, len(candidates))
	best := -1.0
	var tied []string

	for _, cand := range candidates {
		key := normalize.Key(cand)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		if key == q {
			return Result{Query: query, Candidate: cand, Score: 1.0, Found: true}
		}

		score := m.scorer.Similarity(key, q)
		switch {
		case score > best:
			best = score
			result.Candidate = cand
			tied = tied[:0]
		case score == best:
			tied = append(tied, cand)
		}
	}

	if best < m.cutoff || result.Candidate == "" {
		return Result{Query: query, Score: maxScore(best)}
	}

	result.Score = best
	result.Found = true
	if len(tied) > 0 {
		result.Ambiguous = true
		result.Tied = append([]string(nil), tied...)
	}
	return result
}

func maxScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	return s
}
