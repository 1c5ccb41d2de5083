package match

import (
	"fmt"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
)

// Scorer names accepted by ScorerFor
const (
	ScorerRatio       = "ratio"
	ScorerJaroWinkler = "jaro-winkler"
	ScorerLevenshtein = "levenshtein"
)

// Scorer computes a similarity in [0, 1] between two comparison keys
type Scorer interface {
	Name() string
	Similarity(a, b string) float64
}

// ScorerFor returns the scorer registered under name
func ScorerFor(name string) (Scorer, error) {
	switch name {
	case "", ScorerRatio:
		return RatioScorer{}, nil
	case ScorerJaroWinkler:
		return JaroWinklerScorer{BoostThreshold: 0.7, PrefixSize: 4}, nil
	case ScorerLevenshtein:
		return LevenshteinScorer{}, nil
	}
	return nil, fmt.Errorf("unknown similarity scorer %q", name)
}

// RatioScorer implements the Ratcliff/Obershelp gestalt ratio 2*M/T, where M
// is the number of characters in matching blocks and T the total length.
type RatioScorer struct{}

func (RatioScorer) Name() string { return ScorerRatio }

func (RatioScorer) Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingChars(ra, rb)) / float64(total)
}

// matchingChars sums the sizes of the matching blocks found by repeatedly
// taking the longest common substring and recursing on both sides of it
func matchingChars(a, b []rune) int {
	type span struct{ alo, ahi, blo, bhi int }

	// positions of every rune of b, ascending
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	total := 0
	queue := []span{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		total += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return total
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] inside the given
// bounds; among equal lengths the earliest i, then the earliest j, wins
func longestMatch(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, bestk := alo, blo, 0

	// lengths[j] = length of the match ending at a[i-1], b[j]
	lengths := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := lengths[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		lengths = next
	}
	return besti, bestj, bestk
}

// JaroWinklerScorer delegates to smetrics
type JaroWinklerScorer struct {
	BoostThreshold float64
	PrefixSize     int
}

func (JaroWinklerScorer) Name() string { return ScorerJaroWinkler }

func (s JaroWinklerScorer) Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	return smetrics.JaroWinkler(a, b, s.BoostThreshold, s.PrefixSize)
}

// LevenshteinScorer turns edit distance into 1 - d/max(len)
type LevenshteinScorer struct{}

func (LevenshteinScorer) Name() string { return ScorerLevenshtein }

func (LevenshteinScorer) Similarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1.0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(d)/float64(longest)
}
