package match

// Config selects the similarity measure and the acceptance cutoff
type Config struct {
	Scorer string  `yaml:"scorer"` // ratio | jaro-winkler | levenshtein
	Cutoff float64 `yaml:"cutoff"` // 0-1, candidates below are never returned
}

// DefaultConfig returns the settings the dashboard's name tables were
// reconciled with
func DefaultConfig() Config {
	return Config{
		Scorer: ScorerRatio,
		Cutoff: 0.5,
	}
}

// Result is the outcome of matching one query against a candidate list
type Result struct {
	Query     string  `json:"query"`
	Candidate string  `json:"candidate,omitempty"` // spelled as in the candidate list
	Score     float64 `json:"score"`
	Found     bool    `json:"found"`

	// Ambiguous is set when other candidates reached the same best score.
	// Candidate is still the first of them in candidate order.
	Ambiguous bool     `json:"ambiguous,omitempty"`
	Tied      []string `json:"tied,omitempty"`
}
