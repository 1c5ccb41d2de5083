package validation

import (
	"fmt"
	"sort"

	"github.com/nfhs-dash/internal/dataset"
)

// Reason classifies why an indicator cell was rejected
type Reason string

const (
	ReasonNonNumeric Reason = "non_numeric"
	ReasonNegative   Reason = "negative"
)

// Rejection is one offending cell; its whole row is excluded from the
// cleaned table
type Rejection struct {
	Source    string            `json:"source"`
	Row       int               `json:"row"` // position in the input table
	Column    string            `json:"column"`
	Round     string            `json:"round,omitempty"`
	Indicator string            `json:"indicator,omitempty"`
	Value     string            `json:"value"`
	Reason    Reason            `json:"reason"`
	Record    map[string]string `json:"record,omitempty"`
}

func (r Rejection) String() string {
	where := r.Column
	if r.Indicator != "" {
		where = r.Indicator
	}
	if r.Round != "" {
		where += " [" + r.Round + "]"
	}
	return fmt.Sprintf("%s row %d: %s = %q (%s)", r.Source, r.Row, where, r.Value, r.Reason)
}

// Options describes the table being cleaned
type Options struct {
	Source          string   // label used in rejections and errors
	RoundColumn     string   // column holding the survey round, optional
	IndicatorColumn string   // long tables: column naming the indicator of each value
	RecordColumns   []string // columns copied into Rejection.Record; nil copies all
}

// Summary counts rejections per round, column and reason
type Summary map[string]map[string]map[Reason]int

func (s Summary) add(round, column string, reason Reason) {
	cols, ok := s[round]
	if !ok {
		cols = make(map[string]map[Reason]int)
		s[round] = cols
	}
	reasons, ok := cols[column]
	if !ok {
		reasons = make(map[Reason]int)
		cols[column] = reasons
	}
	reasons[reason]++
}

// Count returns the rejections for one round, column and reason
func (s Summary) Count(round, column string, reason Reason) int {
	return s[round][column][reason]
}

// Total returns the rejections for a reason across rounds and columns
func (s Summary) Total(reason Reason) int {
	n := 0
	for _, cols := range s {
		for _, reasons := range cols {
			n += reasons[reason]
		}
	}
	return n
}

// Rounds returns the rounds with at least one rejection, sorted
func (s Summary) Rounds() []string {
	rounds := make([]string, 0, len(s))
	for r := range s {
		rounds = append(rounds, r)
	}
	sort.Strings(rounds)
	return rounds
}

// Result is the outcome of cleaning one table
type Result struct {
	Table    *dataset.Table `json:"-"`
	Rejected []Rejection    `json:"rejected"`
	Summary  Summary        `json:"summary"`
	Input    int            `json:"input_rows"`
	Kept     int            `json:"kept_rows"`
	Nulls    int            `json:"null_cells"`
}

// Dropped returns the number of excluded rows
func (r Result) Dropped() int {
	return r.Input - r.Kept
}
