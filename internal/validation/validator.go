package validation

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/nfhs-dash/internal/dataset"
	"github.com/nfhs-dash/internal/normalize"
)

// Cleaner validates numeric indicator columns before aggregation
type Cleaner struct {
	logger *zap.Logger
}

// NewCleaner creates a cleaner; a nil logger discards output
func NewCleaner(logger *zap.Logger) *Cleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{logger: logger}
}

// Clean returns a copy of t where every numeric column holds Number or
// Null cells. Null cells are kept as missing values. Text that is not a
// finite number, and negative numbers, are rejected: the row is excluded
// and every offending cell is reported. The input table is not modified.
func (c *Cleaner) Clean(t *dataset.Table, numericColumns []string, opts Options) (Result, error) {
	if opts.Source == "" {
		opts.Source = t.Name
	}
	if err := t.Require(numericColumns...); err != nil {
		return Result{}, fmt.Errorf("failed to clean %s: %w", opts.Source, err)
	}

	cols := make([]int, len(numericColumns))
	for k, name := range numericColumns {
		cols[k] = t.ColumnIndex(name)
	}

	res := Result{
		Table:   dataset.New(t.Name, t.Columns...),
		Summary: make(Summary),
		Input:   t.Len(),
	}

	for i, row := range t.Rows {
		out := append(dataset.Row(nil), row...)
		var bad []Rejection

		for k, j := range cols {
			cell := row[j]
			switch cell.Kind {
			case dataset.Null:
				res.Nulls++
				continue
			case dataset.Number:
				if math.IsNaN(cell.Number) || math.IsInf(cell.Number, 0) {
					bad = append(bad, c.reject(t, i, numericColumns[k], cell.String(), ReasonNonNumeric, opts))
				} else if cell.Number < 0 {
					bad = append(bad, c.reject(t, i, numericColumns[k], cell.String(), ReasonNegative, opts))
				}
				continue
			}

			v, err := normalize.ParseNumber(cell.Text)
			switch {
			case strings.TrimSpace(cell.Text) == "":
				out[j] = dataset.NullCell()
				res.Nulls++
			case err != nil:
				bad = append(bad, c.reject(t, i, numericColumns[k], cell.Text, ReasonNonNumeric, opts))
			case v < 0:
				bad = append(bad, c.reject(t, i, numericColumns[k], cell.Text, ReasonNegative, opts))
			default:
				out[j] = dataset.NumberCell(v)
			}
		}

		if len(bad) > 0 {
			for _, r := range bad {
				res.Summary.add(r.Round, r.Column, r.Reason)
			}
			res.Rejected = append(res.Rejected, bad...)
			continue
		}
		res.Table.Rows = append(res.Table.Rows, out)
	}
	res.Kept = res.Table.Len()

	if len(res.Rejected) > 0 {
		c.logger.Warn("indicator values rejected",
			zap.String("source", opts.Source),
			zap.Int("rows_dropped", res.Dropped()),
			zap.Int("non_numeric", res.Summary.Total(ReasonNonNumeric)),
			zap.Int("negative", res.Summary.Total(ReasonNegative)),
		)
	}
	c.logger.Debug("cleaned table",
		zap.String("source", opts.Source),
		zap.Int("input", res.Input),
		zap.Int("kept", res.Kept),
		zap.Int("nulls", res.Nulls),
	)
	return res, nil
}

func (c *Cleaner) reject(t *dataset.Table, i int, column, value string, reason Reason, opts Options) Rejection {
	r := Rejection{
		Source: opts.Source,
		Row:    i,
		Column: column,
		Value:  value,
		Reason: reason,
		Record: make(map[string]string),
	}
	if opts.RoundColumn != "" {
		r.Round = t.Text(i, opts.RoundColumn)
	}
	if opts.IndicatorColumn != "" {
		r.Indicator = t.Text(i, opts.IndicatorColumn)
	}

	recordCols := opts.RecordColumns
	if recordCols == nil {
		recordCols = t.Columns
	}
	for _, name := range recordCols {
		if cell := t.Cell(i, name); !cell.IsNull() {
			r.Record[name] = cell.String()
		}
	}
	return r
}

// Report renders the rejections and the per-round counts for operator
// review
func (r Result) Report() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%d of %d rows rejected (%d cells)\n", r.Dropped(), r.Input, len(r.Rejected))
	for _, round := range r.Summary.Rounds() {
		label := round
		if label == "" {
			label = "(no round)"
		}
		cols := make([]string, 0, len(r.Summary[round]))
		for col := range r.Summary[round] {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		for _, col := range cols {
			counts := r.Summary[round][col]
			fmt.Fprintf(&b, "  %s / %s: %d non-numeric, %d negative\n",
				label, col, counts[ReasonNonNumeric], counts[ReasonNegative])
		}
	}
	for _, rej := range r.Rejected {
		b.WriteString("  ")
		b.WriteString(rej.String())
		b.WriteByte('\n')
	}
	return b.String()
}
