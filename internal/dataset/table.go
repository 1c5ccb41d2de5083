package dataset

import (
	"fmt"
	"strings"
)

// Row is one record of a table, aligned with Table.Columns
type Row []Cell

// Table is an in-memory rectangular table with named columns
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// New creates an empty table with the given header
func New(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: append([]string(nil), columns...)}
}

// FromStrings builds a table from a header and text records; empty strings
// become null cells
func FromStrings(name string, header []string, records [][]string) *Table {
	t := New(name, header...)
	for _, rec := range records {
		row := make(Row, len(header))
		for i := range header {
			if i < len(rec) && strings.TrimSpace(rec[i]) != "" {
				row[i] = TextCell(rec[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of a column or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether a column exists
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Require returns a *MalformedError naming every missing column
func (t *Table) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MalformedError{Source: t.Name, Missing: missing, Expected: append([]string(nil), columns...)}
}

// Cell returns the cell at row i, column name; missing columns read as null
func (t *Table) Cell(i int, name string) Cell {
	j := t.ColumnIndex(name)
	if j < 0 || i < 0 || i >= len(t.Rows) || j >= len(t.Rows[i]) {
		return NullCell()
	}
	return t.Rows[i][j]
}

// Text returns the text of a cell, or "" when it is null
func (t *Table) Text(i int, name string) string {
	return t.Cell(i, name).String()
}

// Append adds a row; it must have one cell per column
func (t *Table) Append(row Row) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, table %q has %d columns", len(row), t.Name, len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Clone returns a deep copy
func (t *Table) Clone() *Table {
	out := New(t.Name, t.Columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append(Row(nil), r...)
	}
	return out
}

// Distinct returns the distinct non-null values of a column in first-seen
// order
func (t *Table) Distinct(column string) []string {
	j := t.ColumnIndex(column)
	if j < 0 {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Rows {
		if r[j].IsNull() {
			continue
		}
		v := r[j].String()
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Filter returns the rows for which keep returns true
func (t *Table) Filter(keep func(t *Table, i int) bool) *Table {
	out := New(t.Name, t.Columns...)
	for i, r := range t.Rows {
		if keep(t, i) {
			out.Rows = append(out.Rows, append(Row(nil), r...))
		}
	}
	return out
}

// Replace returns a copy where text cells equal to a key of
// aliases[column] are replaced by its value. Comparison is exact.
func (t *Table) Replace(aliases map[string]map[string]string) *Table {
	out := t.Clone()
	for column, m := range aliases {
		j := out.ColumnIndex(column)
		if j < 0 || len(m) == 0 {
			continue
		}
		for _, r := range out.Rows {
			if r[j].Kind != Text {
				continue
			}
			if to, ok := m[r[j].Text]; ok {
				r[j] = TextCell(to)
			}
		}
	}
	return out
}

// Rename returns a copy with columns renamed per the mapping
func (t *Table) Rename(names map[string]string) *Table {
	out := t.Clone()
	for i, c := range out.Columns {
		if to, ok := names[c]; ok {
			out.Columns[i] = to
		}
	}
	return out
}

// Melt turns valueVars into rows: the result has the idVars columns
// followed by varName (the source column name) and valueName. A nil
// valueVars melts every column that is not an id. Missing id columns are
// a *MalformedError; missing value columns are skipped.
func (t *Table) Melt(idVars, valueVars []string, varName, valueName string) (*Table, error) {
	if err := t.Require(idVars...); err != nil {
		return nil, err
	}

	ids := make([]int, len(idVars))
	isID := make(map[string]bool, len(idVars))
	for k, c := range idVars {
		ids[k] = t.ColumnIndex(c)
		isID[c] = true
	}

	if valueVars == nil {
		for _, c := range t.Columns {
			if !isID[c] {
				valueVars = append(valueVars, c)
			}
		}
	}

	out := New(t.Name, append(append([]string(nil), idVars...), varName, valueName)...)
	for _, v := range valueVars {
		j := t.ColumnIndex(v)
		if j < 0 {
			continue
		}
		for _, r := range t.Rows {
			row := make(Row, 0, len(ids)+2)
			for _, k := range ids {
				row = append(row, r[k])
			}
			row = append(row, TextCell(v), r[j])
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

// Concat stacks tables by column name; the header is the union of columns
// in first-seen order and absent cells are null
func Concat(name string, tables ...*Table) *Table {
	out := New(name)
	for _, t := range tables {
		for _, c := range t.Columns {
			if !out.HasColumn(c) {
				out.Columns = append(out.Columns, c)
			}
		}
	}
	for _, t := range tables {
		pos := make([]int, len(t.Columns))
		for i, c := range t.Columns {
			pos[i] = out.ColumnIndex(c)
		}
		for _, r := range t.Rows {
			row := make(Row, len(out.Columns))
			for i, cell := range r {
				row[pos[i]] = cell
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// WithColumn returns a copy with an extra column filled with value
func (t *Table) WithColumn(name string, value Cell) *Table {
	out := t.Clone()
	out.Columns = append(out.Columns, name)
	for i := range out.Rows {
		out.Rows[i] = append(out.Rows[i], value)
	}
	return out
}

// Select returns a copy with only the named columns, in that order.
// Missing columns are a *MalformedError.
func (t *Table) Select(columns ...string) (*Table, error) {
	if err := t.Require(columns...); err != nil {
		return nil, err
	}
	idx := make([]int, len(columns))
	for k, c := range columns {
		idx[k] = t.ColumnIndex(c)
	}
	out := New(t.Name, columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		row := make(Row, len(idx))
		for k, j := range idx {
			row[k] = r[j]
		}
		out.Rows[i] = row
	}
	return out, nil
}

// Drop returns a copy without the named columns; unknown names are ignored
func (t *Table) Drop(columns ...string) *Table {
	drop := make(map[string]bool, len(columns))
	for _, c := range columns {
		drop[c] = true
	}
	var keep []string
	for _, c := range t.Columns {
		if !drop[c] {
			keep = append(keep, c)
		}
	}
	out, _ := t.Select(keep...)
	return out
}

// FillNull returns a copy where null cells of the given columns take the
// mapped text value
func (t *Table) FillNull(values map[string]string) *Table {
	out := t.Clone()
	for column, v := range values {
		j := out.ColumnIndex(column)
		if j < 0 {
			continue
		}
		for _, r := range out.Rows {
			if r[j].IsNull() {
				r[j] = TextCell(v)
			}
		}
	}
	return out
}

// Skip returns a copy without the first n rows
func (t *Table) Skip(n int) *Table {
	out := t.Clone()
	if n > len(out.Rows) {
		n = len(out.Rows)
	}
	out.Rows = out.Rows[n:]
	return out
}
