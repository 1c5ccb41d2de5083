package dataset

import (
	"encoding/json"
	"strconv"
)

// Kind tells what a cell holds
type Kind int

const (
	Null Kind = iota
	Text
	Number
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Number:
		return "number"
	}
	return "null"
}

// Cell is one value of a table. Spreadsheet sources are read as text; the
// cleaner replaces numeric text with Number cells.
type Cell struct {
	Kind   Kind
	Text   string
	Number float64
}

// NullCell returns an empty cell
func NullCell() Cell { return Cell{} }

// TextCell returns a cell holding raw text
func TextCell(s string) Cell { return Cell{Kind: Text, Text: s} }

// NumberCell returns a cell holding a parsed number
func NumberCell(f float64) Cell { return Cell{Kind: Number, Number: f} }

// IsNull reports whether the cell is empty
func (c Cell) IsNull() bool { return c.Kind == Null }

// String renders the cell as it would appear in a CSV export
func (c Cell) String() string {
	switch c.Kind {
	case Text:
		return c.Text
	case Number:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	}
	return ""
}

// Float returns the numeric value of a Number cell
func (c Cell) Float() (float64, bool) {
	if c.Kind != Number {
		return 0, false
	}
	return c.Number, true
}

func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case Text:
		return json.Marshal(c.Text)
	case Number:
		return json.Marshal(c.Number)
	}
	return []byte("null"), nil
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*c = NullCell()
	case float64:
		*c = NumberCell(x)
	case string:
		*c = TextCell(x)
	default:
		*c = TextCell(string(data))
	}
	return nil
}
