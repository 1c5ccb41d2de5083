package views

import (
	"github.com/nfhs-dash/internal/dataset"
	"github.com/nfhs-dash/internal/reconcile"
)

// Observation is one cleaned indicator value joined to its geographic key
type Observation struct {
	Region    string  `json:"region"`
	SubRegion string  `json:"sub_region"`
	Key       string  `json:"key"`
	Mapped    bool    `json:"mapped"`
	Indicator string  `json:"indicator"`
	Round     string  `json:"round"`
	Year      string  `json:"year,omitempty"`
	Value     float64 `json:"value"`
	Missing   bool    `json:"missing,omitempty"`
}

// Observations joins a cleaned long table to the reconciliation lookup.
// Pairs absent from the lookup are kept unmapped.
func Observations(t *dataset.Table, rec *reconcile.Result, cols Columns) ([]Observation, error) {
	if err := t.Require(cols.Region, cols.SubRegion, cols.Round, cols.Indicator, cols.Value); err != nil {
		return nil, err
	}

	out := make([]Observation, 0, t.Len())
	for i := range t.Rows {
		o := Observation{
			Region:    t.Text(i, cols.Region),
			SubRegion: t.Text(i, cols.SubRegion),
			Indicator: t.Text(i, cols.Indicator),
			Round:     t.Text(i, cols.Round),
		}
		if cols.Year != "" {
			o.Year = t.Text(i, cols.Year)
		}

		if v, ok := t.Cell(i, cols.Value).Float(); ok {
			o.Value = v
		} else {
			o.Missing = true
		}

		if m, ok := rec.Lookup(o.Region, o.SubRegion); ok {
			o.Key, o.Mapped = m.GeoKey()
		}
		out = append(out, o)
	}
	return out, nil
}
