package etl

import (
	"github.com/nfhs-dash/internal/dataset"
	"github.com/nfhs-dash/internal/views"
)

// factsheet column labels as exported from the compiled India sheet
var factsheetColumns = map[string]string{
	"Sl.No":            "No.",
	"NFHS-5 (2019-21)": "Urban",
	"Unnamed: 4":       "Rural",
	"Unnamed: 5":       "Total",
	"Unnamed: 7":       views.ColIndicatorType,
	"Unnamed: 8":       views.ColGender,
	"Unnamed: 9":       views.ColNFHS,
	"Unnamed: 10":      views.ColTrendYear,
}

const (
	factsheetRound4 = "NFHS-4 (2015-16)"
	nationalState   = "India"
)

// PrepareTrend stacks the state trend sheet with the national factsheet.
// The factsheet carries NFHS-4 totals in their own column; they become
// separate rows. Either table may be nil.
func PrepareTrend(states, factsheet *dataset.Table) (*dataset.Table, error) {
	var parts []*dataset.Table
	if states != nil {
		parts = append(parts, states)
	}

	if factsheet != nil {
		fs := factsheet.Rename(factsheetColumns).
			WithColumn(views.ColState, dataset.TextCell(nationalState)).
			Skip(1)

		round4, err := fs.Select(views.ColIndicator, factsheetRound4, views.ColIndicatorType, views.ColGender, views.ColState)
		if err != nil {
			return nil, err
		}
		parts = append(parts,
			round4.Rename(map[string]string{factsheetRound4: "Total"}),
			fs.Drop(factsheetRound4),
		)
	}

	if len(parts) == 0 {
		return nil, nil
	}

	trend := dataset.Concat("trend", parts...).
		FillNull(map[string]string{views.ColNFHS: "NFHS 4", views.ColTrendYear: "2016"})
	if err := trend.Require(views.ColState, views.ColIndicator, views.ColGender); err != nil {
		return nil, err
	}

	// disaggregated rows carry a gender; the trend view shows totals only
	return trend.Filter(func(t *dataset.Table, i int) bool {
		return t.Cell(i, views.ColGender).IsNull()
	}), nil
}

// PrepareEquity stacks the equity sheets, one indicator per sheet, and drops
// rows without a state or a year
func PrepareEquity(sheets []*dataset.Table) (*dataset.Table, error) {
	if len(sheets) == 0 {
		return nil, nil
	}

	parts := make([]*dataset.Table, 0, len(sheets))
	for _, sheet := range sheets {
		t := sheet.WithColumn(views.ColIndicator, dataset.TextCell(sheet.Name)).
			Rename(map[string]string{"Unnamed: 0": views.ColState, "Unnamed: 1": "Total"})
		if err := t.Require(views.ColState, views.ColEquityYear); err != nil {
			return nil, err
		}
		parts = append(parts, t.Filter(func(t *dataset.Table, i int) bool {
			return !t.Cell(i, views.ColState).IsNull() && !t.Cell(i, views.ColEquityYear).IsNull()
		}))
	}
	return dataset.Concat("equity", parts...), nil
}
