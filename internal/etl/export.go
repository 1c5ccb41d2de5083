package etl

import (
	"strconv"
	"strings"

	"github.com/nfhs-dash/internal/dataset"
)

// Tables flattens the snapshot into report tables: the region and district
// match tables, the anomaly report, the rejected cells and the cleaned
// district values
func (s *Snapshot) Tables() []*dataset.Table {
	regions := dataset.New("regions", "Raw", "Canonical", "Method", "Score", "Ambiguous")
	districts := dataset.New("districts", "Region", "SubRegion", "CanonicalRegion", "CanonicalSubRegion", "Key", "Method", "Score")
	anomalies := dataset.New("anomalies", "Kind", "Level", "Region", "SubRegion", "Chosen", "Candidates", "Score")
	rejections := dataset.New("rejections", "Source", "Row", "Column", "Round", "Indicator", "Value", "Reason")

	if rec := s.Reconciliation; rec != nil {
		for _, m := range rec.Regions {
			regions.Rows = append(regions.Rows, dataset.Row{
				text(m.Raw), text(m.Canonical), text(string(m.Method)),
				dataset.NumberCell(m.Score), text(strconv.FormatBool(m.Ambiguous)),
			})
		}
		for _, m := range rec.SubRegions {
			districts.Rows = append(districts.Rows, dataset.Row{
				text(m.Region), text(m.SubRegion), text(m.CanonicalRegion), text(m.CanonicalSubRegion),
				text(m.Key), text(string(m.Method)), dataset.NumberCell(m.Score),
			})
		}
		for _, a := range rec.Report.Anomalies {
			anomalies.Rows = append(anomalies.Rows, dataset.Row{
				text(string(a.Kind)), text(string(a.Level)), text(a.Region), text(a.SubRegion),
				text(a.Chosen), text(strings.Join(a.Candidates, "; ")), dataset.NumberCell(a.Score),
			})
		}
	}

	for _, r := range s.Rejections() {
		rejections.Rows = append(rejections.Rows, dataset.Row{
			text(r.Source), dataset.NumberCell(float64(r.Row)), text(r.Column), text(r.Round),
			text(r.Indicator), text(r.Value), text(string(r.Reason)),
		})
	}

	tables := []*dataset.Table{regions, districts, anomalies, rejections}
	if s.District.Table != nil {
		cleaned := s.District.Table.Clone()
		cleaned.Name = "values"
		tables = append(tables, cleaned)
	}
	return tables
}

// text maps "" to a null cell
func text(s string) dataset.Cell {
	if s == "" {
		return dataset.NullCell()
	}
	return dataset.TextCell(s)
}
