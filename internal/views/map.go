package views

import (
	"math"

	"github.com/nfhs-dash/internal/geo"
	"github.com/nfhs-dash/internal/normalize"
)

// Range is a shared color or axis range
type Range struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Valid bool    `json:"valid"`
}

// AlignRange computes the range shared by two rounds from their reported
// values: [min(a, b) - padding, max(a, b)]. Without any value the range is
// not valid.
func AlignRange(a, b []float64, padding float64) Range {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, vs := range [][]float64{a, b} {
		for _, v := range vs {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return Range{}
	}
	return Range{Min: lo - padding, Max: hi, Valid: true}
}

// FeatureValue is the value drawn on one boundary feature
type FeatureValue struct {
	Key         string  `json:"key"`
	FeatureID   string  `json:"feature_id,omitempty"`
	Region      string  `json:"region,omitempty"`
	SubRegion   string  `json:"sub_region,omitempty"`
	Value       float64 `json:"value"`
	NotReported bool    `json:"not_reported,omitempty"`
}

// RoundMap is the choropleth data of one round
type RoundMap struct {
	Round    string         `json:"round"`
	Label    string         `json:"label"`
	Features []FeatureValue `json:"features"`
	Unmapped []Observation  `json:"unmapped,omitempty"`
	Reported int            `json:"reported"`
	Imputed  int            `json:"imputed"`
	Empty    bool           `json:"empty"`
}

// MapView compares one indicator across the configured rounds
type MapView struct {
	Scope     string     `json:"scope"`
	Indicator string     `json:"indicator"`
	Range     Range      `json:"range"`
	Inverse   bool       `json:"inverse_scale"`
	Rounds    []RoundMap `json:"rounds"`
	Empty     bool       `json:"empty"`
}

// Map builds the choropleth comparison for a scope (a raw region or the all
// scope). The range is computed from reported values before features
// without a value are imputed with the sentinel.
func (b *Builder) Map(scope, indicator string) MapView {
	view := MapView{
		Scope:     scope,
		Indicator: indicator,
		Inverse:   b.InverseScale(indicator),
		Empty:     true,
	}

	features := b.scopeFeatures(scope)
	reported := make([][]float64, len(b.cfg.Rounds))

	for r, round := range b.cfg.Rounds {
		rm := RoundMap{Round: round.ID, Label: round.Label}
		present := make(map[string]bool)

		for _, o := range b.obs {
			if o.Indicator != indicator || o.Round != round.ID || !b.inScope(o, scope) {
				continue
			}
			if !o.Missing {
				reported[r] = append(reported[r], o.Value)
				rm.Reported++
			}
			if !o.Mapped {
				rm.Unmapped = append(rm.Unmapped, o)
				continue
			}

			// Key is the full feature name, whatever the name's component count
			fv := FeatureValue{Key: o.Key, Region: o.Region, SubRegion: o.SubRegion, Value: o.Value}
			if f, ok := b.registry.ByKey(o.Key); ok {
				fv.Key = f.Name
				fv.FeatureID = f.ID
			}
			if o.Missing {
				fv.Value = b.cfg.Sentinel
				fv.NotReported = true
				rm.Imputed++
			}
			present[fv.Key] = true
			rm.Features = append(rm.Features, fv)
		}

		for _, f := range features {
			if present[f.Name] {
				continue
			}
			rm.Features = append(rm.Features, FeatureValue{
				Key:         f.Name,
				FeatureID:   f.ID,
				Value:       b.cfg.Sentinel,
				NotReported: true,
			})
			rm.Imputed++
		}

		rm.Empty = rm.Reported == 0
		if !rm.Empty {
			view.Empty = false
		}
		view.Rounds = append(view.Rounds, rm)
	}

	if len(reported) > 0 {
		var rest []float64
		for _, vs := range reported[1:] {
			rest = append(rest, vs...)
		}
		view.Range = AlignRange(reported[0], rest, b.cfg.RangePadding)
	}
	return view
}

// scopeFeatures returns the boundary features a scope covers
func (b *Builder) scopeFeatures(scope string) []geo.Feature {
	if b.IsAllScope(scope) {
		return b.registry.Features()
	}
	for _, m := range b.rec.Regions {
		if m.Resolved() && normalize.Equal(m.Raw, scope) {
			return b.registry.FeaturesIn(m.Canonical)
		}
	}
	return nil
}
