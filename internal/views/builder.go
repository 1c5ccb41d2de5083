package views

import (
	"sort"
	"strings"

	"github.com/nfhs-dash/internal/dataset"
	"github.com/nfhs-dash/internal/geo"
	"github.com/nfhs-dash/internal/normalize"
	"github.com/nfhs-dash/internal/reconcile"
)

// Builder answers view queries over one immutable snapshot of data
type Builder struct {
	cfg      Config
	registry *geo.Registry
	rec      *reconcile.Result
	obs      []Observation
	trend    *dataset.Table
	equity   *dataset.Table
	inverse  map[string]bool
}

// NewBuilder creates a builder. Trend and equity tables may be nil when
// their sources are unavailable; their views then report no data.
func NewBuilder(cfg Config, registry *geo.Registry, rec *reconcile.Result, obs []Observation, trend, equity *dataset.Table) *Builder {
	b := &Builder{
		cfg:      cfg,
		registry: registry,
		rec:      rec,
		obs:      obs,
		trend:    trend,
		equity:   equity,
		inverse:  make(map[string]bool, len(cfg.InverseScale)),
	}
	for _, ind := range cfg.InverseScale {
		b.inverse[ind] = true
	}
	return b
}

// Config returns the view settings
func (b *Builder) Config() Config {
	return b.cfg
}

// Observations returns a copy of the joined district observations
func (b *Builder) Observations() []Observation {
	return append([]Observation(nil), b.obs...)
}

// InverseScale reports whether lower values of an indicator are better
func (b *Builder) InverseScale(indicator string) bool {
	return b.inverse[indicator]
}

// IsAllScope reports whether scope selects every feature
func (b *Builder) IsAllScope(scope string) bool {
	return normalize.Equal(scope, b.cfg.AllScope)
}

// Scopes lists the all scope followed by every raw region, sorted
// case-insensitively
func (b *Builder) Scopes() []string {
	scopes := []string{b.cfg.AllScope}
	for _, m := range b.rec.Regions {
		scopes = append(scopes, m.Raw)
	}
	sortFold(scopes)
	return scopes
}

// Regions returns the raw region names of the survey data, sorted
func (b *Builder) Regions() []string {
	regions := make([]string, 0, len(b.rec.Regions))
	for _, m := range b.rec.Regions {
		regions = append(regions, m.Raw)
	}
	sortFold(regions)
	return regions
}

// Indicators lists the district indicators, sorted case-insensitively
func (b *Builder) Indicators() []string {
	seen := make(map[string]bool)
	var out []string
	for _, o := range b.obs {
		if !seen[o.Indicator] {
			seen[o.Indicator] = true
			out = append(out, o.Indicator)
		}
	}
	sortFold(out)
	return out
}

// IndicatorTypes lists the indicator types of the trend table
func (b *Builder) IndicatorTypes() []string {
	if b.trend == nil {
		return nil
	}
	types := b.trend.Distinct(ColIndicatorType)
	sortFold(types)
	return types
}

// IndicatorsByType lists the trend indicators whose type is one of types
func (b *Builder) IndicatorsByType(types []string) []string {
	if b.trend == nil || len(types) == 0 {
		return nil
	}
	want := make(map[string]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	seen := make(map[string]bool)
	var out []string
	for i := range b.trend.Rows {
		if !want[b.trend.Text(i, ColIndicatorType)] {
			continue
		}
		ind := b.trend.Text(i, ColIndicator)
		if ind != "" && !seen[ind] {
			seen[ind] = true
			out = append(out, ind)
		}
	}
	sortFold(out)
	return out
}

// TrendStates lists the states of the trend table
func (b *Builder) TrendStates() []string {
	if b.trend == nil {
		return nil
	}
	states := b.trend.Distinct(ColState)
	sortFold(states)
	return states
}

// EquityStates lists the states of the equity table in source order
func (b *Builder) EquityStates() []string {
	if b.equity == nil {
		return nil
	}
	return b.equity.Distinct(ColState)
}

// EquityGroupNames lists the disaggregation groups
func EquityGroupNames() []string {
	names := make([]string, len(EquityGroups))
	for i, g := range EquityGroups {
		names[i] = g.Name
	}
	return names
}

func (b *Builder) inScope(o Observation, scope string) bool {
	return b.IsAllScope(scope) || normalize.Equal(o.Region, scope)
}

func sortFold(s []string) {
	sort.SliceStable(s, func(i, j int) bool {
		return strings.ToLower(s[i]) < strings.ToLower(s[j])
	})
}
