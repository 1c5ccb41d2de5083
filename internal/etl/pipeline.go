package etl

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nfhs-dash/internal/dataset"
	"github.com/nfhs-dash/internal/debug"
	"github.com/nfhs-dash/internal/geo"
	"github.com/nfhs-dash/internal/match"
	"github.com/nfhs-dash/internal/overrides"
	"github.com/nfhs-dash/internal/reconcile"
	"github.com/nfhs-dash/internal/validation"
	"github.com/nfhs-dash/internal/views"
)

// Inputs are the raw tables of one build. Districts and Boundaries are
// required; the rest may be nil. Errors holds load failures of optional
// sources, keyed by source name.
type Inputs struct {
	Districts  *dataset.Table
	Boundaries []geo.Feature
	Trend      *dataset.Table
	Factsheet  *dataset.Table
	Equity     []*dataset.Table
	Errors     map[string]error
}

// Options configures a pipeline
type Options struct {
	Matching match.Config
	Views    views.Config
	Columns  views.Columns
	Logger   *zap.Logger
	Debug    bool
}

// DefaultOptions returns the district dashboard settings
func DefaultOptions() Options {
	return Options{
		Matching: match.DefaultConfig(),
		Views:    views.DefaultConfig(),
		Columns:  views.DistrictColumns(),
	}
}

// Pipeline turns raw inputs into an immutable snapshot
type Pipeline struct {
	matcher *match.Matcher
	cleaner *validation.Cleaner
	opts    Options
	logger  *zap.Logger
}

// NewPipeline creates a pipeline
func NewPipeline(opts Options) (*Pipeline, error) {
	matcher, err := match.New(opts.Matching)
	if err != nil {
		return nil, fmt.Errorf("failed to create matcher: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		matcher: matcher,
		cleaner: validation.NewCleaner(logger.Named("clean")),
		opts:    opts,
		logger:  logger,
	}, nil
}

// Build reconciles names, cleans every indicator table and freezes the
// result. Malformed required inputs abort the build; optional sources that
// fail are recorded on the snapshot and their views report no data.
func (p *Pipeline) Build(in Inputs, table *overrides.Table) (*Snapshot, error) {
	localDebug := p.opts.Debug
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)
	defer debug.DebugTiming(localDebug, "build snapshot")()

	if table == nil {
		table = overrides.Empty()
	}
	cols := p.opts.Columns

	if in.Districts == nil {
		return nil, &dataset.MalformedError{Source: "districts", Missing: []string{"table"}}
	}
	if len(in.Boundaries) == 0 {
		return nil, &dataset.MalformedError{Source: "boundaries", Missing: []string{"features"}}
	}
	if err := in.Districts.Require(cols.Region, cols.SubRegion, cols.Round); err != nil {
		return nil, fmt.Errorf("failed to validate district table: %w", err)
	}

	registry := geo.NewRegistry(in.Boundaries)
	debug.DebugOutput(localDebug, "Registry: %d features, %d regions", registry.Len(), len(registry.Regions()))

	pairs, err := reconcile.PairsFrom(in.Districts, cols.Region, cols.SubRegion)
	if err != nil {
		return nil, fmt.Errorf("failed to collect district names: %w", err)
	}
	rec := reconcile.New(p.matcher, table, p.logger.Named("reconcile")).Reconcile(registry, pairs)
	debug.DebugOutput(localDebug, "Reconciled %d regions, %d districts, %d anomalies",
		len(rec.Regions), len(rec.SubRegions), len(rec.Report.Anomalies))

	idVars := []string{cols.Region, cols.SubRegion, cols.Round}
	if cols.Year != "" && in.Districts.HasColumn(cols.Year) {
		idVars = append(idVars, cols.Year)
	} else {
		cols.Year = ""
	}
	long, err := in.Districts.Melt(idVars, nil, cols.Indicator, cols.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to reshape district table: %w", err)
	}

	district, err := p.cleaner.Clean(long, []string{cols.Value}, validation.Options{
		Source:          "districts",
		RoundColumn:     cols.Round,
		IndicatorColumn: cols.Indicator,
		RecordColumns:   []string{cols.Region, cols.SubRegion, cols.Round, cols.Indicator},
	})
	if err != nil {
		return nil, err
	}

	obs, err := views.Observations(district.Table, rec, cols)
	if err != nil {
		return nil, fmt.Errorf("failed to join observations: %w", err)
	}

	snap := &Snapshot{
		ID:             uuid.NewString(),
		BuiltAt:        time.Now().UTC(),
		Overrides:      table,
		Registry:       registry,
		Reconciliation: rec,
		District:       district,
	}
	for name, loadErr := range in.Errors {
		snap.addSourceError(name, loadErr)
	}

	if in.Trend != nil || in.Factsheet != nil {
		snap.Trend = p.buildTrend(in, table, snap)
	}
	if len(in.Equity) > 0 {
		snap.Equity = p.buildEquity(in, table, snap)
	}

	var trendTable, equityTable *dataset.Table
	if snap.Trend != nil {
		trendTable = snap.Trend.Table
	}
	if snap.Equity != nil {
		equityTable = snap.Equity.Table
	}
	snap.views = views.NewBuilder(p.opts.Views, registry, rec, obs, trendTable, equityTable)

	p.logger.Info("snapshot built",
		zap.String("id", snap.ID),
		zap.Int("observations", len(obs)),
		zap.Int("rejections", len(snap.Rejections())),
		zap.Int("anomalies", len(rec.Report.Anomalies)),
		zap.Int("source_errors", len(snap.SourceErrors)),
	)
	return snap, nil
}

func (p *Pipeline) buildTrend(in Inputs, table *overrides.Table, snap *Snapshot) *validation.Result {
	trend, err := PrepareTrend(in.Trend, in.Factsheet)
	if err != nil {
		snap.addSourceError("trend", err)
		return nil
	}
	trend = trend.Replace(table.Aliases)

	res, err := p.cleaner.Clean(trend, views.TrendValueColumns, validation.Options{
		Source:        "trend",
		RoundColumn:   views.ColNFHS,
		RecordColumns: []string{views.ColState, views.ColIndicator, views.ColNFHS},
	})
	if err != nil {
		snap.addSourceError("trend", err)
		return nil
	}
	return &res
}

func (p *Pipeline) buildEquity(in Inputs, table *overrides.Table, snap *Snapshot) *validation.Result {
	equity, err := PrepareEquity(in.Equity)
	if err != nil {
		snap.addSourceError("equity", err)
		return nil
	}
	equity = equity.Replace(table.Aliases)

	// sheets carry the categories of their own groups only
	var present []string
	for _, c := range views.EquityValueColumns() {
		if equity.HasColumn(c) {
			present = append(present, c)
		}
	}

	res, err := p.cleaner.Clean(equity, present, validation.Options{
		Source:        "equity",
		RoundColumn:   views.ColEquityYear,
		RecordColumns: []string{views.ColState, views.ColIndicator, views.ColEquityYear},
	})
	if err != nil {
		snap.addSourceError("equity", err)
		return nil
	}
	return &res
}
