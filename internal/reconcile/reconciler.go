package reconcile

import (
	"go.uber.org/zap"

	"github.com/nfhs-dash/internal/dataset"
	"github.com/nfhs-dash/internal/geo"
	"github.com/nfhs-dash/internal/match"
	"github.com/nfhs-dash/internal/overrides"
)

// Reconciler maps raw survey names onto boundary registry names
type Reconciler struct {
	matcher   *match.Matcher
	overrides *overrides.Table
	logger    *zap.Logger
}

// New creates a reconciler. A nil override table applies no corrections.
func New(matcher *match.Matcher, table *overrides.Table, logger *zap.Logger) *Reconciler {
	if matcher == nil {
		matcher = match.NewMatcher(nil, match.DefaultConfig().Cutoff)
	}
	if table == nil {
		table = overrides.Empty()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{matcher: matcher, overrides: table, logger: logger}
}

// PairsFrom collects the distinct (region, sub-region) pairs of a table in
// first-seen order
func PairsFrom(t *dataset.Table, regionColumn, subRegionColumn string) ([]Pair, error) {
	if err := t.Require(regionColumn, subRegionColumn); err != nil {
		return nil, err
	}
	seen := make(map[Pair]bool)
	var pairs []Pair
	for i := range t.Rows {
		p := Pair{Region: t.Text(i, regionColumn), SubRegion: t.Text(i, subRegionColumn)}
		if !seen[p] {
			seen[p] = true
			pairs = append(pairs, p)
		}
	}
	return pairs, nil
}

// Reconcile resolves every region, then every sub-region inside its
// resolved region. Overrides are applied after fuzzy matching at each
// level. Nothing fails: unresolved names are kept and reported.
func (r *Reconciler) Reconcile(registry *geo.Registry, pairs []Pair) *Result {
	res := newResult()
	regionCandidates := registry.Regions()

	for _, p := range pairs {
		if _, done := res.regionIdx[p.Region]; done {
			continue
		}
		res.addRegion(r.resolveRegion(registry, regionCandidates, p.Region, &res.Report))
	}

	for _, p := range pairs {
		if _, done := res.pairIdx[p]; done {
			continue
		}
		rm, _ := res.Region(p.Region)
		res.addSubRegion(r.resolveSubRegion(registry, rm, p.SubRegion, &res.Report))
	}

	stats := res.Stats()
	r.logger.Info("reconciliation complete",
		zap.Int("regions", len(res.Regions)),
		zap.Int("regions_unmatched", stats.Regions[MethodUnmatched]),
		zap.Int("sub_regions", len(res.SubRegions)),
		zap.Int("sub_regions_unmatched", stats.SubRegions[MethodUnmatched]),
		zap.Int("keyed", stats.Keyed),
		zap.Int("anomalies", len(res.Report.Anomalies)),
	)
	return res
}

func (r *Reconciler) resolveRegion(registry *geo.Registry, candidates []string, raw string, report *Report) RegionMatch {
	m := RegionMatch{Raw: raw, Method: MethodUnmatched}

	fr := r.matcher.Match(raw, candidates)
	m.Score = fr.Score
	if fr.Found {
		m.Canonical = fr.Candidate
		m.Method = MethodFuzzy
		m.Ambiguous = fr.Ambiguous
		m.Tied = fr.Tied
	}

	if target, ok := r.overrides.Region(raw); ok {
		m.Method = MethodOverride
		m.Ambiguous, m.Tied = false, nil
		if canon, known := registry.CanonicalRegion(target); known {
			m.Canonical = canon
		} else {
			m.Canonical = target
			report.add(Anomaly{Kind: KindUnknownTarget, Level: LevelRegion, Region: raw, Chosen: target})
		}
		r.logger.Debug("region override applied", zap.String("raw", raw), zap.String("canonical", m.Canonical))
		return m
	}

	switch {
	case !fr.Found:
		report.add(Anomaly{Kind: KindUnmatched, Level: LevelRegion, Region: raw, Score: fr.Score})
		r.logger.Warn("region unmatched", zap.String("raw", raw), zap.Float64("best", fr.Score))
	case fr.Ambiguous:
		report.add(Anomaly{Kind: KindAmbiguous, Level: LevelRegion, Region: raw, Chosen: fr.Candidate, Candidates: fr.Tied, Score: fr.Score})
	}
	return m
}

func (r *Reconciler) resolveSubRegion(registry *geo.Registry, rm RegionMatch, raw string, report *Report) SubRegionMatch {
	m := SubRegionMatch{
		Region:          rm.Raw,
		SubRegion:       raw,
		CanonicalRegion: rm.Canonical,
		Method:          MethodUnmatched,
	}

	var fr match.Result
	if rm.Resolved() {
		fr = r.matcher.Match(raw, registry.SubRegions(rm.Canonical))
		m.Score = fr.Score
		if fr.Found {
			m.CanonicalSubRegion = fr.Candidate
			m.Method = MethodFuzzy
			m.Ambiguous = fr.Ambiguous
			m.Tied = fr.Tied
		}
	}

	target, ok := r.overrides.SubRegion(rm.Raw, raw)
	if !ok && rm.Resolved() {
		target, ok = r.overrides.SubRegion(rm.Canonical, raw)
	}

	switch {
	case ok:
		m.Method = MethodOverride
		m.Ambiguous, m.Tied = false, nil
		if canon, known := registry.CanonicalSubRegion(rm.Canonical, target); known {
			m.CanonicalSubRegion = canon
		} else {
			m.CanonicalSubRegion = target
			if rm.Resolved() {
				report.add(Anomaly{Kind: KindUnknownTarget, Level: LevelSubRegion, Region: rm.Raw, SubRegion: raw, Chosen: target})
			}
		}
	case !fr.Found:
		report.add(Anomaly{Kind: KindUnmatched, Level: LevelSubRegion, Region: rm.Raw, SubRegion: raw, Score: fr.Score})
		r.logger.Debug("sub-region unmatched",
			zap.String("region", rm.Raw), zap.String("raw", raw), zap.Bool("region_resolved", rm.Resolved()))
	case fr.Ambiguous:
		report.add(Anomaly{Kind: KindAmbiguous, Level: LevelSubRegion, Region: rm.Raw, SubRegion: raw, Chosen: fr.Candidate, Candidates: fr.Tied, Score: fr.Score})
	}

	m.Key = geo.JoinKey(m.CanonicalSubRegion, m.CanonicalRegion)
	return m
}
