package etl

import (
	"fmt"
	"sort"
	"time"

	"github.com/nfhs-dash/internal/geo"
	"github.com/nfhs-dash/internal/overrides"
	"github.com/nfhs-dash/internal/reconcile"
	"github.com/nfhs-dash/internal/validation"
	"github.com/nfhs-dash/internal/views"
)

// Snapshot is the frozen outcome of one build. It is never mutated after
// Build returns and can be shared across request goroutines.
type Snapshot struct {
	ID             string
	BuiltAt        time.Time
	Overrides      *overrides.Table
	Registry       *geo.Registry
	Reconciliation *reconcile.Result
	District       validation.Result
	Trend          *validation.Result // nil when no trend source was usable
	Equity         *validation.Result // nil when no equity source was usable
	SourceErrors   map[string]string

	views *views.Builder
}

// Summary is a compact description of a snapshot
type Summary struct {
	ID               string                        `json:"id"`
	BuiltAt          time.Time                     `json:"built_at"`
	OverridesVersion string                        `json:"overrides_version,omitempty"`
	OverridesSource  string                        `json:"overrides_source,omitempty"`
	Overrides        int                           `json:"overrides"`
	Features         int                           `json:"features"`
	Reconciliation   reconcile.Stats               `json:"reconciliation"`
	Anomalies        map[reconcile.AnomalyKind]int `json:"anomalies"`
	Rows             map[string]SourceRows         `json:"rows"`
	SourceErrors     map[string]string             `json:"source_errors,omitempty"`
}

// SourceRows counts the rows of one cleaned source
type SourceRows struct {
	Input    int `json:"input"`
	Kept     int `json:"kept"`
	Rejected int `json:"rejected_cells"`
}

// Views returns the view builder bound to this snapshot
func (s *Snapshot) Views() *views.Builder {
	return s.views
}

// Rejections returns every rejected cell across sources
func (s *Snapshot) Rejections() []validation.Rejection {
	out := append([]validation.Rejection(nil), s.District.Rejected...)
	if s.Trend != nil {
		out = append(out, s.Trend.Rejected...)
	}
	if s.Equity != nil {
		out = append(out, s.Equity.Rejected...)
	}
	return out
}

// Anomalies returns the reconciliation anomalies
func (s *Snapshot) Anomalies() []reconcile.Anomaly {
	if s.Reconciliation == nil {
		return nil
	}
	return s.Reconciliation.Report.Anomalies
}

// Summary describes the snapshot
func (s *Snapshot) Summary() Summary {
	sum := Summary{
		ID:           s.ID,
		BuiltAt:      s.BuiltAt,
		Anomalies:    make(map[reconcile.AnomalyKind]int),
		Rows:         make(map[string]SourceRows),
		SourceErrors: s.SourceErrors,
	}
	if s.Overrides != nil {
		sum.OverridesVersion = s.Overrides.Version
		sum.OverridesSource = s.Overrides.Source
		sum.Overrides = s.Overrides.Len()
	}
	if s.Registry != nil {
		sum.Features = s.Registry.Len()
	}
	if s.Reconciliation != nil {
		sum.Reconciliation = s.Reconciliation.Stats()
		for _, a := range s.Reconciliation.Report.Anomalies {
			sum.Anomalies[a.Kind]++
		}
	}

	sum.Rows["districts"] = rowsOf(s.District)
	if s.Trend != nil {
		sum.Rows["trend"] = rowsOf(*s.Trend)
	}
	if s.Equity != nil {
		sum.Rows["equity"] = rowsOf(*s.Equity)
	}
	return sum
}

// FailedSources lists the optional sources that failed, sorted
func (s *Snapshot) FailedSources() []string {
	names := make([]string, 0, len(s.SourceErrors))
	for n := range s.SourceErrors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Snapshot) addSourceError(name string, err error) {
	if err == nil {
		return
	}
	if s.SourceErrors == nil {
		s.SourceErrors = make(map[string]string)
	}
	if prev, ok := s.SourceErrors[name]; ok {
		s.SourceErrors[name] = fmt.Sprintf("%s; %v", prev, err)
		return
	}
	s.SourceErrors[name] = err.Error()
}

func rowsOf(r validation.Result) SourceRows {
	return SourceRows{Input: r.Input, Kept: r.Kept, Rejected: len(r.Rejected)}
}
