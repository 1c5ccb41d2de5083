package reconcile

import "fmt"

// Method records how a canonical name was chosen
type Method string

const (
	MethodFuzzy     Method = "fuzzy"
	MethodOverride  Method = "override"
	MethodUnmatched Method = "unmatched"
)

// RegionMatch is the resolution of one distinct raw region name
type RegionMatch struct {
	Raw       string   `json:"raw"`
	Canonical string   `json:"canonical,omitempty"`
	Method    Method   `json:"method"`
	Score     float64  `json:"score"`
	Ambiguous bool     `json:"ambiguous,omitempty"`
	Tied      []string `json:"tied,omitempty"`
}

// Resolved reports whether the region has a canonical name
func (m RegionMatch) Resolved() bool {
	return m.Canonical != ""
}

// SubRegionMatch is the resolution of one distinct (region, sub-region) pair
type SubRegionMatch struct {
	Region             string   `json:"region"`
	SubRegion          string   `json:"sub_region"`
	CanonicalRegion    string   `json:"canonical_region,omitempty"`
	CanonicalSubRegion string   `json:"canonical_sub_region,omitempty"`
	Key                string   `json:"key"`
	Method             Method   `json:"method"`
	Score              float64  `json:"score"`
	Ambiguous          bool     `json:"ambiguous,omitempty"`
	Tied               []string `json:"tied,omitempty"`
}

// GeoKey returns the join key into the boundary registry. The key is not
// usable (false) when either component is unresolved.
func (m SubRegionMatch) GeoKey() (string, bool) {
	if m.CanonicalRegion == "" || m.CanonicalSubRegion == "" {
		return m.Key, false
	}
	return m.Key, true
}

// Pair is a raw (region, sub-region) combination found in survey data
type Pair struct {
	Region    string `json:"region"`
	SubRegion string `json:"sub_region"`
}

// AnomalyKind classifies a reconciliation problem for operator review
type AnomalyKind string

const (
	KindUnmatched     AnomalyKind = "unmatched"
	KindAmbiguous     AnomalyKind = "ambiguous"
	KindUnknownTarget AnomalyKind = "override_target_unknown"
)

// Level says which component an anomaly concerns
type Level string

const (
	LevelRegion    Level = "region"
	LevelSubRegion Level = "sub_region"
)

// Anomaly is one entry of the reconciliation report
type Anomaly struct {
	Kind       AnomalyKind `json:"kind"`
	Level      Level       `json:"level"`
	Region     string      `json:"region"`
	SubRegion  string      `json:"sub_region,omitempty"`
	Chosen     string      `json:"chosen,omitempty"`
	Candidates []string    `json:"candidates,omitempty"`
	Score      float64     `json:"score"`
}

func (a Anomaly) String() string {
	name := a.Region
	if a.Level == LevelSubRegion {
		name = a.SubRegion + " in " + a.Region
	}
	switch a.Kind {
	case KindAmbiguous:
		return fmt.Sprintf("%s %q: chose %q over tied %v (score %.3f)", a.Level, name, a.Chosen, a.Candidates, a.Score)
	case KindUnknownTarget:
		return fmt.Sprintf("%s %q: override target %q is not in the boundary registry", a.Level, name, a.Chosen)
	}
	return fmt.Sprintf("%s %q: no candidate reached the cutoff (best %.3f)", a.Level, name, a.Score)
}

// Report lists every anomaly found while reconciling
type Report struct {
	Anomalies []Anomaly `json:"anomalies"`
}

func (r *Report) add(a Anomaly) {
	r.Anomalies = append(r.Anomalies, a)
}

// Count returns the number of anomalies of a kind
func (r Report) Count(kind AnomalyKind) int {
	n := 0
	for _, a := range r.Anomalies {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Of returns the anomalies of a kind in report order
func (r Report) Of(kind AnomalyKind) []Anomaly {
	var out []Anomaly
	for _, a := range r.Anomalies {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// Result holds the frozen match tables of one reconciliation run
type Result struct {
	Regions    []RegionMatch    `json:"regions"`
	SubRegions []SubRegionMatch `json:"sub_regions"`
	Report     Report           `json:"report"`

	regionIdx map[string]int
	pairIdx   map[Pair]int
}

// Region returns the match for a raw region name
func (r *Result) Region(raw string) (RegionMatch, bool) {
	i, ok := r.regionIdx[raw]
	if !ok {
		return RegionMatch{}, false
	}
	return r.Regions[i], true
}

// Lookup returns the match for a raw (region, sub-region) pair
func (r *Result) Lookup(region, subRegion string) (SubRegionMatch, bool) {
	i, ok := r.pairIdx[Pair{region, subRegion}]
	if !ok {
		return SubRegionMatch{}, false
	}
	return r.SubRegions[i], true
}

// Stats counts matches by method
type Stats struct {
	Regions    map[Method]int `json:"regions"`
	SubRegions map[Method]int `json:"sub_regions"`
	Keyed      int            `json:"keyed"`
}

// Stats summarises the result
func (r *Result) Stats() Stats {
	s := Stats{Regions: map[Method]int{}, SubRegions: map[Method]int{}}
	for _, m := range r.Regions {
		s.Regions[m.Method]++
	}
	for _, m := range r.SubRegions {
		s.SubRegions[m.Method]++
		if _, ok := m.GeoKey(); ok {
			s.Keyed++
		}
	}
	return s
}

func newResult() *Result {
	return &Result{
		regionIdx: make(map[string]int),
		pairIdx:   make(map[Pair]int),
	}
}

func (r *Result) addRegion(m RegionMatch) {
	r.regionIdx[m.Raw] = len(r.Regions)
	r.Regions = append(r.Regions, m)
}

func (r *Result) addSubRegion(m SubRegionMatch) {
	r.pairIdx[Pair{m.Region, m.SubRegion}] = len(r.SubRegions)
	r.SubRegions = append(r.SubRegions, m)
}
