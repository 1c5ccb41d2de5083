package geo

import (
	"strings"

	"github.com/nfhs-dash/internal/normalize"
)

const (
	// Separator joins sub-region and region in composite feature names
	Separator = ","
	// NotAvailable stands in for an unresolved component of a join key
	NotAvailable = "N/A"
)

// Feature is one polygon of the boundary registry. SubRegion and Region
// keep their raw spelling so that JoinKey(SubRegion, Region) == Name for
// two-part names.
type Feature struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SubRegion string `json:"sub_region"`
	Region    string `json:"region,omitempty"`

	// Bounds is [minX, minY, maxX, maxY] of the polygon, when known
	Bounds []float64 `json:"bounds,omitempty"`
}

// ParseName splits a composite display name into its sub-region and
// region components. Components past the second are ignored.
func ParseName(name string) (subRegion, region string) {
	parts := strings.Split(name, Separator)
	subRegion = parts[0]
	if len(parts) > 1 {
		region = parts[1]
	}
	return subRegion, region
}

// NewFeature builds a feature from its id and composite name
func NewFeature(id, name string) Feature {
	sub, region := ParseName(name)
	return Feature{ID: id, Name: name, SubRegion: sub, Region: region}
}

// JoinKey builds the composite key used to join survey rows to features
func JoinKey(subRegion, region string) string {
	if subRegion == "" {
		subRegion = NotAvailable
	}
	if region == "" {
		region = NotAvailable
	}
	return subRegion + Separator + region
}

// Registry is the immutable set of boundary features
type Registry struct {
	features []Feature
	byName   map[string]int
	byKey    map[string]int // JoinKey(SubRegion, Region) -> feature index
	regions  []string
	subs     map[string][]string // region key -> raw sub-regions, first-seen order
	inRegion map[string][]int    // region key -> feature indexes
}

// NewRegistry indexes features; the slice is copied
func NewRegistry(features []Feature) *Registry {
	r := &Registry{
		features: append([]Feature(nil), features...),
		byName:   make(map[string]int, len(features)),
		byKey:    make(map[string]int, len(features)),
		subs:     make(map[string][]string),
		inRegion: make(map[string][]int),
	}

	seenRegion := make(map[string]bool)
	seenSub := make(map[string]bool)
	for i, f := range r.features {
		if _, dup := r.byName[f.Name]; !dup {
			r.byName[f.Name] = i
		}
		if k := JoinKey(f.SubRegion, f.Region); f.Region != "" {
			if _, dup := r.byKey[k]; !dup {
				r.byKey[k] = i
			}
		}

		rk := normalize.Key(f.Region)
		if rk == "" {
			continue
		}
		if !seenRegion[rk] {
			seenRegion[rk] = true
			r.regions = append(r.regions, f.Region)
		}
		r.inRegion[rk] = append(r.inRegion[rk], i)

		sk := rk + "\x00" + normalize.Key(f.SubRegion)
		if !seenSub[sk] && normalize.Key(f.SubRegion) != "" {
			seenSub[sk] = true
			r.subs[rk] = append(r.subs[rk], f.SubRegion)
		}
	}
	return r
}

// Len returns the number of features
func (r *Registry) Len() int {
	return len(r.features)
}

// Features returns every feature in registry order
func (r *Registry) Features() []Feature {
	return append([]Feature(nil), r.features...)
}

// Regions returns the distinct non-empty regions in first-seen order,
// spelled as in the registry
func (r *Registry) Regions() []string {
	return append([]string(nil), r.regions...)
}

// SubRegions returns the distinct sub-regions of a region
func (r *Registry) SubRegions(region string) []string {
	return append([]string(nil), r.subs[normalize.Key(region)]...)
}

// FeaturesIn returns the features belonging to a region
func (r *Registry) FeaturesIn(region string) []Feature {
	idx := r.inRegion[normalize.Key(region)]
	out := make([]Feature, 0, len(idx))
	for _, i := range idx {
		out = append(out, r.features[i])
	}
	return out
}

// Lookup finds a feature by its exact composite name
func (r *Registry) Lookup(name string) (Feature, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Feature{}, false
	}
	return r.features[i], true
}

// ByKey finds a feature by the join key of its first two name components.
// Names with more than two components are reached this way.
func (r *Registry) ByKey(key string) (Feature, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return Feature{}, false
	}
	return r.features[i], true
}

// CanonicalRegion returns the registry spelling of a region name
func (r *Registry) CanonicalRegion(name string) (string, bool) {
	return pick(r.regions, name)
}

// CanonicalSubRegion returns the registry spelling of a sub-region of region
func (r *Registry) CanonicalSubRegion(region, name string) (string, bool) {
	return pick(r.subs[normalize.Key(region)], name)
}

func pick(names []string, name string) (string, bool) {
	key := normalize.Key(name)
	for _, n := range names {
		if normalize.Key(n) == key {
			return n, true
		}
	}
	return "", false
}
