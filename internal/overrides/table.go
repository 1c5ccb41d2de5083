package overrides

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/nfhs-dash/internal/normalize"
)

//go:embed default.yaml
var defaultTable []byte

// SubRegionOverride forces the canonical sub-region for a raw sub-region
// name. Region is optional; when set the entry only applies inside it.
type SubRegionOverride struct {
	Region    string `yaml:"region,omitempty" json:"region,omitempty"`
	SubRegion string `yaml:"sub_region" json:"sub_region"`
	Target    string `yaml:"target" json:"target"`
}

// Table is a versioned set of manual corrections. Tables are treated as
// immutable once parsed; Merge returns a new table.
type Table struct {
	Version    string                       `yaml:"version" json:"version"`
	Regions    map[string]string            `yaml:"regions,omitempty" json:"regions,omitempty"`
	SubRegions []SubRegionOverride          `yaml:"sub_regions,omitempty" json:"sub_regions,omitempty"`
	Aliases    map[string]map[string]string `yaml:"aliases,omitempty" json:"aliases,omitempty"`

	// Source is where the table was read from, for reports
	Source string `yaml:"-" json:"source,omitempty"`
}

// Default returns the built-in correction table
func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("embedded override table is invalid: %v", err))
	}
	t.Source = "builtin"
	return t
}

// Empty returns a table with no corrections
func Empty() *Table {
	return &Table{}
}

// Load reads an override table from a YAML file
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read override table: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load override table %s: %w", path, err)
	}
	t.Source = path
	return t, nil
}

// Parse decodes and validates a YAML override table
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse override table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate rejects empty names and entries that collide after normalization
func (t *Table) Validate() error {
	seen := make(map[string]string, len(t.Regions))
	for raw, target := range t.Regions {
		key := normalize.Key(raw)
		if key == "" || normalize.Key(target) == "" {
			return fmt.Errorf("region override %q -> %q has an empty name", raw, target)
		}
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("region overrides %q and %q collide", prev, raw)
		}
		seen[key] = raw
	}

	subs := make(map[string]bool, len(t.SubRegions))
	for _, o := range t.SubRegions {
		if normalize.Key(o.SubRegion) == "" || normalize.Key(o.Target) == "" {
			return fmt.Errorf("sub-region override %q -> %q has an empty name", o.SubRegion, o.Target)
		}
		k := subKey(o.Region, o.SubRegion)
		if subs[k] {
			return fmt.Errorf("duplicate sub-region override for %q in region %q", o.SubRegion, o.Region)
		}
		subs[k] = true
	}

	for column := range t.Aliases {
		if column == "" {
			return fmt.Errorf("alias map with an empty column name")
		}
	}
	return nil
}

// Region returns the forced canonical region for a raw region name
func (t *Table) Region(raw string) (string, bool) {
	if t == nil {
		return "", false
	}
	key := normalize.Key(raw)
	for from, target := range t.Regions {
		if normalize.Key(from) == key {
			return target, true
		}
	}
	return "", false
}

// SubRegion returns the forced canonical sub-region for a raw sub-region
// name inside region. Entries scoped to region beat unscoped ones.
func (t *Table) SubRegion(region, sub string) (string, bool) {
	if t == nil {
		return "", false
	}
	regionKey, want := normalize.Key(region), normalize.Key(sub)

	unscoped, found := "", false
	for _, o := range t.SubRegions {
		if normalize.Key(o.SubRegion) != want {
			continue
		}
		if o.Region == "" {
			if !found {
				unscoped, found = o.Target, true
			}
			continue
		}
		if normalize.Key(o.Region) == regionKey {
			return o.Target, true
		}
	}
	return unscoped, found
}

// AliasesFor returns the value replacements configured for a column
func (t *Table) AliasesFor(column string) map[string]string {
	if t == nil {
		return nil
	}
	return t.Aliases[column]
}

// Len returns the number of region and sub-region corrections
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Regions) + len(t.SubRegions)
}

// Merge returns a new table where entries of other replace entries of t
// that share the same normalized name
func (t *Table) Merge(other *Table) *Table {
	out := &Table{
		Regions: make(map[string]string),
		Aliases: make(map[string]map[string]string),
	}
	for _, src := range []*Table{t, other} {
		if src == nil {
			continue
		}
		if src.Version != "" {
			out.Version = src.Version
		}
		if src.Source != "" {
			out.Source = src.Source
		}
		for raw, target := range src.Regions {
			for existing := range out.Regions {
				if normalize.Key(existing) == normalize.Key(raw) {
					delete(out.Regions, existing)
				}
			}
			out.Regions[raw] = target
		}
		for _, o := range src.SubRegions {
			out.SubRegions = replaceSub(out.SubRegions, o)
		}
		for column, m := range src.Aliases {
			dst := out.Aliases[column]
			if dst == nil {
				dst = make(map[string]string, len(m))
				out.Aliases[column] = dst
			}
			for from, to := range m {
				dst[from] = to
			}
		}
	}
	return out
}

// RegionNames returns the raw region names with a correction, sorted
func (t *Table) RegionNames() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.Regions))
	for raw := range t.Regions {
		names = append(names, raw)
	}
	sort.Strings(names)
	return names
}

func replaceSub(list []SubRegionOverride, o SubRegionOverride) []SubRegionOverride {
	k := subKey(o.Region, o.SubRegion)
	for i := range list {
		if subKey(list[i].Region, list[i].SubRegion) == k {
			list[i] = o
			return list
		}
	}
	return append(list, o)
}

func subKey(region, sub string) string {
	return normalize.Key(region) + "\x00" + normalize.Key(sub)
}
