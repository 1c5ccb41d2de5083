package source

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/nfhs-dash/internal/dataset"
	"github.com/nfhs-dash/internal/geo"
)

// DefaultNameProperty is the feature property holding "<district>,<state>"
const DefaultNameProperty = "707_dist_7"

// ReadBoundaries loads boundary features from a GeoJSON FeatureCollection
func ReadBoundaries(path, nameProperty string) ([]geo.Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read boundaries %s: %w", path, err)
	}
	features, err := DecodeBoundaries(tableName(path), data, nameProperty)
	if err != nil {
		return nil, fmt.Errorf("failed to load boundaries %s: %w", path, err)
	}
	return features, nil
}

// DecodeBoundaries parses a FeatureCollection. Every feature must carry the
// name property; features without an id are numbered by position.
func DecodeBoundaries(name string, data []byte, nameProperty string) ([]geo.Feature, error) {
	if nameProperty == "" {
		nameProperty = DefaultNameProperty
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse feature collection: %w", err)
	}

	features := make([]geo.Feature, 0, len(fc.Features))
	for i, f := range fc.Features {
		raw, ok := f.Properties[nameProperty]
		label, isString := raw.(string)
		if !ok || !isString {
			return nil, &dataset.MalformedError{
				Source:   fmt.Sprintf("%s feature %d", name, i),
				Missing:  []string{nameProperty},
				Expected: []string{nameProperty},
			}
		}

		id := f.ID
		if id == "" {
			id = strconv.Itoa(i)
		}
		feature := geo.NewFeature(id, label)
		if f.Geometry != nil {
			b := f.Geometry.Bounds()
			if !b.IsEmpty() {
				feature.Bounds = []float64{b.Min(0), b.Min(1), b.Max(0), b.Max(1)}
			}
		}
		features = append(features, feature)
	}
	return features, nil
}
