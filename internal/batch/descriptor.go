// Package batch handles the GeoJSON batch descriptor: the ordered
// collection of features naming the input rasters of a run, and the
// output descriptor produced alongside the sharpened rasters.
package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"
)

// DescriptorName is the well-known descriptor filename inside the input
// and output roots.
const DescriptorName = "data.json"

// DataPathKey is the feature property naming the raster file relative
// to its data root.
const DataPathKey = "pipeline.data.path"

// Property keys under these prefixes are internal pipeline bookkeeping
// and are stripped when metadata is propagated to output features.
var reservedPrefixes = []string{"pipeline.", "custom."}

// Load reads the descriptor from dir. A missing descriptor yields an
// empty collection rather than an error, so a run over an empty input
// root is a no-op.
func Load(dir string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(filepath.Join(dir, DescriptorName))
	if os.IsNotExist(err) {
		return geojson.NewFeatureCollection(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read batch descriptor: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse batch descriptor: %w", err)
	}
	return fc, nil
}

// Save writes the descriptor into dir.
func Save(dir string, fc *geojson.FeatureCollection) error {
	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("encode batch descriptor: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, DescriptorName), data, 0o644); err != nil {
		return fmt.Errorf("write batch descriptor: %w", err)
	}
	return nil
}

// DataPath returns the feature's raster path relative to its data root.
func DataPath(f *geojson.Feature) (string, error) {
	v, ok := f.Properties[DataPathKey]
	if !ok {
		return "", fmt.Errorf("feature has no %q property", DataPathKey)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("feature property %q is not a usable path (got %T)", DataPathKey, v)
	}
	return s, nil
}

// OutputFeature derives the output record for a processed input
// feature: it keeps the input geometry and bounding box, propagates all
// metadata except reserved-namespace keys, and records the output
// raster's relative path.
func OutputFeature(in *geojson.Feature, relPath string) *geojson.Feature {
	out := geojson.NewFeature(in.Geometry)
	out.BBox = in.BBox
	for k, v := range in.Properties {
		if reserved(k) {
			continue
		}
		out.Properties[k] = v
	}
	out.Properties[DataPathKey] = relPath
	return out
}

func reserved(key string) bool {
	for _, p := range reservedPrefixes {
		if len(key) >= len(p) && key[:len(p)] == p {
			return true
		}
	}
	return false
}
