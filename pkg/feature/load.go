package feature

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	cerrors "github.com/geodetica/cadscan/pkg/errors"
	"github.com/geodetica/cadscan/pkg/geometry"
)

// LoadGeoJSON reads a GeoJSON FeatureCollection from path and builds a layer.
// The layer ID is the file name without extension. Features with null or
// empty geometry are kept out of the layer. All geometries must belong to a
// single kind; mixed collections are rejected.
func LoadGeoJSON(eng *geometry.Engine, path string) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cerrors.Wrap(cerrors.ErrCodeFileNotFound, err, "layer file not found: "+path)
		}
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "reading layer file: "+path)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidFormat, err, "parsing GeoJSON: "+path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	kind := KindUnknown
	features := make([]Feature, 0, len(fc.Features))
	for i, gf := range fc.Features {
		if gf.Geometry == nil {
			continue
		}
		k := kindOf(gf.Geometry)
		if k == KindUnknown {
			return nil, cerrors.New(cerrors.ErrCodeInvalidLayer,
				"unsupported geometry type "+string(gf.Geometry.GeoJSONType())+" in "+path)
		}
		if kind == KindUnknown {
			kind = k
		} else if k != kind {
			return nil, cerrors.New(cerrors.ErrCodeInvalidLayer, "mixed geometry types in "+path)
		}

		raw, err := json.Marshal(geojson.NewGeometry(gf.Geometry))
		if err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeInvalidGeometry, err, "encoding geometry")
		}
		geom, err := eng.FromGeoJSON(string(raw))
		if err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeInvalidGeometry, err, "decoding geometry")
		}

		features = append(features, Feature{
			FID:        featureIDOrIndex(gf.ID, i),
			Geom:       geom,
			Attributes: gf.Properties,
		})
	}

	if kind == KindUnknown {
		return nil, cerrors.New(cerrors.ErrCodeInvalidLayer, "no usable geometries in "+path)
	}
	return NewLayer(name, name, kind, features), nil
}

func kindOf(g orb.Geometry) GeometryKind {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return KindPolygon
	case orb.LineString, orb.MultiLineString:
		return KindLine
	case orb.Point, orb.MultiPoint:
		return KindPoint
	default:
		return KindUnknown
	}
}

// featureIDOrIndex resolves a GeoJSON feature ID to a stable int64, falling
// back to the feature's position in the collection.
func featureIDOrIndex(id any, index int) int64 {
	switch t := id.(type) {
	case float64:
		return int64(t)
	case int:
		return int64(t)
	case int64:
		return t
	default:
		return int64(index) + 1
	}
}
