// Package geometry wraps the GEOS library behind an engine suited to
// cadastral anomaly detection.
//
// The engine provides the OGC predicates the analyzers depend on - notably
// Overlaps with strict surface semantics (adjacent parcels that only share a
// boundary edge are touching, not overlapping) - plus constructive
// operations, vertex extraction and measurement.
//
// GEOS reports errors on degenerate input by panicking through cgo. Every
// engine call recovers such panics into an error so that a single malformed
// feature can be skipped with a warning instead of aborting a whole analysis
// run.
//
// Measurements are planar by default. For datasets in geographic coordinates
// (lon/lat degrees) the engine can be configured geodesic, in which case
// areas and point distances are computed on the ellipsoid via orb's geo
// functions and returned in m²/m.
package geometry

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-geos"

	cerrors "github.com/geodetica/cadscan/pkg/errors"
)

// Point is a 2-D coordinate.
type Point struct {
	X float64
	Y float64
}

// Engine exposes geometric predicates and measurements over GEOS geometries.
// The zero value is not usable; construct with NewEngine.
//
// The engine is stateless apart from its measurement configuration and safe
// for use by the single analysis worker.
type Engine struct {
	geodesic bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithGeodesic makes area, length and point-distance measurements
// ellipsoid-aware. Use for layers in geographic (lon/lat) coordinates.
func WithGeodesic() Option {
	return func(e *Engine) { e.geodesic = true }
}

// NewEngine creates a geometry engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Geodesic reports whether measurements are ellipsoid-aware.
func (e *Engine) Geodesic() bool { return e.geodesic }

// catch converts a recovered GEOS panic into a structured error.
func catch(err *error, op string) {
	if r := recover(); r != nil {
		*err = cerrors.New(cerrors.ErrCodeGeometryEngine, "%s: %v", op, r)
	}
}

// FromGeoJSON parses a GeoJSON geometry document.
func (e *Engine) FromGeoJSON(doc string) (g *geos.Geom, err error) {
	defer catch(&err, "parse geojson")
	g, err = geos.NewGeomFromGeoJSON(doc)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidGeometry, err, "parse geojson")
	}
	return g, nil
}

// FromWKT parses a WKT geometry.
func (e *Engine) FromWKT(wkt string) (g *geos.Geom, err error) {
	defer catch(&err, "parse wkt")
	g, err = geos.NewGeomFromWKT(wkt)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidGeometry, err, "parse wkt")
	}
	return g, nil
}

// NewPoint builds a point geometry.
func (e *Engine) NewPoint(p Point) (g *geos.Geom, err error) {
	defer catch(&err, "new point")
	return geos.NewPoint([]float64{p.X, p.Y}), nil
}

// NewLine builds a linestring geometry from two or more points.
func (e *Engine) NewLine(pts ...Point) (g *geos.Geom, err error) {
	defer catch(&err, "new line")
	coords := make([][]float64, len(pts))
	for i, p := range pts {
		coords[i] = []float64{p.X, p.Y}
	}
	return geos.NewLineString(coords), nil
}

// Intersects reports whether a and b share any point.
func (e *Engine) Intersects(a, b *geos.Geom) (ok bool, err error) {
	defer catch(&err, "intersects")
	return a.Intersects(b), nil
}

// Overlaps reports the strict OGC overlaps relation: true only when the
// intersection of a and b has the same dimension as the inputs and is not
// equal to either. Touching geometries are not overlapping.
func (e *Engine) Overlaps(a, b *geos.Geom) (ok bool, err error) {
	defer catch(&err, "overlaps")
	return a.Overlaps(b), nil
}

// Touches reports whether a and b share boundary points but no interior.
func (e *Engine) Touches(a, b *geos.Geom) (ok bool, err error) {
	defer catch(&err, "touches")
	return a.Touches(b), nil
}

// Contains reports whether a contains b.
func (e *Engine) Contains(a, b *geos.Geom) (ok bool, err error) {
	defer catch(&err, "contains")
	return a.Contains(b), nil
}

// Intersection computes the geometric intersection of a and b.
func (e *Engine) Intersection(a, b *geos.Geom) (g *geos.Geom, err error) {
	defer catch(&err, "intersection")
	return a.Intersection(b), nil
}

// Difference computes a minus b.
func (e *Engine) Difference(a, b *geos.Geom) (g *geos.Geom, err error) {
	defer catch(&err, "difference")
	return a.Difference(b), nil
}

// IsSimple reports whether g has no anomalous self-intersection.
func (e *Engine) IsSimple(g *geos.Geom) (ok bool, err error) {
	defer catch(&err, "is simple")
	return g.IsSimple(), nil
}

// IsValid reports OGC validity of g.
func (e *Engine) IsValid(g *geos.Geom) (ok bool, err error) {
	defer catch(&err, "is valid")
	return g.IsValid(), nil
}

// MakeValid returns a valid version of g.
func (e *Engine) MakeValid(g *geos.Geom) (out *geos.Geom, err error) {
	defer catch(&err, "make valid")
	return g.MakeValid(), nil
}

// Distance measures the minimum distance between a and b. For point pairs
// under geodesic configuration the distance is computed on the ellipsoid;
// otherwise it is the planar GEOS distance in layer units.
func (e *Engine) Distance(a, b *geos.Geom) (d float64, err error) {
	defer catch(&err, "distance")
	if e.geodesic && a.TypeID() == geos.TypeIDPoint && b.TypeID() == geos.TypeIDPoint {
		return geo.Distance(orb.Point{a.X(), a.Y()}, orb.Point{b.X(), b.Y()}), nil
	}
	return a.Distance(b), nil
}

// Area measures the surface of g: ellipsoidal m² under geodesic
// configuration, planar square layer units otherwise.
func (e *Engine) Area(g *geos.Geom) (a float64, err error) {
	defer catch(&err, "area")
	if e.geodesic {
		og, cerr := e.toOrb(g)
		if cerr != nil {
			return 0, cerr
		}
		return geo.Area(og), nil
	}
	return g.Area(), nil
}

// Length measures the length of g: meters along the ellipsoid under
// geodesic configuration, planar layer units otherwise.
func (e *Engine) Length(g *geos.Geom) (l float64, err error) {
	defer catch(&err, "length")
	if e.geodesic {
		og, cerr := e.toOrb(g)
		if cerr != nil {
			return 0, cerr
		}
		return geo.Length(og), nil
	}
	return g.Length(), nil
}

// SafeArea is Area with failures collapsed to zero, for snapshot capture
// where a degenerate geometry must not abort the pass.
func (e *Engine) SafeArea(g *geos.Geom) float64 {
	if g == nil || g.IsEmpty() {
		return 0
	}
	a, err := e.Area(g)
	if err != nil {
		return 0
	}
	return a
}

// SafeLength is Length with failures collapsed to zero.
func (e *Engine) SafeLength(g *geos.Geom) float64 {
	if g == nil || g.IsEmpty() {
		return 0
	}
	l, err := e.Length(g)
	if err != nil {
		return 0
	}
	return l
}

// ToGeoJSON serializes g as a GeoJSON geometry document.
func (e *Engine) ToGeoJSON(g *geos.Geom) (doc string, err error) {
	defer catch(&err, "to geojson")
	if g == nil || g.IsEmpty() {
		return "", nil
	}
	return g.ToGeoJSON(0), nil
}

// toOrb converts a GEOS geometry to an orb geometry through GeoJSON.
func (e *Engine) toOrb(g *geos.Geom) (orb.Geometry, error) {
	doc, err := e.ToGeoJSON(g)
	if err != nil {
		return nil, err
	}
	var gj geojson.Geometry
	if err := json.Unmarshal([]byte(doc), &gj); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidGeometry, err, "convert geometry")
	}
	return gj.Geometry(), nil
}
