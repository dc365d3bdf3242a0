package geometry

import "github.com/twpayne/go-geos"

// Vertices returns the boundary vertices of a polygon or multipolygon,
// excluding each ring's closing duplicate vertex. Only exterior rings are
// considered: cadastral boundary markers sit on parcel outlines, not on
// holes.
func (e *Engine) Vertices(g *geos.Geom) (pts []Point, err error) {
	defer catch(&err, "vertices")
	if g == nil || g.IsEmpty() {
		return nil, nil
	}
	switch g.TypeID() {
	case geos.TypeIDPolygon:
		return ringVertices(g.ExteriorRing()), nil
	case geos.TypeIDMultiPolygon, geos.TypeIDGeometryCollection:
		n := g.NumGeometries()
		for i := 0; i < n; i++ {
			sub := g.Geometry(i)
			if sub.TypeID() != geos.TypeIDPolygon {
				continue
			}
			pts = append(pts, ringVertices(sub.ExteriorRing())...)
		}
		return pts, nil
	default:
		return nil, nil
	}
}

// ringVertices extracts ring coordinates, dropping the closing vertex.
func ringVertices(ring *geos.Geom) []Point {
	coords := ring.CoordSeq().ToCoords()
	if len(coords) > 1 {
		coords = coords[:len(coords)-1]
	}
	pts := make([]Point, 0, len(coords))
	for _, c := range coords {
		pts = append(pts, Point{X: c[0], Y: c[1]})
	}
	return pts
}

// LineParts returns the coordinate sequences of a linestring or
// multilinestring, one slice per part.
func (e *Engine) LineParts(g *geos.Geom) (parts [][]Point, err error) {
	defer catch(&err, "line parts")
	if g == nil || g.IsEmpty() {
		return nil, nil
	}
	switch g.TypeID() {
	case geos.TypeIDLineString, geos.TypeIDLinearRing:
		return [][]Point{lineCoords(g)}, nil
	case geos.TypeIDMultiLineString, geos.TypeIDGeometryCollection:
		n := g.NumGeometries()
		for i := 0; i < n; i++ {
			sub := g.Geometry(i)
			switch sub.TypeID() {
			case geos.TypeIDLineString, geos.TypeIDLinearRing:
				parts = append(parts, lineCoords(sub))
			}
		}
		return parts, nil
	default:
		return nil, nil
	}
}

func lineCoords(g *geos.Geom) []Point {
	coords := g.CoordSeq().ToCoords()
	pts := make([]Point, 0, len(coords))
	for _, c := range coords {
		pts = append(pts, Point{X: c[0], Y: c[1]})
	}
	return pts
}

// PointCoord returns the coordinate of a point geometry.
func (e *Engine) PointCoord(g *geos.Geom) (p Point, err error) {
	defer catch(&err, "point coord")
	return Point{X: g.X(), Y: g.Y()}, nil
}

// IsSurface reports whether g is polygonal (a genuine 2-D surface). Used to
// discard degenerate line/point intersection results.
func IsSurface(g *geos.Geom) bool {
	if g == nil || g.IsEmpty() {
		return false
	}
	switch g.TypeID() {
	case geos.TypeIDPolygon, geos.TypeIDMultiPolygon:
		return true
	case geos.TypeIDGeometryCollection:
		n := g.NumGeometries()
		for i := 0; i < n; i++ {
			if IsSurface(g.Geometry(i)) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// IsLineal reports whether g is line-typed. Used to discard point-degenerate
// line intersections.
func IsLineal(g *geos.Geom) bool {
	if g == nil || g.IsEmpty() {
		return false
	}
	switch g.TypeID() {
	case geos.TypeIDLineString, geos.TypeIDLinearRing, geos.TypeIDMultiLineString:
		return true
	case geos.TypeIDGeometryCollection:
		n := g.NumGeometries()
		for i := 0; i < n; i++ {
			if IsLineal(g.Geometry(i)) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
