package geometry

import "github.com/twpayne/go-geos"

// Rect is an axis-aligned bounding box in layer coordinates.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Expand grows the rect by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{MinX: r.MinX - d, MinY: r.MinY - d, MaxX: r.MaxX + d, MaxY: r.MaxY + d}
}

// Intersects reports whether r and other share any area or edge.
func (r Rect) Intersects(other Rect) bool {
	return r.MinX <= other.MaxX && other.MinX <= r.MaxX &&
		r.MinY <= other.MaxY && other.MinY <= r.MaxY
}

// BoundsOf returns the bounding box of g.
func (e *Engine) BoundsOf(g *geos.Geom) (r Rect, err error) {
	defer catch(&err, "bounds")
	b := g.Bounds()
	return Rect{MinX: b.MinX, MinY: b.MinY, MaxX: b.MaxX, MaxY: b.MaxY}, nil
}
