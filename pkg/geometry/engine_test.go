package geometry

import (
	"math"
	"testing"
)

func TestOverlapsExcludesTouching(t *testing.T) {
	e := NewEngine()

	left, err := e.FromWKT("POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))")
	if err != nil {
		t.Fatalf("FromWKT: %v", err)
	}
	adjacent, err := e.FromWKT("POLYGON((10 0, 20 0, 20 10, 10 10, 10 0))")
	if err != nil {
		t.Fatalf("FromWKT: %v", err)
	}
	overlapping, err := e.FromWKT("POLYGON((5 0, 15 0, 15 10, 5 10, 5 0))")
	if err != nil {
		t.Fatalf("FromWKT: %v", err)
	}

	// Adjacent parcels share a boundary edge: intersecting and touching,
	// never overlapping.
	if ok, _ := e.Intersects(left, adjacent); !ok {
		t.Error("adjacent parcels should intersect")
	}
	if ok, _ := e.Touches(left, adjacent); !ok {
		t.Error("adjacent parcels should touch")
	}
	if ok, _ := e.Overlaps(left, adjacent); ok {
		t.Error("adjacent parcels must not overlap")
	}

	if ok, _ := e.Overlaps(left, overlapping); !ok {
		t.Error("half-shifted parcel should overlap")
	}
}

func TestIntersectionArea(t *testing.T) {
	e := NewEngine()
	a, _ := e.FromWKT("POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))")
	b, _ := e.FromWKT("POLYGON((4 0, 24 0, 24 20, 4 20, 4 0))")

	inter, err := e.Intersection(a, b)
	if err != nil {
		t.Fatalf("Intersection: %v", err)
	}
	if !IsSurface(inter) {
		t.Fatal("intersection of overlapping squares should be a surface")
	}
	area, err := e.Area(inter)
	if err != nil {
		t.Fatalf("Area: %v", err)
	}
	if math.Abs(area-60) > 1e-9 {
		t.Errorf("intersection area = %v, want 60", area)
	}
}

func TestContainsAndDifference(t *testing.T) {
	e := NewEngine()
	parcel, _ := e.FromWKT("POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))")
	inner, _ := e.FromWKT("POLYGON((2 2, 4 2, 4 4, 2 4, 2 2))")

	if ok, _ := e.Contains(parcel, inner); !ok {
		t.Error("parcel should contain the inner polygon")
	}
	if ok, _ := e.Contains(inner, parcel); ok {
		t.Error("inner polygon must not contain the parcel")
	}

	diff, err := e.Difference(parcel, inner)
	if err != nil {
		t.Fatalf("Difference: %v", err)
	}
	area, _ := e.Area(diff)
	if math.Abs(area-96) > 1e-9 {
		t.Errorf("difference area = %v, want 96", area)
	}
}

func TestMakeValidRepairsBowtie(t *testing.T) {
	e := NewEngine()
	bowtie, _ := e.FromWKT("POLYGON((0 0, 10 10, 10 0, 0 10, 0 0))")

	if ok, _ := e.IsValid(bowtie); ok {
		t.Fatal("self-crossing ring reported valid")
	}
	fixed, err := e.MakeValid(bowtie)
	if err != nil {
		t.Fatalf("MakeValid: %v", err)
	}
	if ok, _ := e.IsValid(fixed); !ok {
		t.Error("repaired geometry still invalid")
	}
}

func TestVerticesExcludeClosure(t *testing.T) {
	e := NewEngine()
	g, _ := e.FromWKT("POLYGON((0 0, 4 0, 4 3, 2 5, 0 3, 0 0))")

	pts, err := e.Vertices(g)
	if err != nil {
		t.Fatalf("Vertices: %v", err)
	}
	if len(pts) != 5 {
		t.Fatalf("vertex count = %d, want 5 (closing vertex excluded)", len(pts))
	}
	if pts[0] != (Point{0, 0}) || pts[4] != (Point{0, 3}) {
		t.Errorf("unexpected vertex order: %v", pts)
	}
}

func TestLineParts(t *testing.T) {
	e := NewEngine()
	g, _ := e.FromWKT("MULTILINESTRING((0 0, 1 1), (2 2, 3 3, 4 4))")

	parts, err := e.LineParts(g)
	if err != nil {
		t.Fatalf("LineParts: %v", err)
	}
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 3 {
		t.Errorf("unexpected parts: %v", parts)
	}
}

func TestIsSimple(t *testing.T) {
	e := NewEngine()

	bowtie, _ := e.FromWKT("LINESTRING(0 0, 10 10, 10 0, 0 10)")
	if ok, _ := e.IsSimple(bowtie); ok {
		t.Error("self-crossing line reported simple")
	}

	straight, _ := e.FromWKT("LINESTRING(0 0, 5 0, 10 0)")
	if ok, _ := e.IsSimple(straight); !ok {
		t.Error("straight line reported non-simple")
	}
}

func TestDistancePlanar(t *testing.T) {
	e := NewEngine()
	a, _ := e.NewPoint(Point{0, 0})
	b, _ := e.NewPoint(Point{3, 4})

	d, err := e.Distance(a, b)
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if math.Abs(d-5) > 1e-12 {
		t.Errorf("distance = %v, want 5", d)
	}
}

func TestDistanceGeodesic(t *testing.T) {
	e := NewEngine(WithGeodesic())
	// One degree of latitude is about 111 km.
	a, _ := e.NewPoint(Point{2.35, 48.85})
	b, _ := e.NewPoint(Point{2.35, 49.85})

	d, err := e.Distance(a, b)
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if d < 110_000 || d > 112_000 {
		t.Errorf("geodesic distance = %v, want ~111km", d)
	}
}

func TestRectIntersects(t *testing.T) {
	a := Rect{0, 0, 10, 10}
	if !a.Intersects(Rect{5, 5, 15, 15}) {
		t.Error("overlapping rects should intersect")
	}
	if !a.Intersects(Rect{10, 0, 20, 10}) {
		t.Error("edge-sharing rects should intersect")
	}
	if a.Intersects(Rect{11, 11, 20, 20}) {
		t.Error("disjoint rects should not intersect")
	}

	grown := a.Expand(2)
	if grown.MinX != -2 || grown.MaxY != 12 {
		t.Errorf("Expand wrong: %+v", grown)
	}
}
