package index

import (
	"testing"

	"github.com/geodetica/cadscan/pkg/geometry"
)

func TestGridQuery(t *testing.T) {
	g := NewGrid(10)
	g.Insert(1, geometry.Rect{MinX: 0, MinY: 0, MaxX: 5, MaxY: 5})
	g.Insert(2, geometry.Rect{MinX: 4, MinY: 4, MaxX: 12, MaxY: 12})
	g.Insert(3, geometry.Rect{MinX: 100, MinY: 100, MaxX: 105, MaxY: 105})

	tests := []struct {
		name  string
		query geometry.Rect
		want  []int64
	}{
		{"hits two overlapping boxes", geometry.Rect{MinX: 3, MinY: 3, MaxX: 6, MaxY: 6}, []int64{1, 2}},
		{"hits distant box only", geometry.Rect{MinX: 99, MinY: 99, MaxX: 101, MaxY: 101}, []int64{3}},
		{"empty region", geometry.Rect{MinX: 50, MinY: 50, MaxX: 60, MaxY: 60}, nil},
		{"touching edge counts", geometry.Rect{MinX: 5, MinY: 5, MaxX: 7, MaxY: 7}, []int64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Query(tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestGridSpanningManyCells(t *testing.T) {
	g := NewGrid(10)
	// Box spanning many cells must not appear twice in one query.
	g.Insert(1, geometry.Rect{MinX: 0, MinY: 0, MaxX: 95, MaxY: 95})

	got := g.Query(geometry.Rect{MinX: 0, MinY: 0, MaxX: 95, MaxY: 95})
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("got %v, want [1]", got)
	}
}

func TestGridNegativeCoordinates(t *testing.T) {
	g := NewGrid(10)
	g.Insert(1, geometry.Rect{MinX: -25, MinY: -25, MaxX: -15, MaxY: -15})

	got := g.Query(geometry.Rect{MinX: -20, MinY: -20, MaxX: -18, MaxY: -18})
	if len(got) != 1 {
		t.Fatalf("got %v, want [1]", got)
	}
}

func TestPairSet(t *testing.T) {
	p := NewPairSet()
	if !p.Add(3, 7) {
		t.Fatal("first Add returned false")
	}
	if p.Add(7, 3) {
		t.Fatal("reversed pair was added again")
	}
	if !p.Seen(3, 7) || !p.Seen(7, 3) {
		t.Fatal("Seen should hold for both orders")
	}
	if p.Seen(3, 8) {
		t.Fatal("Seen reported an unknown pair")
	}
	if p.Len() != 1 {
		t.Fatalf("Len = %d, want 1", p.Len())
	}
}
