// Package index provides the bounding-box acceleration structures used to
// cut pairwise geometry comparisons down to plausible candidates.
package index

import (
	"math"
	"sort"

	"github.com/geodetica/cadscan/pkg/geometry"
)

// DefaultCellSize is the grid cell edge used when none is configured. It
// suits parcel-scale data in projected meters.
const DefaultCellSize = 100.0

type cellKey struct{ cx, cy int }

// Grid is a uniform-cell spatial index over feature bounding boxes. Entries
// are bucketed into every cell their box touches; queries return the sorted,
// deduplicated IDs of entries whose cells intersect the query box.
type Grid struct {
	cellSize float64
	cells    map[cellKey][]int64
	bounds   map[int64]geometry.Rect
}

// NewGrid builds a grid index with the given cell size. Non-positive sizes
// fall back to DefaultCellSize.
func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]int64),
		bounds:   make(map[int64]geometry.Rect),
	}
}

// Insert adds an entry under id covering the given bounding box.
func (g *Grid) Insert(id int64, r geometry.Rect) {
	g.bounds[id] = r
	minCX, minCY := g.cellOf(r.MinX, r.MinY)
	maxCX, maxCY := g.cellOf(r.MaxX, r.MaxY)
	for cx := minCX; cx <= maxCX; cx++ {
		for cy := minCY; cy <= maxCY; cy++ {
			k := cellKey{cx, cy}
			g.cells[k] = append(g.cells[k], id)
		}
	}
}

// Query returns the IDs of all entries whose bounding box intersects r,
// sorted ascending with duplicates removed.
func (g *Grid) Query(r geometry.Rect) []int64 {
	minCX, minCY := g.cellOf(r.MinX, r.MinY)
	maxCX, maxCY := g.cellOf(r.MaxX, r.MaxY)
	seen := make(map[int64]struct{})
	var out []int64
	for cx := minCX; cx <= maxCX; cx++ {
		for cy := minCY; cy <= maxCY; cy++ {
			for _, id := range g.cells[cellKey{cx, cy}] {
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				if g.bounds[id].Intersects(r) {
					out = append(out, id)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of indexed entries.
func (g *Grid) Len() int { return len(g.bounds) }

func (g *Grid) cellOf(x, y float64) (int, int) {
	return int(math.Floor(x / g.cellSize)), int(math.Floor(y / g.cellSize))
}
