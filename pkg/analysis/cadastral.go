package analysis

import (
	"context"
	"math"
	"strconv"

	cerrors "github.com/geodetica/cadscan/pkg/errors"
	"github.com/geodetica/cadscan/pkg/feature"
	"github.com/geodetica/cadscan/pkg/geometry"
	"github.com/geodetica/cadscan/pkg/index"
	"github.com/geodetica/cadscan/pkg/severity"
)

// CadastralTolerance is the coordinate agreement tolerance between a survey
// point and its parcel vertex, one millimeter in projected meters.
const CadastralTolerance = 0.001

// boundaryLengthGate filters out degenerate shared boundaries that are
// really just corner touches.
const boundaryLengthGate = 0.001

// CadastralParams configures the point-to-polygon topology checks.
type CadastralParams struct {
	Tolerance float64
}

func (p CadastralParams) tolerance() float64 {
	if p.Tolerance <= 0 {
		return CadastralTolerance
	}
	return p.Tolerance
}

// DetectCadastralTopology runs the four point-to-polygon structure checks:
// orphan points whose ID matches no parcel, parcels whose vertex count
// disagrees with their marker count, markers not coinciding with any vertex
// of their parcel, and touching parcel pairs whose shared boundary is missing
// from either vertex set. Matching is by display ID, so both layers must
// have their ID fields resolved before capture.
func DetectCadastralTopology(ctx context.Context, eng *geometry.Engine, points, polygons []feature.Snapshot, params CadastralParams) ([]Result, error) {
	tol := params.tolerance()

	polyByID := make(map[string]*feature.Snapshot, len(polygons))
	polyVertices := make(map[string][]geometry.Point, len(polygons))
	for i := range polygons {
		p := &polygons[i]
		if !geometry.IsSurface(p.Geom) {
			continue
		}
		verts, err := eng.Vertices(p.Geom)
		if err != nil {
			continue
		}
		polyByID[p.DisplayID] = p
		polyVertices[p.DisplayID] = verts
	}

	pointsByID := make(map[string][]*feature.Snapshot)
	var results []Result

	// Orphans and coordinate precision, one pass over the points.
	for i := range points {
		if err := ctx.Err(); err != nil {
			return results, cerrors.Wrap(cerrors.ErrCodeCancelled, err, "cadastral topology detection cancelled")
		}
		pt := &points[i]
		coord, err := eng.PointCoord(pt.Geom)
		if err != nil {
			continue
		}

		verts, matched := polyVertices[pt.DisplayID]
		if !matched {
			results = append(results, Result{
				Kind:     KindOrphanPoint,
				IDA:      pt.DisplayID,
				LayerA:   pt.SourceLayer,
				Measure:  1,
				Severity: severity.Critical,
				Geometry: pointGeoJSON(coord),
			})
			continue
		}
		pointsByID[pt.DisplayID] = append(pointsByID[pt.DisplayID], pt)

		if d, ok := nearestVertexDistance(coord, verts); !ok || d > tol {
			res := Result{
				Kind:     KindPointVertexMismatch,
				IDA:      pt.DisplayID,
				LayerA:   pt.SourceLayer,
				Measure:  d,
				Severity: severity.Critical,
				Geometry: pointGeoJSON(coord),
			}
			results = append(results, res)
		}
	}

	// Vertex count parity per parcel.
	for i := range polygons {
		if err := ctx.Err(); err != nil {
			return results, cerrors.Wrap(cerrors.ErrCodeCancelled, err, "cadastral topology detection cancelled")
		}
		p := &polygons[i]
		verts, ok := polyVertices[p.DisplayID]
		if !ok {
			continue
		}
		expected := len(verts)
		actual := len(pointsByID[p.DisplayID])
		if expected == actual {
			continue
		}
		results = append(results, Result{
			Kind:     KindVertexCountMismatch,
			IDA:      p.DisplayID,
			LayerA:   p.SourceLayer,
			Measure:  math.Abs(float64(expected - actual)),
			Severity: severity.High,
			Details: map[string]string{
				"expected_vertices": strconv.Itoa(expected),
				"matched_points":    strconv.Itoa(actual),
			},
		})
	}

	shared, err := detectSharedVertexGaps(ctx, eng, polygons, polyVertices, tol)
	return append(results, shared...), err
}

// detectSharedVertexGaps checks every touching parcel pair: each vertex of
// the shared boundary must appear in both parcels' vertex sets, otherwise
// the shared edge was digitized independently on each side.
func detectSharedVertexGaps(ctx context.Context, eng *geometry.Engine, polygons []feature.Snapshot, polyVertices map[string][]geometry.Point, tol float64) ([]Result, error) {
	grid := index.NewGrid(index.DefaultCellSize)
	byFID := make(map[int64]*feature.Snapshot, len(polygons))
	for i := range polygons {
		p := &polygons[i]
		if _, ok := polyVertices[p.DisplayID]; !ok {
			continue
		}
		r, err := eng.BoundsOf(p.Geom)
		if err != nil {
			continue
		}
		grid.Insert(p.FID, r)
		byFID[p.FID] = p
	}

	processed := index.NewPairSet()
	var results []Result
	for i := range polygons {
		if err := ctx.Err(); err != nil {
			return results, cerrors.Wrap(cerrors.ErrCodeCancelled, err, "shared vertex detection cancelled")
		}
		a := &polygons[i]
		if _, ok := byFID[a.FID]; !ok {
			continue
		}
		r, err := eng.BoundsOf(a.Geom)
		if err != nil {
			continue
		}
		for _, cid := range grid.Query(r) {
			if cid <= a.FID {
				continue
			}
			if !processed.Add(a.FID, cid) {
				continue
			}
			b := byFID[cid]

			touches, err := eng.Touches(a.Geom, b.Geom)
			if err != nil || !touches {
				continue
			}
			boundary, err := eng.Intersection(a.Geom, b.Geom)
			if err != nil || boundary == nil {
				continue
			}
			if eng.SafeLength(boundary) < boundaryLengthGate {
				boundary.Destroy()
				continue
			}
			parts, err := eng.LineParts(boundary)
			if err != nil {
				boundary.Destroy()
				continue
			}

			missing := 0
			for _, coords := range parts {
				for _, pt := range coords {
					inA := vertexWithin(pt, polyVertices[a.DisplayID], tol)
					inB := vertexWithin(pt, polyVertices[b.DisplayID], tol)
					if !inA || !inB {
						missing++
					}
				}
			}
			if missing > 0 {
				res := Result{
					Kind:     KindSharedVertexMissing,
					IDA:      a.DisplayID,
					IDB:      b.DisplayID,
					LayerA:   a.SourceLayer,
					LayerB:   b.SourceLayer,
					Measure:  float64(missing),
					Severity: severity.High,
				}
				if gj, err := eng.ToGeoJSON(boundary); err == nil {
					res.Geometry = gj
				}
				results = append(results, res)
			}
			boundary.Destroy()
		}
	}
	return results, nil
}

func nearestVertexDistance(p geometry.Point, verts []geometry.Point) (float64, bool) {
	if len(verts) == 0 {
		return 0, false
	}
	best := math.Inf(1)
	for _, v := range verts {
		if d := math.Hypot(p.X-v.X, p.Y-v.Y); d < best {
			best = d
		}
	}
	return best, true
}

func vertexWithin(p geometry.Point, verts []geometry.Point, tol float64) bool {
	for _, v := range verts {
		if math.Hypot(p.X-v.X, p.Y-v.Y) <= tol {
			return true
		}
	}
	return false
}
