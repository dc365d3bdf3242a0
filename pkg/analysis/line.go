package analysis

import (
	"context"
	"fmt"
	"math"

	cerrors "github.com/geodetica/cadscan/pkg/errors"
	"github.com/geodetica/cadscan/pkg/feature"
	"github.com/geodetica/cadscan/pkg/geometry"
	"github.com/geodetica/cadscan/pkg/index"
	"github.com/geodetica/cadscan/pkg/severity"
)

// LineParams configures line topology detection.
type LineParams struct {
	Profile     severity.Profile
	EpsilonDist float64
}

// collinearDenom is the determinant cutoff below which two segments are
// treated as parallel.
const collinearDenom = 1e-10

// DetectLineSelfIntersections finds lines that cross themselves. Features
// passing the simplicity predicate are skipped outright; the rest get an
// explicit segment-pair search so the reported geometry is the actual
// crossing point, not just a boolean. One finding per feature, located at
// the first interior crossing, classified by the feature's measured length.
func DetectLineSelfIntersections(ctx context.Context, eng *geometry.Engine, snaps []feature.Snapshot, params LineParams) ([]Result, error) {
	eps := params.EpsilonDist
	if eps <= 0 {
		eps = severity.DefaultEpsilonDist
	}

	var results []Result
	for i := range snaps {
		if err := ctx.Err(); err != nil {
			return results, cerrors.Wrap(cerrors.ErrCodeCancelled, err, "line self-intersection detection cancelled")
		}
		s := &snaps[i]
		if !geometry.IsLineal(s.Geom) {
			continue
		}
		simple, err := eng.IsSimple(s.Geom)
		if err != nil || simple {
			continue
		}
		parts, err := eng.LineParts(s.Geom)
		if err != nil {
			continue
		}
		pt, found := firstSelfCrossing(parts)
		if !found {
			continue
		}
		res := Result{
			Kind:     KindLineSelfIntersection,
			IDA:      s.DisplayID,
			LayerA:   s.SourceLayer,
			Measure:  s.Length,
			Severity: severity.ClassifyLineTopology(s.Length, params.Profile, eps),
			Geometry: pointGeoJSON(pt),
		}
		results = append(results, res)
	}
	return results, nil
}

// firstSelfCrossing scans non-adjacent segment pairs of every part for a
// strict interior crossing.
func firstSelfCrossing(parts [][]geometry.Point) (geometry.Point, bool) {
	for _, coords := range parts {
		n := len(coords)
		for i := 0; i+1 < n; i++ {
			for j := i + 2; j+1 < n; j++ {
				if pt, ok := segmentCrossing(coords[i], coords[i+1], coords[j], coords[j+1]); ok {
					return pt, true
				}
			}
		}
	}
	return geometry.Point{}, false
}

// segmentCrossing solves the 2x2 parametric system for segments p1-p2 and
// p3-p4. Only strict interior crossings count; shared endpoints and
// collinear touches are not crossings.
func segmentCrossing(p1, p2, p3, p4 geometry.Point) (geometry.Point, bool) {
	denom := (p1.X-p2.X)*(p3.Y-p4.Y) - (p1.Y-p2.Y)*(p3.X-p4.X)
	if math.Abs(denom) < collinearDenom {
		return geometry.Point{}, false
	}
	t := ((p1.X-p3.X)*(p3.Y-p4.Y) - (p1.Y-p3.Y)*(p3.X-p4.X)) / denom
	u := -((p1.X-p2.X)*(p1.Y-p3.Y) - (p1.Y-p2.Y)*(p1.X-p3.X)) / denom
	if t <= 0 || t >= 1 || u <= 0 || u >= 1 {
		return geometry.Point{}, false
	}
	return geometry.Point{X: p1.X + t*(p2.X-p1.X), Y: p1.Y + t*(p2.Y-p1.Y)}, true
}

// DetectLineOverlaps finds pairs of lines sharing a stretch of path. The
// shared part must be line-typed with length at least the distance epsilon;
// crossings at a single point do not qualify.
func DetectLineOverlaps(ctx context.Context, eng *geometry.Engine, snaps []feature.Snapshot, params LineParams) ([]Result, error) {
	eps := params.EpsilonDist
	if eps <= 0 {
		eps = severity.DefaultEpsilonDist
	}

	grid := index.NewGrid(index.DefaultCellSize)
	byID := make(map[int64]*feature.Snapshot, len(snaps))
	for i := range snaps {
		s := &snaps[i]
		if !geometry.IsLineal(s.Geom) {
			continue
		}
		r, err := eng.BoundsOf(s.Geom)
		if err != nil {
			continue
		}
		grid.Insert(s.FID, r)
		byID[s.FID] = s
	}

	processed := index.NewPairSet()
	var results []Result
	for i := range snaps {
		if err := ctx.Err(); err != nil {
			return results, cerrors.Wrap(cerrors.ErrCodeCancelled, err, "line overlap detection cancelled")
		}
		a := &snaps[i]
		if _, ok := byID[a.FID]; !ok {
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
			b := byID[cid]

			overlaps, err := eng.Overlaps(a.Geom, b.Geom)
			if err != nil || !overlaps {
				continue
			}
			inter, err := eng.Intersection(a.Geom, b.Geom)
			if err != nil || inter == nil {
				continue
			}
			if !geometry.IsLineal(inter) {
				inter.Destroy()
				continue
			}
			length := eng.SafeLength(inter)
			if length < eps {
				inter.Destroy()
				continue
			}
			res := Result{
				Kind:     KindLineOverlap,
				IDA:      a.DisplayID,
				IDB:      b.DisplayID,
				LayerA:   a.SourceLayer,
				LayerB:   b.SourceLayer,
				Measure:  length,
				Severity: severity.ClassifyLineTopology(length, params.Profile, eps),
			}
			if gj, err := eng.ToGeoJSON(inter); err == nil {
				res.Geometry = gj
			}
			inter.Destroy()
			results = append(results, res)
		}
	}
	return results, nil
}

// endpointKey rounds an endpoint to 3 decimals so endpoints within a
// millimeter land in the same bucket. Values rounding to zero are forced
// positive so coordinates straddling an axis do not split into "-0.000"
// and "0.000" buckets.
func endpointKey(p geometry.Point) string {
	return fmt.Sprintf("%.3f,%.3f", roundMM(p.X), roundMM(p.Y))
}

func roundMM(v float64) float64 {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		return 0
	}
	return r
}

// DetectLineDangles finds dangling endpoints: line ends connected to exactly
// one feature. Endpoints are matched on coordinates rounded to 3 decimals.
// At most one finding per feature, fixed Moderate severity.
func DetectLineDangles(ctx context.Context, eng *geometry.Engine, snaps []feature.Snapshot, params LineParams) ([]Result, error) {
	type endpoint struct {
		fid int64
		pt  geometry.Point
	}
	connections := make(map[string][]endpoint)
	lineal := make([]*feature.Snapshot, 0, len(snaps))

	var results []Result
	for i := range snaps {
		if err := ctx.Err(); err != nil {
			return results, cerrors.Wrap(cerrors.ErrCodeCancelled, err, "line dangle detection cancelled")
		}
		s := &snaps[i]
		if !geometry.IsLineal(s.Geom) {
			continue
		}
		parts, err := eng.LineParts(s.Geom)
		if err != nil {
			continue
		}
		lineal = append(lineal, s)
		for _, coords := range parts {
			if len(coords) < 2 {
				continue
			}
			for _, pt := range []geometry.Point{coords[0], coords[len(coords)-1]} {
				k := endpointKey(pt)
				connections[k] = append(connections[k], endpoint{fid: s.FID, pt: pt})
			}
		}
	}

	for _, s := range lineal {
		parts, err := eng.LineParts(s.Geom)
		if err != nil {
			continue
		}
		found := false
		for _, coords := range parts {
			if found || len(coords) < 2 {
				continue
			}
			for _, pt := range []geometry.Point{coords[0], coords[len(coords)-1]} {
				if len(connections[endpointKey(pt)]) != 1 {
					continue
				}
				results = append(results, Result{
					Kind:     KindLineDangle,
					IDA:      s.DisplayID,
					LayerA:   s.SourceLayer,
					Measure:  1,
					Severity: severity.Moderate,
					Geometry: pointGeoJSON(pt),
				})
				found = true
				break
			}
		}
	}
	return results, nil
}

func pointGeoJSON(p geometry.Point) string {
	return fmt.Sprintf(`{"type":"Point","coordinates":[%g,%g]}`, p.X, p.Y)
}
