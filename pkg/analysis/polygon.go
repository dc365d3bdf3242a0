package analysis

import (
	"context"
	"strconv"

	cerrors "github.com/geodetica/cadscan/pkg/errors"
	"github.com/geodetica/cadscan/pkg/feature"
	"github.com/geodetica/cadscan/pkg/geometry"
	"github.com/geodetica/cadscan/pkg/index"
	"github.com/geodetica/cadscan/pkg/severity"
)

// PolygonOverlapParams configures polygon overlap detection.
type PolygonOverlapParams struct {
	Profile     severity.Profile
	EpsilonArea float64
}

// DetectPolygonOverlaps finds pairs of surface features whose interiors
// intersect. Pairs from the same source layer yield self_overlap findings,
// pairs from different sources inter_layer_overlap. Touching boundaries do
// not count, and intersections below the area epsilon are discarded as
// numeric noise. Pairs whose geometry operations fail are skipped so one
// corrupt feature cannot sink the run.
func DetectPolygonOverlaps(ctx context.Context, eng *geometry.Engine, snaps []feature.Snapshot, params PolygonOverlapParams) ([]Result, error) {
	eps := params.EpsilonArea
	if eps <= 0 {
		eps = severity.DefaultEpsilonArea
	}

	grid := index.NewGrid(index.DefaultCellSize)
	byID := make(map[int64]*feature.Snapshot, len(snaps))
	for i := range snaps {
		s := &snaps[i]
		if !geometry.IsSurface(s.Geom) {
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
			return results, cerrors.Wrap(cerrors.ErrCodeCancelled, err, "polygon overlap detection cancelled")
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
			if res, ok := checkOverlapPair(eng, a, b, params.Profile, eps); ok {
				results = append(results, res)
			}
		}
	}
	return results, nil
}

func checkOverlapPair(eng *geometry.Engine, a, b *feature.Snapshot, p severity.Profile, eps float64) (Result, bool) {
	overlaps, err := eng.Overlaps(a.Geom, b.Geom)
	if err != nil || !overlaps {
		return Result{}, false
	}
	inter, err := eng.Intersection(a.Geom, b.Geom)
	if err != nil || inter == nil {
		return Result{}, false
	}
	defer inter.Destroy()

	if !geometry.IsSurface(inter) {
		return Result{}, false
	}
	area := eng.SafeArea(inter)
	if area < eps {
		return Result{}, false
	}
	sev, details := severity.ClassifyPolygonOverlap(area, a.Area, b.Area, p, eps)

	kind := KindInterLayerOverlap
	if a.SourceLayer == b.SourceLayer {
		kind = KindSelfOverlap
	}
	res := Result{
		Kind:     kind,
		IDA:      a.DisplayID,
		IDB:      b.DisplayID,
		LayerA:   a.SourceLayer,
		LayerB:   b.SourceLayer,
		Measure:  area,
		Ratio:    details.Ratio,
		Severity: sev,
	}
	if gj, err := eng.ToGeoJSON(inter); err == nil {
		res.Geometry = gj
	}
	if details.AbsSeverity != nil {
		res.Details = map[string]string{
			"small_area_severity": details.AbsSeverity.String(),
			"min_source_area":     strconv.FormatFloat(details.MinSourceArea, 'f', -1, 64),
		}
	}
	return res, true
}
