package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	cerrors "github.com/geodetica/cadscan/pkg/errors"
	"github.com/geodetica/cadscan/pkg/feature"
	"github.com/geodetica/cadscan/pkg/geometry"
	"github.com/geodetica/cadscan/pkg/index"
	"github.com/geodetica/cadscan/pkg/severity"
)

// DuplicateThreshold is the distance under which two points of a group are
// the same surveyed point, one millimeter in projected meters.
const DuplicateThreshold = 0.001

// PointParams configures point proximity and duplicate detection.
type PointParams struct {
	Profile     severity.Profile
	EpsilonDist float64

	// MinDistance and MaxDistance bound the proximity search window.
	MinDistance float64
	MaxDistance float64
}

// DetectPointProximity finds pairs of points whose separation falls inside
// the configured window. The candidate search expands each point's box by
// the maximum distance; the reported geometry is the connecting segment.
func DetectPointProximity(ctx context.Context, eng *geometry.Engine, snaps []feature.Snapshot, params PointParams) ([]Result, error) {
	eps := params.EpsilonDist
	if eps <= 0 {
		eps = severity.DefaultEpsilonDist
	}
	maxDist := params.MaxDistance
	if maxDist <= 0 {
		maxDist = params.Profile.Points.Moderate
	}

	grid := index.NewGrid(index.DefaultCellSize)
	byID := make(map[int64]*feature.Snapshot, len(snaps))
	for i := range snaps {
		s := &snaps[i]
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
			return results, cerrors.Wrap(cerrors.ErrCodeCancelled, err, "point proximity detection cancelled")
		}
		a := &snaps[i]
		if _, ok := byID[a.FID]; !ok {
			continue
		}
		r, err := eng.BoundsOf(a.Geom)
		if err != nil {
			continue
		}
		for _, cid := range grid.Query(r.Expand(maxDist)) {
			if cid <= a.FID {
				continue
			}
			if !processed.Add(a.FID, cid) {
				continue
			}
			b := byID[cid]

			d, err := eng.Distance(a.Geom, b.Geom)
			if err != nil || d < params.MinDistance || d > maxDist {
				continue
			}
			res := Result{
				Kind:     KindPointProximity,
				IDA:      a.DisplayID,
				IDB:      b.DisplayID,
				LayerA:   a.SourceLayer,
				LayerB:   b.SourceLayer,
				Measure:  d,
				Severity: severity.ClassifyPointProximity(d, params.Profile, eps),
			}
			if pa, errA := eng.PointCoord(a.Geom); errA == nil {
				if pb, errB := eng.PointCoord(b.Geom); errB == nil {
					res.Geometry = segmentGeoJSON(pa, pb)
				}
			}
			results = append(results, res)
		}
	}
	return results, nil
}

// DetectPointDuplicates finds clusters of coincident points within groups.
// Snapshots sharing a group key are compared pairwise; pairs closer than the
// duplicate threshold are merged into clusters, and each cluster of two or
// more points becomes one Critical finding listing its members. When no
// snapshot carries a group key the whole layer forms a single group.
func DetectPointDuplicates(ctx context.Context, eng *geometry.Engine, snaps []feature.Snapshot, params PointParams) ([]Result, error) {
	groups := make(map[string][]*feature.Snapshot)
	grouped := false
	for i := range snaps {
		if snaps[i].GroupKey != "" {
			grouped = true
			break
		}
	}
	for i := range snaps {
		s := &snaps[i]
		key := ""
		if grouped {
			key = s.GroupKey
			if key == "" {
				continue
			}
		}
		groups[key] = append(groups[key], s)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var results []Result
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return results, cerrors.Wrap(cerrors.ErrCodeCancelled, err, "point duplicate detection cancelled")
		}
		members := groups[key]
		for _, cluster := range duplicateClusters(eng, members) {
			ids := make([]string, len(cluster))
			for i, s := range cluster {
				ids[i] = s.DisplayID
			}
			res := Result{
				Kind:     KindPointDuplicateGroup,
				IDA:      cluster[0].DisplayID,
				LayerA:   cluster[0].SourceLayer,
				Measure:  float64(len(cluster)),
				Severity: severity.Critical,
				Details:  map[string]string{"members": strings.Join(ids, ",")},
			}
			if key != "" {
				res.Details["group"] = key
			}
			if pt, err := eng.PointCoord(cluster[0].Geom); err == nil {
				res.Geometry = pointGeoJSON(pt)
			}
			results = append(results, res)
		}
	}
	return results, nil
}

// duplicateClusters unions members into coincidence clusters and returns
// those with at least two points, in first-member order.
func duplicateClusters(eng *geometry.Engine, members []*feature.Snapshot) [][]*feature.Snapshot {
	parent := make([]int, len(members))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			d, err := eng.Distance(members[i].Geom, members[j].Geom)
			if err != nil || d > DuplicateThreshold {
				continue
			}
			parent[find(j)] = find(i)
		}
	}

	byRoot := make(map[int][]*feature.Snapshot)
	var roots []int
	for i, s := range members {
		r := find(i)
		if len(byRoot[r]) == 0 {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], s)
	}

	var clusters [][]*feature.Snapshot
	for _, r := range roots {
		if len(byRoot[r]) >= 2 {
			clusters = append(clusters, byRoot[r])
		}
	}
	return clusters
}

func segmentGeoJSON(a, b geometry.Point) string {
	return fmt.Sprintf(`{"type":"LineString","coordinates":[[%g,%g],[%g,%g]]}`, a.X, a.Y, b.X, b.Y)
}
