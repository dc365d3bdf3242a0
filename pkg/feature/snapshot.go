package feature

import (
	"strconv"

	"github.com/twpayne/go-geos"

	"github.com/geodetica/cadscan/pkg/geometry"
)

// Snapshot is an immutable capture of one feature taken at the start of an
// analyzer invocation. The geometry is a clone owned by the snapshot, so
// later edits to the source layer cannot disturb a running analysis.
type Snapshot struct {
	FID         int64
	DisplayID   string
	Geom        *geos.Geom
	Area        float64
	Length      float64
	SourceLayer string
	GroupKey    string
}

// SnapshotOptions controls how features are captured.
type SnapshotOptions struct {
	// IDField names the attribute used for display IDs. When empty or the
	// attribute is missing on a feature, the native feature ID is used.
	IDField string
	// GroupField names the attribute whose value partitions features into
	// duplicate groups. Empty means no grouping.
	GroupField string
}

// Capture snapshots every feature of the layer. Features with nil or empty
// geometry are skipped. Area and length are precomputed with the engine's
// configured measurement mode.
func Capture(eng *geometry.Engine, layer *Layer, opts SnapshotOptions) []Snapshot {
	snaps := make([]Snapshot, 0, layer.Count())
	layer.Each(func(f Feature) bool {
		if f.Geom == nil || f.Geom.IsEmpty() {
			return true
		}
		s := Snapshot{
			FID:         f.FID,
			DisplayID:   displayID(f, opts.IDField),
			Geom:        f.Geom.Clone(),
			SourceLayer: f.SourceLayer,
		}
		s.Area = eng.SafeArea(s.Geom)
		s.Length = eng.SafeLength(s.Geom)
		if opts.GroupField != "" {
			s.GroupKey = f.AttrString(opts.GroupField)
		}
		snaps = append(snaps, s)
		return true
	})
	return snaps
}

// displayID resolves the human-facing feature identifier: the configured ID
// attribute when present and non-empty, otherwise the native feature ID.
func displayID(f Feature, idField string) string {
	if idField != "" {
		if v := f.AttrString(idField); v != "" {
			return v
		}
	}
	return strconv.FormatInt(f.FID, 10)
}

// Release frees the cloned geometries held by the snapshots.
func Release(snaps []Snapshot) {
	for i := range snaps {
		if snaps[i].Geom != nil {
			snaps[i].Geom.Destroy()
			snaps[i].Geom = nil
		}
	}
}
