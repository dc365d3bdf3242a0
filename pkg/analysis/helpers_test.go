package analysis

import (
	"context"
	"testing"

	"github.com/geodetica/cadscan/pkg/feature"
	"github.com/geodetica/cadscan/pkg/geometry"
	"github.com/geodetica/cadscan/pkg/severity"
)

// featureSnapshots describes test fixtures built from WKT.
type featureSnapshots []struct {
	fid   int64
	id    string
	wkt   string
	layer string
}

func (specs featureSnapshots) build(t *testing.T, eng *geometry.Engine) []feature.Snapshot {
	t.Helper()
	snaps := make([]feature.Snapshot, 0, len(specs))
	for _, sp := range specs {
		g, err := eng.FromWKT(sp.wkt)
		if err != nil {
			t.Fatalf("parsing %q: %v", sp.wkt, err)
		}
		snaps = append(snaps, feature.Snapshot{
			FID:         sp.fid,
			DisplayID:   sp.id,
			Geom:        g,
			Area:        eng.SafeArea(g),
			Length:      eng.SafeLength(g),
			SourceLayer: sp.layer,
		})
	}
	t.Cleanup(func() { feature.Release(snaps) })
	return snaps
}

func defaultProfile() severity.Profile {
	return severity.NewCatalog().Get("")
}

// cancelAfterContext reports cancellation once limit Err checks have passed,
// simulating a cancel arriving in the middle of a scan.
type cancelAfterContext struct {
	context.Context
	calls int
	limit int
}

func (c *cancelAfterContext) Err() error {
	c.calls++
	if c.calls > c.limit {
		return context.Canceled
	}
	return nil
}
