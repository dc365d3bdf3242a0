package analysis

import (
	"context"
	"sync"
	"testing"

	"github.com/geodetica/cadscan/pkg/feature"
	"github.com/geodetica/cadscan/pkg/geometry"
	"github.com/geodetica/cadscan/pkg/observability"
	"github.com/geodetica/cadscan/pkg/severity"
)

func polygonLayer(t *testing.T, eng *geometry.Engine, id string, wkts map[string]string) *feature.Layer {
	t.Helper()
	var feats []feature.Feature
	var fid int64
	for attr, wkt := range wkts {
		g, err := eng.FromWKT(wkt)
		if err != nil {
			t.Fatalf("parsing %q: %v", wkt, err)
		}
		fid++
		feats = append(feats, feature.Feature{
			FID:        fid,
			Geom:       g,
			Attributes: map[string]any{"parcel_id": attr},
		})
	}
	return feature.NewLayer(id, id, feature.KindPolygon, feats)
}

type progressRecorder struct {
	observability.NoopAnalysisHooks
	mu       sync.Mutex
	percents []int
}

func (p *progressRecorder) OnProgress(_ context.Context, _ string, percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.percents = append(p.percents, percent)
}

func TestEngineRunPolygonCase(t *testing.T) {
	geom := geometry.NewEngine()
	catalog := severity.NewCatalog()

	rec := &progressRecorder{}
	observability.SetAnalysisHooks(rec)
	defer observability.Reset()

	layer := polygonLayer(t, geom, "parcels", map[string]string{
		"P-1": "POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))",
		"P-2": "POLYGON((4 -5, 24 -5, 24 15, 4 15, 4 -5))",
	})

	e := NewEngine(geom, catalog)
	report, err := e.Run(context.Background(), Request{
		Polygons: layer,
		IDFields: map[string]string{"parcels": "parcel_id"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.State != StateCompleted {
		t.Fatalf("state = %s, want completed", report.State)
	}
	if report.RunID == "" {
		t.Error("missing run ID")
	}
	if len(report.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(report.Results))
	}
	if report.Results[0].Kind != KindSelfOverlap {
		t.Errorf("kind = %s, want self_overlap", report.Results[0].Kind)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.percents) == 0 || rec.percents[len(rec.percents)-1] != 100 {
		t.Errorf("progress = %v, want monotone run ending at 100", rec.percents)
	}
	for i := 1; i < len(rec.percents); i++ {
		if rec.percents[i] < rec.percents[i-1] {
			t.Errorf("progress not monotone: %v", rec.percents)
		}
	}
}

func TestEngineRunGroupedDuplicatesReportedOnce(t *testing.T) {
	geom := geometry.NewEngine()

	// Two markers half a millimeter apart in the same block: a duplicate
	// pair that also sits inside the proximity window. Grouped mode must
	// report it once, as a duplicate group, never additionally as a
	// proximity finding.
	var feats []feature.Feature
	for i, def := range []struct{ id, wkt string }{
		{"M-1", "POINT(100 100)"},
		{"M-2", "POINT(100.0005 100)"},
	} {
		g, err := geom.FromWKT(def.wkt)
		if err != nil {
			t.Fatal(err)
		}
		feats = append(feats, feature.Feature{
			FID:        int64(i + 1),
			Geom:       g,
			Attributes: map[string]any{"marker_id": def.id, "block": "B7"},
		})
	}
	layer := feature.NewLayer("markers", "markers", feature.KindPoint, feats)

	e := NewEngine(geom, severity.NewCatalog())
	report, err := e.Run(context.Background(), Request{
		Points:     layer,
		GroupField: "block",
		IDFields:   map[string]string{"markers": "marker_id"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Results) != 1 {
		t.Fatalf("got %d results %v, want exactly 1", len(report.Results), report.Results)
	}
	if report.Results[0].Kind != KindPointDuplicateGroup {
		t.Errorf("kind = %s, want point_duplicate_group", report.Results[0].Kind)
	}
	if report.Counts[KindPointProximity] != 0 {
		t.Errorf("proximity findings leaked into grouped mode: %v", report.Counts)
	}
}

func TestEngineRunProgressCallback(t *testing.T) {
	geom := geometry.NewEngine()
	layer := polygonLayer(t, geom, "parcels", map[string]string{
		"P-1": "POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))",
	})

	var got []int
	e := NewEngine(geom, severity.NewCatalog())
	_, err := e.Run(context.Background(), Request{
		Polygons: layer,
		Progress: func(p int) { got = append(got, p) },
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(got) != 2 || got[0] != 50 || got[1] != 100 {
		t.Errorf("progress callbacks = %v, want [50 100]", got)
	}
}

func TestEngineRunCancelled(t *testing.T) {
	geom := geometry.NewEngine()
	layer := polygonLayer(t, geom, "parcels", map[string]string{
		"P-1": "POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEngine(geom, severity.NewCatalog())
	report, err := e.Run(ctx, Request{Polygons: layer})
	if err != nil {
		t.Fatalf("cancellation must not surface as an error, got %v", err)
	}
	if report.State != StateCancelled {
		t.Fatalf("state = %s, want cancelled", report.State)
	}
}

func TestEngineRunCadastralWithoutIDFields(t *testing.T) {
	geom := geometry.NewEngine()
	polygons := polygonLayer(t, geom, "parcels", map[string]string{
		"P-1": "POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))",
	})
	g, err := geom.FromWKT("POINT(0 0)")
	if err != nil {
		t.Fatal(err)
	}
	points := feature.NewLayer("markers", "markers", feature.KindPoint, []feature.Feature{
		{FID: 1, Geom: g, Attributes: map[string]any{}},
	})

	e := NewEngine(geom, severity.NewCatalog())
	report, err := e.Run(context.Background(), Request{
		Polygons: polygons,
		Points:   points,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.State != StateCompleted {
		t.Fatalf("state = %s, want completed", report.State)
	}
	if len(report.Warnings) == 0 {
		t.Error("expected a warning about missing ID field configuration")
	}
	if len(report.Results) != 0 {
		t.Errorf("got %d results, want 0 (cadastral checks skipped)", len(report.Results))
	}
}

func TestEngineRunEmptyRequest(t *testing.T) {
	e := NewEngine(geometry.NewEngine(), severity.NewCatalog())
	report, err := e.Run(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.State != StateCompleted {
		t.Fatalf("state = %s, want completed", report.State)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateRunning, "running"},
		{StateCancelled, "cancelled"},
		{StateCompleted, "completed"},
		{StateFailed, "failed"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
