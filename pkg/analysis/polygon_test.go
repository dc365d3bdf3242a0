package analysis

import (
	"context"
	"testing"

	"github.com/geodetica/cadscan/pkg/geometry"
	"github.com/geodetica/cadscan/pkg/severity"
)

func TestDetectPolygonOverlaps(t *testing.T) {
	eng := geometry.NewEngine()
	profile := defaultProfile()

	// P-1 is 10x10 (area 100), P-2 is 20x20 (area 400) shifted to overlap
	// P-1 by a 6x10 strip (area 60). P-3 only touches P-1 along an edge.
	snaps := featureSnapshots{
		{1, "P-1", "POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))", "parcels"},
		{2, "P-2", "POLYGON((4 -5, 24 -5, 24 15, 4 15, 4 -5))", "parcels"},
		{3, "P-3", "POLYGON((-10 0, 0 0, 0 10, -10 10, -10 0))", "parcels"},
	}.build(t, eng)

	results, err := DetectPolygonOverlaps(context.Background(), eng, snaps, PolygonOverlapParams{Profile: profile})
	if err != nil {
		t.Fatalf("DetectPolygonOverlaps failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 (touching pair excluded)", len(results))
	}
	r := results[0]
	if r.Kind != KindSelfOverlap {
		t.Errorf("kind = %s, want self_overlap", r.Kind)
	}
	if r.IDA != "P-1" || r.IDB != "P-2" {
		t.Errorf("pair = (%s,%s), want (P-1,P-2)", r.IDA, r.IDB)
	}
	if r.Measure < 59.9 || r.Measure > 60.1 {
		t.Errorf("overlap area = %v, want 60", r.Measure)
	}
	// ratio 60/100 = 0.60 exceeds the Cadastre high cut of 0.50.
	if r.Ratio < 0.59 || r.Ratio > 0.61 {
		t.Errorf("ratio = %v, want 0.60", r.Ratio)
	}
	if r.Severity != severity.Critical {
		t.Errorf("severity = %s, want critical", r.Severity)
	}
	if r.Geometry == "" {
		t.Error("expected intersection geometry")
	}
}

func TestDetectPolygonOverlapsInterLayer(t *testing.T) {
	eng := geometry.NewEngine()
	profile := defaultProfile()

	snaps := featureSnapshots{
		{1, "P-1", "POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))", "parcels"},
		{2, "E-1", "POLYGON((5 5, 15 5, 15 15, 5 15, 5 5))", "easements"},
	}.build(t, eng)

	results, err := DetectPolygonOverlaps(context.Background(), eng, snaps, PolygonOverlapParams{Profile: profile})
	if err != nil {
		t.Fatalf("DetectPolygonOverlaps failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.Kind != KindInterLayerOverlap {
		t.Errorf("kind = %s, want inter_layer_overlap", r.Kind)
	}
	if r.LayerA == r.LayerB {
		t.Errorf("expected distinct source layers, got %q twice", r.LayerA)
	}
}

func TestDetectPolygonOverlapsCancelled(t *testing.T) {
	eng := geometry.NewEngine()
	snaps := featureSnapshots{
		{1, "P-1", "POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))", "parcels"},
	}.build(t, eng)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := DetectPolygonOverlaps(ctx, eng, snaps, PolygonOverlapParams{Profile: defaultProfile()}); err == nil {
		t.Fatal("expected cancellation error")
	}
}
