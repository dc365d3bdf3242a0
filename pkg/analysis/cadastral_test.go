package analysis

import (
	"context"
	"testing"

	"github.com/geodetica/cadscan/pkg/geometry"
	"github.com/geodetica/cadscan/pkg/severity"
)

func TestDetectCadastralTopologyOrphan(t *testing.T) {
	eng := geometry.NewEngine()

	polygons := featureSnapshots{
		{1, "LOT-1", "POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))", "parcels"},
	}.build(t, eng)
	points := featureSnapshots{
		{10, "LOT-1", "POINT(0 0)", "markers"},
		{11, "LOT-9", "POINT(50 50)", "markers"},
	}.build(t, eng)

	results, err := DetectCadastralTopology(context.Background(), eng, points, polygons, CadastralParams{})
	if err != nil {
		t.Fatalf("DetectCadastralTopology failed: %v", err)
	}

	var orphans []Result
	for _, r := range results {
		if r.Kind == KindOrphanPoint {
			orphans = append(orphans, r)
		}
	}
	if len(orphans) != 1 {
		t.Fatalf("got %d orphans, want 1", len(orphans))
	}
	if orphans[0].IDA != "LOT-9" || orphans[0].Severity != severity.Critical {
		t.Errorf("orphan = %s/%s, want LOT-9/critical", orphans[0].IDA, orphans[0].Severity)
	}
}

func TestDetectCadastralTopologyVertexCount(t *testing.T) {
	eng := geometry.NewEngine()

	// Pentagon with 5 distinct vertices but only 4 ID-matched points.
	polygons := featureSnapshots{
		{1, "LOT-1", "POLYGON((0 0, 10 0, 14 6, 5 12, -4 6, 0 0))", "parcels"},
	}.build(t, eng)
	points := featureSnapshots{
		{10, "LOT-1", "POINT(0 0)", "markers"},
		{11, "LOT-1", "POINT(10 0)", "markers"},
		{12, "LOT-1", "POINT(14 6)", "markers"},
		{13, "LOT-1", "POINT(5 12)", "markers"},
	}.build(t, eng)

	results, err := DetectCadastralTopology(context.Background(), eng, points, polygons, CadastralParams{})
	if err != nil {
		t.Fatalf("DetectCadastralTopology failed: %v", err)
	}

	var mismatches []Result
	for _, r := range results {
		switch r.Kind {
		case KindVertexCountMismatch:
			mismatches = append(mismatches, r)
		case KindOrphanPoint, KindPointVertexMismatch:
			t.Errorf("unexpected %s for %s", r.Kind, r.IDA)
		}
	}
	if len(mismatches) != 1 {
		t.Fatalf("got %d vertex count mismatches, want 1", len(mismatches))
	}
	m := mismatches[0]
	if m.IDA != "LOT-1" || m.Measure != 1 || m.Severity != severity.High {
		t.Errorf("mismatch = %s measure %v severity %s, want LOT-1 / 1 / high", m.IDA, m.Measure, m.Severity)
	}
}

func TestDetectCadastralTopologyPointVertexMismatch(t *testing.T) {
	eng := geometry.NewEngine()

	polygons := featureSnapshots{
		{1, "LOT-1", "POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))", "parcels"},
	}.build(t, eng)
	// 5 mm off the nearest vertex, past the 1 mm tolerance.
	points := featureSnapshots{
		{10, "LOT-1", "POINT(0.005 0)", "markers"},
	}.build(t, eng)

	results, err := DetectCadastralTopology(context.Background(), eng, points, polygons, CadastralParams{})
	if err != nil {
		t.Fatalf("DetectCadastralTopology failed: %v", err)
	}

	found := false
	for _, r := range results {
		if r.Kind == KindPointVertexMismatch {
			found = true
			if r.Severity != severity.Critical {
				t.Errorf("severity = %s, want critical", r.Severity)
			}
			if r.Measure < 0.004 || r.Measure > 0.006 {
				t.Errorf("measure = %v, want ~0.005", r.Measure)
			}
		}
	}
	if !found {
		t.Fatal("expected a point_vertex_mismatch")
	}
}

func TestDetectCadastralTopologySharedVertex(t *testing.T) {
	eng := geometry.NewEngine()

	// LOT-2 shares the edge x=10 with LOT-1 but splits it with an extra
	// vertex at (10,4) that LOT-1's ring does not carry.
	polygons := featureSnapshots{
		{1, "LOT-1", "POLYGON((0 0, 10 0, 10 10, 0 10, 0 0))", "parcels"},
		{2, "LOT-2", "POLYGON((10 0, 20 0, 20 10, 10 10, 10 4, 10 0))", "parcels"},
	}.build(t, eng)

	results, err := DetectCadastralTopology(context.Background(), eng, nil, polygons, CadastralParams{})
	if err != nil {
		t.Fatalf("DetectCadastralTopology failed: %v", err)
	}

	var shared []Result
	for _, r := range results {
		if r.Kind == KindSharedVertexMissing {
			shared = append(shared, r)
		}
	}
	if len(shared) != 1 {
		t.Fatalf("got %d shared vertex findings, want 1", len(shared))
	}
	s := shared[0]
	if s.Measure < 1 {
		t.Errorf("measure = %v, want at least 1 missing vertex", s.Measure)
	}
	if s.Severity != severity.High {
		t.Errorf("severity = %s, want high", s.Severity)
	}
}
