package io

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/geodetica/cadscan/pkg/analysis"
	"github.com/geodetica/cadscan/pkg/severity"
)

func sampleReport() analysis.Report {
	return analysis.Report{
		RunID:   "run-1",
		State:   analysis.StateCompleted,
		Profile: severity.DefaultProfileName,
		Results: []analysis.Result{
			{
				Kind:     analysis.KindSelfOverlap,
				IDA:      "P-1",
				IDB:      "P-2",
				LayerA:   "parcels",
				LayerB:   "parcels",
				Measure:  60,
				Ratio:    0.6,
				Severity: severity.Critical,
				Geometry: `{"type":"Polygon","coordinates":[[[4,0],[10,0],[10,10],[4,10],[4,0]]]}`,
			},
			{
				Kind:     analysis.KindLineDangle,
				IDA:      "L-7",
				Measure:  1,
				Severity: severity.Moderate,
			},
		},
		Warnings: []string{"cadastral checks skipped, ID fields not configured for both layers"},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	rep := sampleReport()

	var buf bytes.Buffer
	if err := WriteJSON(rep, &buf); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if got.RunID != rep.RunID || got.State != rep.State || got.Profile != rep.Profile {
		t.Errorf("report header mismatch: %+v", got)
	}
	if len(got.Results) != len(rep.Results) {
		t.Fatalf("got %d results, want %d", len(got.Results), len(rep.Results))
	}
	r := got.Results[0]
	if r.Kind != analysis.KindSelfOverlap || r.Severity != severity.Critical || r.Ratio != 0.6 {
		t.Errorf("first result mismatch: %+v", r)
	}
	if r.Geometry == "" {
		t.Error("geometry lost in round trip")
	}
	if len(got.Warnings) != 1 {
		t.Errorf("warnings lost: %v", got.Warnings)
	}
	if got.Counts[analysis.KindSelfOverlap] != 1 || got.Counts[analysis.KindLineDangle] != 1 {
		t.Errorf("counts not rebuilt: %v", got.Counts)
	}
}

func TestReadJSONRejectsUnknownState(t *testing.T) {
	doc := `{"run_id":"x","state":"exploded","profile":"p","results":[]}`
	if _, err := ReadJSON(strings.NewReader(doc)); err == nil {
		t.Fatal("expected error for unknown state")
	}
}

func TestReadJSONRejectsUnknownSeverity(t *testing.T) {
	doc := `{"run_id":"x","state":"completed","profile":"p",
		"results":[{"kind":"self_overlap","id_a":"a","measure":1,"severity":"catastrophic"}]}`
	if _, err := ReadJSON(strings.NewReader(doc)); err == nil {
		t.Fatal("expected error for unknown severity")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(sampleReport(), &buf); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "kind,id_a,id_b") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "self_overlap") || !strings.Contains(lines[1], "critical") {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestWriteGeoJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGeoJSON(sampleReport(), &buf); err != nil {
		t.Fatalf("WriteGeoJSON failed: %v", err)
	}

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry   json.RawMessage `json:"geometry"`
			Properties map[string]any  `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(buf.Bytes(), &fc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if fc.Type != "FeatureCollection" {
		t.Errorf("type = %q", fc.Type)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("got %d features, want 2", len(fc.Features))
	}
	if fc.Features[0].Properties["kind"] != "self_overlap" {
		t.Errorf("first feature kind = %v", fc.Features[0].Properties["kind"])
	}
	if string(fc.Features[1].Geometry) != "null" {
		t.Errorf("finding without locator should export null geometry, got %s", fc.Features[1].Geometry)
	}
}
