package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/geodetica/cadscan/pkg/analysis"
	"github.com/geodetica/cadscan/pkg/severity"
)

var stateFromString = map[string]analysis.State{
	"idle":      analysis.StateIdle,
	"running":   analysis.StateRunning,
	"cancelled": analysis.StateCancelled,
	"completed": analysis.StateCompleted,
	"failed":    analysis.StateFailed,
}

// ReadJSON decodes a JSON report from r, accepting the format produced by
// [WriteJSON]. Unknown severity or state names are rejected so a mangled
// document cannot silently load as all-Low findings.
//
// The returned report is independent of r and can be used freely after
// ReadJSON returns. ReadJSON does not close r.
func ReadJSON(r io.Reader) (analysis.Report, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return analysis.Report{}, fmt.Errorf("decode: %w", err)
	}

	rep := analysis.Report{
		RunID:    doc.RunID,
		Profile:  doc.Profile,
		Warnings: doc.Warnings,
	}
	state, ok := stateFromString[doc.State]
	if !ok {
		return analysis.Report{}, fmt.Errorf("unknown state %q", doc.State)
	}
	rep.State = state

	rep.Results = make([]analysis.Result, len(doc.Results))
	for i, res := range doc.Results {
		var sev severity.Severity
		if err := sev.UnmarshalText([]byte(res.Severity)); err != nil {
			return analysis.Report{}, fmt.Errorf("result %d: %w", i, err)
		}
		rep.Results[i] = analysis.Result{
			Kind:     analysis.Kind(res.Kind),
			IDA:      res.IDA,
			IDB:      res.IDB,
			LayerA:   res.LayerA,
			LayerB:   res.LayerB,
			Measure:  res.Measure,
			Ratio:    res.Ratio,
			Severity: sev,
			Geometry: string(res.Geometry),
			Details:  res.Details,
		}
	}

	// Counts are derived, not stored; rebuild them so an imported report
	// behaves like a fresh one.
	rep.Counts = make(map[analysis.Kind]int, len(rep.Results))
	for _, res := range rep.Results {
		rep.Counts[res.Kind]++
	}
	return rep, nil
}

// ImportJSON reads a report from a JSON file at path.
// This is a convenience wrapper around [ReadJSON] for file-based input.
func ImportJSON(path string) (analysis.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return analysis.Report{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
