package io

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/paulmach/orb/geojson"

	"github.com/geodetica/cadscan/pkg/analysis"
	"github.com/geodetica/cadscan/pkg/observability"
)

// document is the JSON wire form of a report.
type document struct {
	RunID    string   `json:"run_id"`
	State    string   `json:"state"`
	Profile  string   `json:"profile"`
	Results  []result `json:"results"`
	Warnings []string `json:"warnings,omitempty"`
}

// result mirrors analysis.Result but carries the locator geometry as a real
// JSON object instead of an embedded string.
type result struct {
	Kind     string            `json:"kind"`
	IDA      string            `json:"id_a"`
	IDB      string            `json:"id_b,omitempty"`
	LayerA   string            `json:"layer_a,omitempty"`
	LayerB   string            `json:"layer_b,omitempty"`
	Measure  float64           `json:"measure"`
	Ratio    float64           `json:"ratio,omitempty"`
	Severity string            `json:"severity"`
	Geometry json.RawMessage   `json:"geometry,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
}

func toWire(r analysis.Result) result {
	out := result{
		Kind:     string(r.Kind),
		IDA:      r.IDA,
		IDB:      r.IDB,
		LayerA:   r.LayerA,
		LayerB:   r.LayerB,
		Measure:  r.Measure,
		Ratio:    r.Ratio,
		Severity: r.Severity.String(),
		Details:  r.Details,
	}
	if r.Geometry != "" {
		out.Geometry = json.RawMessage(r.Geometry)
	}
	return out
}

// WriteJSON encodes a report as indented JSON and writes it to w. The output
// can be re-imported with [ReadJSON] for round-trip processing.
func WriteJSON(rep analysis.Report, w io.Writer) error {
	doc := document{
		RunID:    rep.RunID,
		State:    rep.State.String(),
		Profile:  rep.Profile,
		Results:  make([]result, len(rep.Results)),
		Warnings: rep.Warnings,
	}
	for i, r := range rep.Results {
		doc.Results[i] = toWire(r)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a report to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(rep analysis.Report, path string) error {
	return exportFile(rep, path, "json", WriteJSON)
}

// csvHeader is the column layout of the findings table.
var csvHeader = []string{"kind", "id_a", "id_b", "layer_a", "layer_b", "measure", "ratio", "severity", "details"}

// WriteCSV writes the findings as a flat CSV table to w. Geometry is left
// out; use GeoJSON output when locations matter.
func WriteCSV(rep analysis.Report, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rep.Results {
		details := ""
		if len(r.Details) > 0 {
			b, err := json.Marshal(r.Details)
			if err != nil {
				return fmt.Errorf("encode details: %w", err)
			}
			details = string(b)
		}
		row := []string{
			string(r.Kind),
			r.IDA,
			r.IDB,
			r.LayerA,
			r.LayerB,
			strconv.FormatFloat(r.Measure, 'f', -1, 64),
			strconv.FormatFloat(r.Ratio, 'f', -1, 64),
			r.Severity.String(),
			details,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes the findings table to a CSV file at path.
func ExportCSV(rep analysis.Report, path string) error {
	return exportFile(rep, path, "csv", WriteCSV)
}

// WriteGeoJSON writes the findings as a GeoJSON FeatureCollection to w. Each
// finding becomes one feature located at its anomaly geometry, with the
// finding attributes as properties. Findings without a locator geometry get
// a null geometry.
func WriteGeoJSON(rep analysis.Report, w io.Writer) error {
	fc := geojson.NewFeatureCollection()
	for _, r := range rep.Results {
		f := &geojson.Feature{Type: "Feature", Properties: geojson.Properties{
			"kind":     string(r.Kind),
			"id_a":     r.IDA,
			"measure":  r.Measure,
			"severity": r.Severity.String(),
		}}
		if r.IDB != "" {
			f.Properties["id_b"] = r.IDB
		}
		if r.LayerA != "" {
			f.Properties["layer_a"] = r.LayerA
		}
		if r.LayerB != "" {
			f.Properties["layer_b"] = r.LayerB
		}
		if r.Ratio != 0 {
			f.Properties["ratio"] = r.Ratio
		}
		for k, v := range r.Details {
			f.Properties["detail_"+k] = v
		}
		if r.Geometry != "" {
			g, err := geojson.UnmarshalGeometry([]byte(r.Geometry))
			if err != nil {
				return fmt.Errorf("finding %s/%s: %w", r.Kind, r.IDA, err)
			}
			f.Geometry = g.Geometry()
		}
		fc.Append(f)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// ExportGeoJSON writes the findings to a GeoJSON file at path.
func ExportGeoJSON(rep analysis.Report, path string) error {
	return exportFile(rep, path, "geojson", WriteGeoJSON)
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

func exportFile(rep analysis.Report, path, format string, write func(analysis.Report, io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cw := &countingWriter{w: f}
	err = write(rep, cw)
	observability.Export().OnExport(context.Background(), format, len(rep.Results), cw.n, err)
	return err
}
