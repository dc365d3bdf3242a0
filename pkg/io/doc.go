// Package io provides export and import of analysis reports.
//
// # Overview
//
// This package serializes the findings of an analysis run into the formats a
// survey workflow consumes:
//
//   - JSON: the complete report (run metadata, findings, warnings), designed
//     for round-trip preservation so external tools can reload a past run
//   - CSV: a flat findings table for spreadsheets and office review
//   - GeoJSON: a FeatureCollection of anomaly locator geometries for loading
//     into a GIS alongside the source layers
//
// # JSON Format
//
// The JSON document mirrors the report structure:
//
//	{
//	  "run_id": "2f1c...",
//	  "state": "completed",
//	  "profile": "Land/Cadastre (GPS ±2m)",
//	  "results": [
//	    {"kind": "self_overlap", "id_a": "P-1", "id_b": "P-2",
//	     "measure": 60, "ratio": 0.6, "severity": "critical",
//	     "geometry": {...}}
//	  ],
//	  "warnings": []
//	}
//
// # Import
//
// Use [ImportJSON] to read a report from a file path, or [ReadJSON] to read
// from any io.Reader. Both validate the document structure; errors are
// wrapped with context about what failed to parse.
//
// # Export
//
// Use [ExportJSON], [ExportCSV] and [ExportGeoJSON] to write to a file, or
// the corresponding Write functions for any io.Writer:
//
//	err := io.ExportGeoJSON(report, "anomalies.geojson")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Findings without a locator geometry export with a null geometry in
// GeoJSON and an empty geometry column in CSV.
//
// # Concurrency
//
// Reports are never mutated after a run completes, so all functions in this
// package are safe to call concurrently on the same report.
package io
