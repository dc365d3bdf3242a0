// Package pkg provides the core libraries for cadscan anomaly detection.
//
// # Overview
//
// Cadscan scans surveyed and cadastral vector layers for geometric anomalies
// and classifies each finding against a survey-precision profile. The pkg
// directory is organized by concern:
//
//   - [geometry] - GEOS-backed geometry engine with planar and geodesic
//     measurement
//   - [feature] - Vector layers, GeoJSON loading, merging, and immutable
//     per-analysis feature snapshots
//   - [index] - Bounding-box grid index and pair bookkeeping for candidate
//     search
//   - [severity] - Accuracy profiles and the severity classifier
//   - [analysis] - The anomaly detectors and the run orchestrator
//   - [io] - Report export (JSON, CSV, GeoJSON) and import
//   - [errors] - Structured error codes
//   - [observability] - Instrumentation hooks
//   - [buildinfo] - Build-time version information
//
// # Architecture
//
// The typical data flow through cadscan:
//
//	GeoJSON layer files
//	         ↓
//	    [feature] package (load, merge, snapshot)
//	         ↓
//	    [analysis] package (detect + classify, via [geometry], [index], [severity])
//	         ↓
//	    [io] package (JSON/CSV/GeoJSON output)
//
// # Quick Start
//
// Load a parcel layer and scan it for overlaps:
//
//	import (
//	    "context"
//	    "github.com/geodetica/cadscan/pkg/analysis"
//	    "github.com/geodetica/cadscan/pkg/feature"
//	    "github.com/geodetica/cadscan/pkg/geometry"
//	    "github.com/geodetica/cadscan/pkg/severity"
//	)
//
//	geom := geometry.NewEngine()
//	layer, _ := feature.LoadGeoJSON(geom, "parcels.geojson")
//
//	engine := analysis.NewEngine(geom, severity.NewCatalog())
//	report, _ := engine.Run(context.Background(), analysis.Request{
//	    Polygons: layer,
//	    IDFields: map[string]string{"parcels": "parcel_id"},
//	})
//	for _, r := range report.Results {
//	    fmt.Println(r.Kind, r.IDA, r.Severity)
//	}
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...               # All tests
//	go test ./pkg/analysis/...      # Specific package
//
// [geometry]: https://pkg.go.dev/github.com/geodetica/cadscan/pkg/geometry
// [feature]: https://pkg.go.dev/github.com/geodetica/cadscan/pkg/feature
// [index]: https://pkg.go.dev/github.com/geodetica/cadscan/pkg/index
// [severity]: https://pkg.go.dev/github.com/geodetica/cadscan/pkg/severity
// [analysis]: https://pkg.go.dev/github.com/geodetica/cadscan/pkg/analysis
// [io]: https://pkg.go.dev/github.com/geodetica/cadscan/pkg/io
// [errors]: https://pkg.go.dev/github.com/geodetica/cadscan/pkg/errors
// [observability]: https://pkg.go.dev/github.com/geodetica/cadscan/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/geodetica/cadscan/pkg/buildinfo
package pkg
