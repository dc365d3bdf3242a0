// Package analysis implements the anomaly detectors and the engine that
// orchestrates them over polygon, line and point layers.
//
// Each detector walks candidate features or feature pairs, applies the
// geometric checks for its anomaly family, and classifies findings against
// the active accuracy profile. The engine wires the detectors together in a
// fixed order driven by which layers are present, reports progress, and
// deduplicates redundant findings before exposing the final result set.
package analysis

import "github.com/geodetica/cadscan/pkg/severity"

// Kind identifies an anomaly family.
type Kind string

const (
	KindSelfOverlap          Kind = "self_overlap"
	KindInterLayerOverlap    Kind = "inter_layer_overlap"
	KindLineSelfIntersection Kind = "line_self_intersection"
	KindLineOverlap          Kind = "line_overlap"
	KindLineDangle           Kind = "line_dangle"
	KindPointProximity       Kind = "point_proximity"
	KindPointDuplicateGroup  Kind = "point_duplicate_group"
	KindOrphanPoint          Kind = "orphan_point"
	KindVertexCountMismatch  Kind = "vertex_count_mismatch"
	KindPointVertexMismatch  Kind = "point_vertex_mismatch"
	KindSharedVertexMissing  Kind = "shared_vertex_missing"
)

// Result is one classified anomaly finding.
type Result struct {
	Kind Kind `json:"kind"`

	// Participants. IDB and LayerB are empty for single-feature findings.
	IDA    string `json:"id_a"`
	IDB    string `json:"id_b,omitempty"`
	LayerA string `json:"layer_a,omitempty"`
	LayerB string `json:"layer_b,omitempty"`

	// Measure is the finding's primary magnitude in layer units: an overlap
	// area, a shared length, a point distance, or a count.
	Measure float64 `json:"measure"`

	// Ratio is set for polygon overlaps: overlap area over the smaller
	// participant area.
	Ratio float64 `json:"ratio,omitempty"`

	Severity severity.Severity `json:"severity"`

	// Geometry is the finding's locator geometry as a GeoJSON fragment,
	// empty when no meaningful locator exists.
	Geometry string `json:"geometry,omitempty"`

	// Details carries finding-specific notes, such as the member IDs of a
	// duplicate group or the diagnostic severity of a small-area overlap.
	Details map[string]string `json:"details,omitempty"`
}

// PairKey returns the finding's unordered participant ID pair. For
// single-feature findings the second element is empty.
func (r Result) PairKey() [2]string {
	a, b := r.IDA, r.IDB
	if b != "" && b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}
