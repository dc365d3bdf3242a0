// Package severity implements anomaly severity classification for cadastral
// survey data.
//
// Severity is decided against a business profile: a named, immutable set of
// thresholds tuned to a survey precision context (consumer GPS, RTK GPS,
// total station, GIS-grade data). Profiles carry cut points for point
// proximity, polygon overlap (ratio and absolute area) and line topology,
// plus epsilon values below which a measurement is treated as numerical
// noise.
//
// # Classification policy
//
// Polygon overlaps are classified ratio-first: the overlap area divided by
// the smaller participant's area decides the severity. This normalizes
// overlap significance across heterogeneous parcel sizes - a 40 m² overlap
// is critical between two garden plots and irrelevant between two forest
// parcels. The absolute-area classification is computed only as a diagnostic
// when both participants are themselves small.
//
// Severity values are a canonical enum. Display strings (and colors) belong
// to the presentation layer; never compare severities by formatted text.
package severity

import "fmt"

// Severity is the canonical anomaly severity level, ordered from least to
// most severe so values compare with <.
type Severity int

const (
	Low Severity = iota
	Moderate
	High
	Critical
)

var severityNames = map[Severity]string{
	Low:      "low",
	Moderate: "moderate",
	High:     "high",
	Critical: "critical",
}

// String returns the canonical lowercase name of the severity.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler so results serialize with
// canonical names rather than integers.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	for sev, name := range severityNames {
		if name == string(text) {
			*s = sev
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", text)
}
