package severity

import "math"

// OverlapDetails carries the measurements behind a polygon overlap
// classification. The ratio severity is the authoritative one; the absolute
// severity is populated only when both participants are below
// SmallAreaThreshold and exists for diagnostics.
type OverlapDetails struct {
	Area          float64   // overlap area, m²
	Ratio         float64   // overlap area / min participant area, 0 when epsilon-filtered
	MinSourceArea float64   // smaller participant area, m²
	RatioSeverity Severity  // primary classification
	AbsSeverity   *Severity // set only for the small-area diagnostic
}

// ClassifyPointProximity classifies the severity of two points found at the
// given distance. Distances below eps are measurement noise and classify
// Low. Otherwise the first satisfied cut point, from Critical upward, wins.
func ClassifyPointProximity(distance float64, p Profile, eps float64) Severity {
	if eps <= 0 {
		eps = DefaultEpsilonDist
	}
	if distance < eps {
		return Low
	}
	switch {
	case distance <= p.Points.Critical:
		return Critical
	case distance <= p.Points.High:
		return High
	case distance <= p.Points.Moderate:
		return Moderate
	default:
		return Low
	}
}

// ClassifyPolygonOverlap classifies a polygon overlap of the given area
// between participants of areas a1 and a2.
//
// The policy is ratio-first: severity is decided by overlap area relative to
// the smaller participant, which keeps classification scale-invariant. The
// absolute-area classification would mark any overlap between large parcels
// critical and any overlap between small ones low, regardless of how much of
// either parcel is actually in conflict; it is therefore computed only as a
// diagnostic, and only when both participants are below SmallAreaThreshold.
//
// Overlap areas below eps classify Low with a zero ratio.
func ClassifyPolygonOverlap(area, a1, a2 float64, p Profile, eps float64) (Severity, OverlapDetails) {
	if eps <= 0 {
		eps = DefaultEpsilonArea
	}
	details := OverlapDetails{Area: area}
	if a1 > 0 && a2 > 0 {
		details.MinSourceArea = math.Min(a1, a2)
	}
	if area < eps {
		details.RatioSeverity = Low
		return Low, details
	}

	ratioSev := Low
	if a1 > 0 && a2 > 0 {
		// Guard the divisor: a degenerate participant must not explode
		// the ratio.
		details.Ratio = area / math.Max(details.MinSourceArea, eps)
		ratioSev = classifyRatio(details.Ratio, p.PolygonRatio)
	}
	details.RatioSeverity = ratioSev

	if a1 > 0 && a2 > 0 && a1 < SmallAreaThreshold && a2 < SmallAreaThreshold {
		abs := classifyAbsoluteArea(area, p.PolygonAbs)
		details.AbsSeverity = &abs
	}
	return ratioSev, details
}

func classifyRatio(ratio float64, t RatioThresholds) Severity {
	switch {
	case ratio <= t.LowMax:
		return Low
	case ratio <= t.ModerateMax:
		return Moderate
	case ratio <= t.HighMax:
		return High
	default:
		return Critical
	}
}

func classifyAbsoluteArea(area float64, t AreaThresholds) Severity {
	switch {
	case area <= t.LowMax:
		return Low
	case area <= t.ModerateMax:
		return Moderate
	case area <= t.HighMax:
		return High
	default:
		return Critical
	}
}

// ClassifyLineTopology classifies a line topology measurement (overlap
// length or affected feature length) against the profile's line thresholds.
// Same epsilon-then-cut-point pattern as point proximity.
func ClassifyLineTopology(measure float64, p Profile, eps float64) Severity {
	if eps <= 0 {
		eps = DefaultEpsilonDist
	}
	if measure < eps {
		return Low
	}
	switch {
	case measure <= p.Lines.Critical:
		return Critical
	case measure <= p.Lines.High:
		return High
	case measure <= p.Lines.Moderate:
		return Moderate
	default:
		return Low
	}
}
