// Package feature models vector layers and the immutable per-feature
// snapshots the analyzers work on.
//
// A Layer is a flat, in-memory feature store: stable feature IDs, GEOS
// geometries and attribute maps, loaded from GeoJSON files. Several layers
// of the same geometry kind can be merged into one, with each feature
// keeping a source-layer tag; the tag is what lets the overlap analyzers
// partition a merged layer back into its origins and the deduplicator tell
// a self-overlap from an inter-layer one.
//
// Analyzers never touch a Layer directly. At the start of every analyzer
// invocation the features are captured into Snapshots - cloned geometry,
// resolved display ID, precomputed measurements - so the analysis is
// decoupled from any later mutation of the store.
package feature

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/twpayne/go-geos"
)

// GeometryKind is the geometry family of a layer.
type GeometryKind int

const (
	KindUnknown GeometryKind = iota
	KindPolygon
	KindLine
	KindPoint
)

// String returns the lowercase kind name.
func (k GeometryKind) String() string {
	switch k {
	case KindPolygon:
		return "polygon"
	case KindLine:
		return "line"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Feature is one vector feature: a stable ID, a geometry and its attributes.
type Feature struct {
	FID         int64
	Geom        *geos.Geom
	Attributes  map[string]any
	SourceLayer string // originating layer ID for merged layers, else empty
}

// Attr returns the named attribute value and whether it exists.
func (f Feature) Attr(name string) (any, bool) {
	v, ok := f.Attributes[name]
	return v, ok
}

// AttrString returns the named attribute formatted as a string, or "" if
// absent or nil. Numeric values lose any spurious ".0" suffix so that IDs
// read from JSON numbers compare equal to their text form.
func (f Feature) AttrString(name string) string {
	v, ok := f.Attributes[name]
	if !ok || v == nil {
		return ""
	}
	return formatAttr(v)
}

func formatAttr(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Layer is an in-memory feature store of a single geometry kind.
type Layer struct {
	ID       string
	Name     string
	Kind     GeometryKind
	features []Feature
	fields   []string
}

// NewLayer builds a layer from prepared features. Field names are the union
// of attribute keys, sorted for determinism.
func NewLayer(id, name string, kind GeometryKind, features []Feature) *Layer {
	seen := make(map[string]struct{})
	for _, f := range features {
		for k := range f.Attributes {
			seen[k] = struct{}{}
		}
	}
	fields := make([]string, 0, len(seen))
	for k := range seen {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return &Layer{ID: id, Name: name, Kind: kind, features: features, fields: fields}
}

// Fields returns the declared attribute field names.
func (l *Layer) Fields() []string {
	out := make([]string, len(l.fields))
	copy(out, l.fields)
	return out
}

// HasField reports whether the layer declares the named attribute field.
func (l *Layer) HasField(name string) bool {
	for _, f := range l.fields {
		if f == name {
			return true
		}
	}
	return false
}

// Count returns the number of features.
func (l *Layer) Count() int { return len(l.features) }

// Each calls fn for every feature until fn returns false.
func (l *Layer) Each(fn func(Feature) bool) {
	for _, f := range l.features {
		if !fn(f) {
			return
		}
	}
}

// Merge combines same-kind layers into a single layer whose features carry a
// source-layer tag. Feature IDs are reassigned sequentially so they stay
// unique across sources.
func Merge(id, name string, layers ...*Layer) (*Layer, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("merge: no layers")
	}
	kind := layers[0].Kind
	var merged []Feature
	var next int64 = 1
	for _, l := range layers {
		if l.Kind != kind {
			return nil, fmt.Errorf("merge: mixed geometry kinds %s and %s", kind, l.Kind)
		}
		l.Each(func(f Feature) bool {
			f.FID = next
			f.SourceLayer = l.ID
			merged = append(merged, f)
			next++
			return true
		})
	}
	return NewLayer(id, name, kind, merged), nil
}
