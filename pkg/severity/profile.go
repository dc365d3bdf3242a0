package severity

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default epsilon filters. Measurements below these are numerical artifacts
// of geometry computation, not survey anomalies.
const (
	DefaultEpsilonArea = 1e-6 // m²
	DefaultEpsilonDist = 1e-6 // m
)

// SmallAreaThreshold is the participant area (m²) below which the absolute
// classification is additionally computed for polygon overlaps. Ratio alone
// is unstable when both parcels are tiny.
const SmallAreaThreshold = 1.0

// PointThresholds are upper-bound distances (m) for point proximity severity.
// A distance at or below Critical classifies Critical, and so on upward;
// anything above Moderate is Low.
type PointThresholds struct {
	Critical float64 `toml:"critical"`
	High     float64 `toml:"high"`
	Moderate float64 `toml:"moderate"`
}

// AreaThresholds are upper-bound overlap areas (m²) for the absolute polygon
// classification.
type AreaThresholds struct {
	LowMax      float64 `toml:"low_max"`
	ModerateMax float64 `toml:"moderate_max"`
	HighMax     float64 `toml:"high_max"`
}

// RatioThresholds are upper-bound overlap ratios (overlap area over the
// smaller participant's area) for the primary polygon classification.
type RatioThresholds struct {
	LowMax      float64 `toml:"low_max"`
	ModerateMax float64 `toml:"moderate_max"`
	HighMax     float64 `toml:"high_max"`
}

// LineThresholds are upper-bound lengths/distances (m) for line topology
// severity, plus the layer's topological tolerance.
type LineThresholds struct {
	Tolerance float64 `toml:"tolerance"`
	Critical  float64 `toml:"critical"`
	High      float64 `toml:"high"`
	Moderate  float64 `toml:"moderate"`
}

// Profile is a named set of severity thresholds for one survey precision
// context. Profiles are immutable value objects; copy semantics are safe.
type Profile struct {
	Name          string          `toml:"-"`
	Description   string          `toml:"description"`
	PrecisionInfo string          `toml:"precision_info"`
	Points        PointThresholds `toml:"points"`
	PolygonAbs    AreaThresholds  `toml:"polygon_absolute"`
	PolygonRatio  RatioThresholds `toml:"polygon_ratio"`
	Lines         LineThresholds  `toml:"lines"`
}

// Validate checks the monotonicity invariant: every threshold family must be
// strictly increasing so classification is total and unambiguous.
func (p Profile) Validate() error {
	if !(p.Points.Critical < p.Points.High && p.Points.High < p.Points.Moderate) {
		return fmt.Errorf("profile %q: point thresholds not increasing", p.Name)
	}
	if !(p.PolygonAbs.LowMax < p.PolygonAbs.ModerateMax && p.PolygonAbs.ModerateMax < p.PolygonAbs.HighMax) {
		return fmt.Errorf("profile %q: absolute area thresholds not increasing", p.Name)
	}
	if !(p.PolygonRatio.LowMax < p.PolygonRatio.ModerateMax && p.PolygonRatio.ModerateMax < p.PolygonRatio.HighMax) {
		return fmt.Errorf("profile %q: ratio thresholds not increasing", p.Name)
	}
	if !(p.Lines.Critical < p.Lines.High && p.Lines.High < p.Lines.Moderate) {
		return fmt.Errorf("profile %q: line thresholds not increasing", p.Name)
	}
	return nil
}

// DefaultProfileName is the catalog's fallback profile.
const DefaultProfileName = "Land/Cadastre (GPS ±2m)"

// builtinProfiles returns the factory preset catalog. Threshold values come
// from established tolerances of each survey discipline.
func builtinProfiles() []Profile {
	return []Profile{
		{
			Name:          DefaultProfileName,
			Description:   "Cadastre, land parcels, land boundaries",
			PrecisionInfo: "Consumer GPS ±2m",
			Points:        PointThresholds{Critical: 0.5, High: 1.5, Moderate: 5.0},
			PolygonAbs:    AreaThresholds{LowMax: 5, ModerateMax: 100, HighMax: 500},
			PolygonRatio:  RatioThresholds{LowMax: 0.05, ModerateMax: 0.20, HighMax: 0.50},
			Lines:         LineThresholds{Tolerance: 0.5, Critical: 0.01, High: 0.1, Moderate: 0.5},
		},
		{
			Name:          "Construction (GPS RTK ±0.05m)",
			Description:   "Construction sites, implantations, structures",
			PrecisionInfo: "RTK GPS ±0.05m",
			Points:        PointThresholds{Critical: 0.05, High: 0.2, Moderate: 0.5},
			PolygonAbs:    AreaThresholds{LowMax: 0.5, ModerateMax: 10, HighMax: 50},
			PolygonRatio:  RatioThresholds{LowMax: 0.05, ModerateMax: 0.20, HighMax: 0.50},
			Lines:         LineThresholds{Tolerance: 0.05, Critical: 0.01, High: 0.02, Moderate: 0.05},
		},
		{
			Name:          "Topography (Station ±0.01m)",
			Description:   "Precise surveys, topography, geodesy",
			PrecisionInfo: "Total station ±0.01m",
			Points:        PointThresholds{Critical: 0.01, High: 0.03, Moderate: 0.1},
			PolygonAbs:    AreaThresholds{LowMax: 1, ModerateMax: 50, HighMax: 200},
			PolygonRatio:  RatioThresholds{LowMax: 0.05, ModerateMax: 0.20, HighMax: 0.50},
			Lines:         LineThresholds{Tolerance: 0.01, Critical: 0.005, High: 0.01, Moderate: 0.05},
		},
		{
			Name:          "Hydrology (GIS ±10m)",
			Description:   "Watersheds, hydrographic networks",
			PrecisionInfo: "GIS data ±10m",
			Points:        PointThresholds{Critical: 2.0, High: 5.0, Moderate: 10.0},
			PolygonAbs:    AreaThresholds{LowMax: 100, ModerateMax: 1000, HighMax: 5000},
			PolygonRatio:  RatioThresholds{LowMax: 0.05, ModerateMax: 0.20, HighMax: 0.50},
			Lines:         LineThresholds{Tolerance: 2.0, Critical: 0.5, High: 1.0, Moderate: 2.0},
		},
		{
			Name:          "Custom",
			Description:   "User-defined thresholds",
			PrecisionInfo: "Variable according to context",
			Points:        PointThresholds{Critical: 0.5, High: 1.5, Moderate: 5.0},
			PolygonAbs:    AreaThresholds{LowMax: 5, ModerateMax: 100, HighMax: 500},
			PolygonRatio:  RatioThresholds{LowMax: 0.05, ModerateMax: 0.20, HighMax: 0.50},
			Lines:         LineThresholds{Tolerance: 0.5, Critical: 0.01, High: 0.1, Moderate: 0.5},
		},
	}
}

// Catalog is an immutable collection of named profiles, built once at
// startup. There is no runtime mutation: extending the catalog produces a
// new Catalog.
type Catalog struct {
	profiles map[string]Profile
	order    []string
}

// NewCatalog builds the catalog of built-in profiles.
func NewCatalog() *Catalog {
	c := &Catalog{profiles: make(map[string]Profile)}
	for _, p := range builtinProfiles() {
		c.profiles[p.Name] = p
		c.order = append(c.order, p.Name)
	}
	return c
}

// WithProfiles returns a new catalog containing the receiver's profiles plus
// the given ones. Same-named profiles are replaced. Each added profile must
// pass Validate.
func (c *Catalog) WithProfiles(profiles ...Profile) (*Catalog, error) {
	next := &Catalog{profiles: make(map[string]Profile, len(c.profiles)+len(profiles))}
	for _, name := range c.order {
		next.profiles[name] = c.profiles[name]
		next.order = append(next.order, name)
	}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, exists := next.profiles[p.Name]; !exists {
			next.order = append(next.order, p.Name)
		}
		next.profiles[p.Name] = p
	}
	return next, nil
}

// Names returns the profile names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Get resolves a profile by name. Lookup is forgiving: exact match first,
// then a prefix match on the part before any "(" suffix (so "Topography"
// finds "Topography (Station ±0.01m)"), then the default Cadastre profile.
func (c *Catalog) Get(name string) Profile {
	if p, ok := c.profiles[name]; ok {
		return p
	}
	stem := strings.TrimSpace(strings.SplitN(name, "(", 2)[0])
	if stem != "" {
		matches := make([]string, 0, 1)
		for key := range c.profiles {
			if strings.HasPrefix(key, stem) {
				matches = append(matches, key)
			}
		}
		if len(matches) > 0 {
			// Deterministic pick when several share the stem.
			sort.Strings(matches)
			return c.profiles[matches[0]]
		}
	}
	return c.profiles[DefaultProfileName]
}

// catalogFile is the on-disk TOML shape: a table of profiles keyed by name.
type catalogFile struct {
	Profiles map[string]Profile `toml:"profiles"`
}

// LoadCatalogFile reads additional profiles from a TOML file and returns a
// new catalog extending base. File keys become profile names.
//
// Example file:
//
//	[profiles."Drone survey (±0.1m)"]
//	description = "UAV photogrammetry"
//	[profiles."Drone survey (±0.1m)".points]
//	critical = 0.1
//	high = 0.3
//	moderate = 1.0
//	...
func LoadCatalogFile(base *Catalog, path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	names := make([]string, 0, len(file.Profiles))
	for name := range file.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	profiles := make([]Profile, 0, len(names))
	for _, name := range names {
		p := file.Profiles[name]
		p.Name = name
		profiles = append(profiles, p)
	}
	return base.WithProfiles(profiles...)
}
