package analysis

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	cerrors "github.com/geodetica/cadscan/pkg/errors"
	"github.com/geodetica/cadscan/pkg/feature"
	"github.com/geodetica/cadscan/pkg/geometry"
	"github.com/geodetica/cadscan/pkg/observability"
	"github.com/geodetica/cadscan/pkg/severity"
)

// State is the lifecycle phase of an analysis run.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCancelled
	StateCompleted
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCancelled:
		return "cancelled"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Request describes one analysis run: up to one layer per geometry kind plus
// the tuning knobs. Zero-valued epsilons and distances fall back to profile
// defaults.
type Request struct {
	Polygons *feature.Layer
	Lines    *feature.Layer
	Points   *feature.Layer

	// Profile names the accuracy profile; unknown names resolve to the
	// catalog default.
	Profile string

	EpsilonArea      float64
	EpsilonDist      float64
	MaxPointDistance float64
	MinPointDistance float64

	// IDFields maps layer IDs to the attribute holding the feature's
	// business identifier. The cadastral checks need entries for both the
	// point and the polygon layer.
	IDFields map[string]string

	// GroupField partitions points into duplicate groups when set.
	GroupField string

	// Progress, when set, receives the percent complete (0..100) as
	// steps finish.
	Progress func(percent int)
}

// Report is the outcome of one run: terminal state, deduplicated results and
// any warnings accumulated along the way.
type Report struct {
	RunID    string
	State    State
	Profile  string
	Results  []Result
	Counts   map[Kind]int
	Warnings []string
	Duration time.Duration
}

// Engine sequences the anomaly detectors over the layers of a Request. A
// single logical worker executes the whole run; cancellation is cooperative
// through the context and yields whatever results completed steps produced.
type Engine struct {
	geom    *geometry.Engine
	catalog *severity.Catalog
	logger  *log.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the run logger. The default discards output.
func WithLogger(l *log.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine builds an analysis engine over the given geometry engine and
// profile catalog.
func NewEngine(geom *geometry.Engine, catalog *severity.Catalog, opts ...EngineOption) *Engine {
	e := &Engine{
		geom:    geom,
		catalog: catalog,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run tracks the mutable state of one analysis pass.
type run struct {
	report     Report
	totalSteps int
	step       int
	progress   func(int)
}

func (r *run) warn(logger *log.Logger, msg string, kv ...any) {
	logger.Warn(msg, kv...)
	r.report.Warnings = append(r.report.Warnings, msg)
}

// Run executes the analysis described by req. The detectors fire in a fixed
// case order driven by which layers are present: polygon overlaps when only
// polygons are loaded, the cadastral checks when both points and polygons
// are, point proximity (or grouped duplicate detection when GroupField is
// set) when only points are, and the line checks whenever lines are present.
// Cancellation surfaces as StateCancelled with partial results, not as an
// error; a detector panic surfaces as StateFailed.
func (e *Engine) Run(ctx context.Context, req Request) (report Report, err error) {
	start := time.Now()
	r := &run{
		report: Report{
			RunID:   uuid.NewString(),
			State:   StateRunning,
			Profile: e.catalog.Get(req.Profile).Name,
		},
		progress: req.Progress,
	}

	logger := e.logger.With("run", r.report.RunID)
	observability.Analysis().OnRunStart(ctx, r.report.RunID, r.report.Profile)

	defer func() {
		r.report.Duration = time.Since(start)
		r.report.Counts = make(map[Kind]int, len(r.report.Results))
		for _, res := range r.report.Results {
			r.report.Counts[res.Kind]++
		}
		report = r.report
		observability.Analysis().OnRunComplete(ctx, r.report.RunID, len(r.report.Results), r.report.Duration, err)
	}()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("analysis run panicked", "panic", rec)
			r.report.State = StateFailed
			err = cerrors.New(cerrors.ErrCodeInternal, "analysis run panicked: %v", rec)
		}
	}()

	profile := e.catalog.Get(req.Profile)
	logger.Info("starting analysis", "profile", profile.Name)

	polygonCase := req.Polygons != nil && req.Points == nil
	cadastralCase := req.Polygons != nil && req.Points != nil
	pointCase := req.Points != nil && req.Polygons == nil
	lineCase := req.Lines != nil

	if cadastralCase && !e.cadastralConfigured(r, logger, req) {
		cadastralCase = false
	}

	switch {
	case polygonCase:
		r.totalSteps += 2
	case cadastralCase:
		r.totalSteps += 4
	case pointCase:
		r.totalSteps++
	}
	if lineCase {
		r.totalSteps += 3
	}
	if r.totalSteps == 0 {
		logger.Info("nothing to analyze")
		r.report.State = StateCompleted
		return r.report, nil
	}

	runErr := e.runCases(ctx, req, profile, r, logger, cadastralCase)
	if runErr != nil {
		if cerrors.Is(runErr, cerrors.ErrCodeCancelled) {
			logger.Warn("analysis cancelled", "results", len(r.report.Results))
			r.report.State = StateCancelled
			return r.report, nil
		}
		r.report.State = StateFailed
		return r.report, runErr
	}

	r.report.Results = Deduplicate(r.report.Results)
	r.report.State = StateCompleted
	logger.Info("analysis completed", "results", len(r.report.Results), "duration", time.Since(start))
	return r.report, nil
}

func (e *Engine) cadastralConfigured(r *run, logger *log.Logger, req Request) bool {
	ptField := req.IDFields[req.Points.ID]
	pgField := req.IDFields[req.Polygons.ID]
	if ptField == "" || pgField == "" {
		r.warn(logger, "cadastral checks skipped, ID fields not configured for both layers")
		return false
	}
	if !req.Points.HasField(ptField) {
		r.warn(logger, "cadastral checks skipped, point layer has no field "+ptField)
		return false
	}
	if !req.Polygons.HasField(pgField) {
		r.warn(logger, "cadastral checks skipped, polygon layer has no field "+pgField)
		return false
	}
	return true
}

func (e *Engine) runCases(ctx context.Context, req Request, profile severity.Profile, r *run, logger *log.Logger, cadastralCase bool) error {
	polygonCase := req.Polygons != nil && req.Points == nil
	pointCase := req.Points != nil && req.Polygons == nil

	if polygonCase {
		snaps := e.capture(ctx, req.Polygons, req.IDFields[req.Polygons.ID], "")
		if err := e.runStep(ctx, r, logger, "polygon_overlap", len(snaps), func() ([]Result, error) {
			return DetectPolygonOverlaps(ctx, e.geom, snaps, PolygonOverlapParams{Profile: profile, EpsilonArea: req.EpsilonArea})
		}); err != nil {
			feature.Release(snaps)
			return err
		}
		// One merged pass covers both overlap kinds; the second advance
		// keeps the two-step progress scale.
		r.advance(ctx, logger)
		feature.Release(snaps)
	}

	if cadastralCase {
		ptSnaps := e.capture(ctx, req.Points, req.IDFields[req.Points.ID], "")
		pgSnaps := e.capture(ctx, req.Polygons, req.IDFields[req.Polygons.ID], "")
		err := e.runStep(ctx, r, logger, "cadastral_topology", len(ptSnaps)+len(pgSnaps), func() ([]Result, error) {
			return DetectCadastralTopology(ctx, e.geom, ptSnaps, pgSnaps, CadastralParams{})
		})
		// The four checks run in one detector call; the remaining steps
		// keep the progress scale aligned with the active case.
		if err == nil {
			r.advance(ctx, logger)
			r.advance(ctx, logger)
			r.advance(ctx, logger)
		}
		feature.Release(ptSnaps)
		feature.Release(pgSnaps)
		if err != nil {
			return err
		}
	}

	if pointCase {
		snaps := e.capture(ctx, req.Points, req.IDFields[req.Points.ID], req.GroupField)
		pp := PointParams{
			Profile:     profile,
			EpsilonDist: req.EpsilonDist,
			MinDistance: req.MinPointDistance,
			MaxDistance: req.MaxPointDistance,
		}
		// Grouped mode replaces the proximity scan: sub-threshold pairs
		// inside a group are duplicates, not proximity findings, and must
		// not be reported twice.
		err := e.runStep(ctx, r, logger, "point_checks", len(snaps), func() ([]Result, error) {
			if req.GroupField != "" {
				return DetectPointDuplicates(ctx, e.geom, snaps, pp)
			}
			return DetectPointProximity(ctx, e.geom, snaps, pp)
		})
		feature.Release(snaps)
		if err != nil {
			return err
		}
	}

	if req.Lines != nil {
		snaps := e.capture(ctx, req.Lines, req.IDFields[req.Lines.ID], "")
		lp := LineParams{Profile: profile, EpsilonDist: req.EpsilonDist}
		steps := []struct {
			name string
			fn   func() ([]Result, error)
		}{
			{"line_self_intersection", func() ([]Result, error) {
				return DetectLineSelfIntersections(ctx, e.geom, snaps, lp)
			}},
			{"line_overlap", func() ([]Result, error) {
				return DetectLineOverlaps(ctx, e.geom, snaps, lp)
			}},
			{"line_dangle", func() ([]Result, error) {
				return DetectLineDangles(ctx, e.geom, snaps, lp)
			}},
		}
		for _, s := range steps {
			if err := e.runStep(ctx, r, logger, s.name, len(snaps), s.fn); err != nil {
				feature.Release(snaps)
				return err
			}
		}
		feature.Release(snaps)
	}
	return nil
}

// runStep executes one detector, appends its results and advances progress.
func (e *Engine) runStep(ctx context.Context, r *run, logger *log.Logger, name string, featureCount int, fn func() ([]Result, error)) error {
	start := time.Now()
	observability.Analysis().OnAnalyzerStart(ctx, name, featureCount)
	results, err := fn()
	observability.Analysis().OnAnalyzerComplete(ctx, name, len(results), time.Since(start), err)

	// A cancelled detector still hands back what it found; keep it.
	for _, res := range results {
		observability.Analysis().OnResult(ctx, name, string(res.Kind), res.Severity.String())
	}
	r.report.Results = append(r.report.Results, results...)
	if err != nil {
		return err
	}
	logger.Info("analyzer finished", "analyzer", name, "findings", len(results))
	r.advance(ctx, logger)
	return nil
}

func (r *run) advance(ctx context.Context, logger *log.Logger) {
	r.step++
	pct := 100 * r.step / r.totalSteps
	observability.Analysis().OnProgress(ctx, r.report.RunID, pct)
	if r.progress != nil {
		r.progress(pct)
	}
	logger.Debug("progress", "percent", pct)
}

func (e *Engine) capture(ctx context.Context, layer *feature.Layer, idField, groupField string) []feature.Snapshot {
	snaps := feature.Capture(e.geom, layer, feature.SnapshotOptions{IDField: idField, GroupField: groupField})
	observability.Layer().OnSnapshot(ctx, layer.ID, len(snaps), layer.Count()-len(snaps))
	return snaps
}
