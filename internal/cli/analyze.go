package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/geodetica/cadscan/pkg/analysis"
	"github.com/geodetica/cadscan/pkg/feature"
	"github.com/geodetica/cadscan/pkg/geometry"
	pkgio "github.com/geodetica/cadscan/pkg/io"
	"github.com/geodetica/cadscan/pkg/observability"
	"github.com/geodetica/cadscan/pkg/severity"
)

// analyzeOpts holds the command-line flags for the analyze command.
type analyzeOpts struct {
	polygons []string // polygon layer files, merged when several
	lines    []string // line layer files
	points   []string // point layer files

	profile      string // accuracy profile name
	profilesFile string // extra profiles TOML

	idFields   map[string]string // layer ID -> attribute field
	groupField string            // duplicate grouping attribute

	epsilonArea float64
	epsilonDist float64
	maxDistance float64
	minDistance float64
	geodesic    bool

	output string // output file path, stdout summary only if empty
	format string // json, csv or geojson
}

// analyzeCommand creates the analyze command, the main entry point of the
// tool: load layers, run the detectors, print a summary and optionally
// export the findings.
func (c *CLI) analyzeCommand() *cobra.Command {
	opts := analyzeOpts{format: "json"}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the anomaly detectors over GeoJSON layers",
		Long: `Run the anomaly detectors over polygon, line and point layers.

Which checks run depends on the layers given: polygon layers alone get the
overlap scan, point layers alone get the proximity check (or the grouped
duplicate check when --group-by is set), points plus polygons get the
cadastral structure checks (requires --id-field for both layers), and line
layers always get the line topology checks.

Examples:
  cadscan analyze --polygon parcels.geojson
  cadscan analyze --polygon parcels.geojson --polygon easements.geojson -o out.geojson -f geojson
  cadscan analyze --point markers.geojson --polygon parcels.geojson \
      --id-field markers=parcel_id --id-field parcels=parcel_id
  cadscan analyze --point markers.geojson --group-by block --profile Construction`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd, &opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.polygons, "polygon", nil, "polygon layer file (repeatable, merged)")
	cmd.Flags().StringArrayVar(&opts.lines, "line", nil, "line layer file (repeatable, merged)")
	cmd.Flags().StringArrayVar(&opts.points, "point", nil, "point layer file (repeatable, merged)")
	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "", "accuracy profile (default Land/Cadastre)")
	cmd.Flags().StringVar(&opts.profilesFile, "profiles-file", "", "TOML file with additional profiles")
	cmd.Flags().StringToStringVar(&opts.idFields, "id-field", nil, "layer=attribute holding the business ID")
	cmd.Flags().StringVar(&opts.groupField, "group-by", "", "attribute grouping points for duplicate checks")
	cmd.Flags().Float64Var(&opts.epsilonArea, "epsilon-area", 0, "area noise floor in m² (default 1e-6)")
	cmd.Flags().Float64Var(&opts.epsilonDist, "epsilon-dist", 0, "distance noise floor in m (default 1e-6)")
	cmd.Flags().Float64Var(&opts.maxDistance, "max-distance", 0, "proximity search ceiling in m (default from profile)")
	cmd.Flags().Float64Var(&opts.minDistance, "min-distance", 0, "proximity search floor in m")
	cmd.Flags().BoolVar(&opts.geodesic, "geodesic", false, "measure on the ellipsoid (layers in lon/lat)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (summary only if empty)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: json, csv or geojson")

	return cmd
}

func (c *CLI) runAnalyze(cmd *cobra.Command, opts *analyzeOpts) error {
	if len(opts.polygons)+len(opts.lines)+len(opts.points) == 0 {
		return fmt.Errorf("no layers given, use --polygon, --line or --point")
	}
	export, err := exporterFor(opts.format)
	if err != nil {
		return err
	}

	catalog, err := loadCatalog(opts.profilesFile)
	if err != nil {
		return err
	}

	var geomOpts []geometry.Option
	if opts.geodesic {
		geomOpts = append(geomOpts, geometry.WithGeodesic())
	}
	geom := geometry.NewEngine(geomOpts...)

	ctx := withLogger(cmd.Context(), c.Logger)
	prog := newProgress(c.Logger)
	req := analysis.Request{
		Profile:          opts.profile,
		EpsilonArea:      opts.epsilonArea,
		EpsilonDist:      opts.epsilonDist,
		MaxPointDistance: opts.maxDistance,
		MinPointDistance: opts.minDistance,
		IDFields:         map[string]string{},
		GroupField:       opts.groupField,
	}

	layerCount := 0
	for _, group := range []struct {
		files []string
		kind  string
		dst   **feature.Layer
	}{
		{opts.polygons, "polygons", &req.Polygons},
		{opts.lines, "lines", &req.Lines},
		{opts.points, "points", &req.Points},
	} {
		if len(group.files) == 0 {
			continue
		}
		layer, err := loadMerged(ctx, geom, group.kind, group.files)
		if err != nil {
			return err
		}
		*group.dst = layer
		layerCount += len(group.files)
	}
	prog.done(fmt.Sprintf("Loaded %d layers", layerCount))

	// The merged layer's ID field applies to all its sources; take any
	// configured field matching one of the merged file stems.
	for layerID, field := range opts.idFields {
		req.IDFields[layerID] = field
	}
	resolveMergedIDFields(&req)

	engine := analysis.NewEngine(geom, catalog, analysis.WithLogger(c.Logger))

	spinner := newSpinnerWithContext(ctx, "Analyzing layers")
	req.Progress = spinner.SetPercent
	spinner.Start()
	report, err := engine.Run(ctx, req)
	spinner.Stop()
	if err != nil {
		return err
	}

	printRunSummary(report)

	if opts.output != "" {
		if err := export(report, opts.output); err != nil {
			return err
		}
		printFile(opts.output)
	}
	return nil
}

// loadMerged loads every file of one geometry kind and merges them into a
// single source-tagged layer.
func loadMerged(ctx context.Context, geom *geometry.Engine, kind string, files []string) (*feature.Layer, error) {
	logger := loggerFromContext(ctx)
	layers := make([]*feature.Layer, 0, len(files))
	for _, f := range files {
		start := time.Now()
		l, err := feature.LoadGeoJSON(geom, f)
		if err != nil {
			observability.Layer().OnLayerLoad(ctx, f, 0, time.Since(start), err)
			return nil, err
		}
		observability.Layer().OnLayerLoad(ctx, l.ID, l.Count(), time.Since(start), nil)
		logger.Debug("loaded layer", "layer", l.ID, "features", l.Count())
		layers = append(layers, l)
	}
	if len(layers) == 1 {
		return layers[0], nil
	}
	return feature.Merge(kind, kind, layers...)
}

// resolveMergedIDFields lets --id-field entries keyed by a source file stem
// apply to the merged layer that swallowed it.
func resolveMergedIDFields(req *analysis.Request) {
	for _, layer := range []*feature.Layer{req.Polygons, req.Lines, req.Points} {
		if layer == nil {
			continue
		}
		if _, ok := req.IDFields[layer.ID]; ok {
			continue
		}
		for key, field := range req.IDFields {
			if layer.HasField(field) && key != layer.ID {
				req.IDFields[layer.ID] = field
				break
			}
		}
	}
}

func exporterFor(format string) (func(analysis.Report, string) error, error) {
	switch strings.ToLower(format) {
	case "json":
		return pkgio.ExportJSON, nil
	case "csv":
		return pkgio.ExportCSV, nil
	case "geojson":
		return pkgio.ExportGeoJSON, nil
	default:
		return nil, fmt.Errorf("unknown format %q, expected json, csv or geojson", format)
	}
}

func printRunSummary(report analysis.Report) {
	printNewline()
	switch report.State {
	case analysis.StateCompleted:
		if len(report.Results) == 0 {
			printSuccess("No anomalies found")
		} else {
			printSuccess("Analysis completed, %d findings", len(report.Results))
		}
	case analysis.StateCancelled:
		printWarning("Analysis cancelled, %d findings collected", len(report.Results))
	default:
		printError("Analysis ended in state %s", report.State)
	}
	printKeyValue("profile", report.Profile)
	printKeyValue("run", report.RunID)

	counts := make(map[severity.Severity]int)
	for _, r := range report.Results {
		counts[r.Severity]++
	}
	printSeverityCounts(counts)
	names := make([]string, 0, len(report.Counts))
	for kind := range report.Counts {
		names = append(names, string(kind))
	}
	sort.Strings(names)
	for _, name := range names {
		printDetail("%s: %d", name, report.Counts[analysis.Kind(name)])
	}
	for _, w := range report.Warnings {
		printWarning("%s", w)
	}
}
