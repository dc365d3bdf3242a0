package cli

import (
	"github.com/spf13/cobra"

	pkgio "github.com/geodetica/cadscan/pkg/io"
)

// exportCommand creates the export command, which converts a report saved
// with `analyze -o report.json` into another format without rerunning the
// analysis.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export <report.json>",
		Short: "Convert a saved analysis report to CSV or GeoJSON",
		Long: `Convert a JSON report produced by analyze into another format.

Examples:
  cadscan export report.json -o findings.csv -f csv
  cadscan export report.json -o findings.geojson -f geojson`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(args[0], output, format)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (required)")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format: json, csv or geojson")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func (c *CLI) runExport(path, output, format string) error {
	export, err := exporterFor(format)
	if err != nil {
		return err
	}

	report, err := pkgio.ImportJSON(path)
	if err != nil {
		return err
	}
	c.Logger.Debug("loaded report", "run", report.RunID, "findings", len(report.Results))

	if err := export(report, output); err != nil {
		return err
	}
	printSuccess("Exported %d findings", len(report.Results))
	printFile(output)
	return nil
}
