package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geodetica/cadscan/pkg/severity"
)

// profilesCommand creates the profiles command listing the accuracy profiles
// and their thresholds.
func (c *CLI) profilesCommand() *cobra.Command {
	var profilesFile string

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List accuracy profiles and their thresholds",
		Long: `List the built-in accuracy profiles and any loaded from a profiles file.

Each profile carries the severity cut points for point proximity, polygon
overlap ratio and absolute area, and line topology, tuned to one survey
precision context.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(profilesFile)
			if err != nil {
				return err
			}
			names := catalog.Names()
			printInfo("%d profiles available", len(names))
			printNewline()
			for _, name := range names {
				printProfile(catalog.Get(name), name == severity.DefaultProfileName)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&profilesFile, "profiles-file", "", "TOML file with additional profiles")
	return cmd
}

func printProfile(p severity.Profile, isDefault bool) {
	title := StyleTitle.Render(p.Name)
	if isDefault {
		title += " " + StyleDim.Render("(default)")
	}
	fmt.Println(title)
	if p.Description != "" {
		printDetail("%s", p.Description)
	}
	if p.PrecisionInfo != "" {
		printDetail("%s", p.PrecisionInfo)
	}
	printKeyValue("points", fmt.Sprintf("critical ≤ %gm · high ≤ %gm · moderate ≤ %gm",
		p.Points.Critical, p.Points.High, p.Points.Moderate))
	printKeyValue("ratio", fmt.Sprintf("low ≤ %.0f%% · moderate ≤ %.0f%% · high ≤ %.0f%% · else critical",
		100*p.PolygonRatio.LowMax, 100*p.PolygonRatio.ModerateMax, 100*p.PolygonRatio.HighMax))
	printKeyValue("area", fmt.Sprintf("low ≤ %gm² · moderate ≤ %gm² · high ≤ %gm²",
		p.PolygonAbs.LowMax, p.PolygonAbs.ModerateMax, p.PolygonAbs.HighMax))
	printKeyValue("lines", fmt.Sprintf("tolerance %gm · critical ≤ %gm · high ≤ %gm · moderate ≤ %gm",
		p.Lines.Tolerance, p.Lines.Critical, p.Lines.High, p.Lines.Moderate))
	printNewline()
}
