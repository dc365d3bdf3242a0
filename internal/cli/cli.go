// Package cli implements the cadscan command-line interface.
//
// This package provides commands for running the anomaly analysis over
// GeoJSON layers, inspecting the built-in accuracy profiles, and exporting
// findings. The CLI is built using cobra and supports verbose logging via
// the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - analyze: Run the anomaly detectors over polygon, line and point layers
//   - profiles: List the accuracy profiles and their thresholds
//   - export: Convert a saved JSON report to CSV or GeoJSON
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/geodetica/cadscan/pkg/buildinfo"
	"github.com/geodetica/cadscan/pkg/severity"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "cadscan"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Cadscan detects geometric anomalies in surveyed vector data",
		Long:         `Cadscan is a CLI tool for detecting and classifying geometric anomalies in surveyed and cadastral vector datasets: polygon overlaps, line topology defects, duplicate survey points, and point-to-parcel structure mismatches.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.profilesCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Profile Catalog
// =============================================================================

// loadCatalog builds the profile catalog, layering an optional TOML profile
// file over the built-in presets.
func loadCatalog(path string) (*severity.Catalog, error) {
	catalog := severity.NewCatalog()
	if path == "" {
		return catalog, nil
	}
	return severity.LoadCatalogFile(catalog, path)
}
