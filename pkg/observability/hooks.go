// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about analysis runs, layer loading, and result export.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetAnalysisHooks(&myAnalysisHooks{})
//	    observability.SetLayerHooks(&myLayerHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Analysis().OnAnalyzerStart(ctx, name, featureCount)
//	// ... run analyzer ...
//	observability.Analysis().OnAnalyzerComplete(ctx, name, resultCount, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Analysis Hooks
// =============================================================================

// AnalysisHooks receives events from anomaly analysis runs.
type AnalysisHooks interface {
	// Run lifecycle events
	OnRunStart(ctx context.Context, runID, profile string)
	OnRunComplete(ctx context.Context, runID string, resultCount int, duration time.Duration, err error)

	// Analyzer events
	OnAnalyzerStart(ctx context.Context, name string, featureCount int)
	OnAnalyzerComplete(ctx context.Context, name string, resultCount int, duration time.Duration, err error)

	// OnResult fires once per finding an analyzer produces.
	OnResult(ctx context.Context, analyzer, kind, severity string)

	// Progress events, percent in [0, 100]
	OnProgress(ctx context.Context, runID string, percent int)
}

// =============================================================================
// Layer Hooks
// =============================================================================

// LayerHooks receives events from layer loading and snapshot capture.
type LayerHooks interface {
	// OnLayerLoad records a loaded layer.
	OnLayerLoad(ctx context.Context, layerID string, featureCount int, duration time.Duration, err error)

	// OnSnapshot records a snapshot capture.
	OnSnapshot(ctx context.Context, layerID string, captured, skipped int)
}

// =============================================================================
// Export Hooks
// =============================================================================

// ExportHooks receives events from result export operations.
type ExportHooks interface {
	// OnExport records a completed export.
	OnExport(ctx context.Context, format string, resultCount int, bytes int, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopAnalysisHooks is a no-op implementation of AnalysisHooks.
type NoopAnalysisHooks struct{}

func (NoopAnalysisHooks) OnRunStart(context.Context, string, string)                          {}
func (NoopAnalysisHooks) OnRunComplete(context.Context, string, int, time.Duration, error)    {}
func (NoopAnalysisHooks) OnAnalyzerStart(context.Context, string, int)                        {}
func (NoopAnalysisHooks) OnAnalyzerComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopAnalysisHooks) OnResult(context.Context, string, string, string) {}
func (NoopAnalysisHooks) OnProgress(context.Context, string, int)          {}

// NoopLayerHooks is a no-op implementation of LayerHooks.
type NoopLayerHooks struct{}

func (NoopLayerHooks) OnLayerLoad(context.Context, string, int, time.Duration, error) {}
func (NoopLayerHooks) OnSnapshot(context.Context, string, int, int)                   {}

// NoopExportHooks is a no-op implementation of ExportHooks.
type NoopExportHooks struct{}

func (NoopExportHooks) OnExport(context.Context, string, int, int, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	analysisHooks AnalysisHooks = NoopAnalysisHooks{}
	layerHooks    LayerHooks    = NoopLayerHooks{}
	exportHooks   ExportHooks   = NoopExportHooks{}
	hooksMu       sync.RWMutex
)

// SetAnalysisHooks registers custom analysis hooks.
// This should be called once at application startup before any analysis runs.
func SetAnalysisHooks(h AnalysisHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		analysisHooks = h
	}
}

// SetLayerHooks registers custom layer hooks.
// This should be called once at application startup before any layers load.
func SetLayerHooks(h LayerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layerHooks = h
	}
}

// SetExportHooks registers custom export hooks.
// This should be called once at application startup before any exports.
func SetExportHooks(h ExportHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		exportHooks = h
	}
}

// Analysis returns the registered analysis hooks.
func Analysis() AnalysisHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return analysisHooks
}

// Layer returns the registered layer hooks.
func Layer() LayerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layerHooks
}

// Export returns the registered export hooks.
func Export() ExportHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return exportHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	analysisHooks = NoopAnalysisHooks{}
	layerHooks = NoopLayerHooks{}
	exportHooks = NoopExportHooks{}
}
