package preflight

import (
	"context"
	"fmt"
	"strings"

	"shelver/internal/config"
	"shelver/internal/failure"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding source is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Target directory (always checked)
	results = append(results, CheckWritableTarget("Target directory", cfg.Paths.TargetDir))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	if cfg.Sources.Catalog {
		results = append(results, CheckCatalog(ctx, cfg.Paths.CalibreLibrary, cfg.Paths.CalibreDB))
	}

	// Missing source folders are skipped during discovery, so they only warn.
	if cfg.Sources.Filesystem {
		for _, dir := range cfg.Paths.SourceDirs {
			res := CheckReadableDirectory("Source folder", dir)
			res.Optional = true
			results = append(results, res)
		}
	}

	return results
}

// Blocking returns an error describing every failed required check, or nil.
func Blocking(results []Result) error {
	var failed []string
	for _, r := range results {
		if r.Passed || r.Optional {
			continue
		}
		failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: preflight failed: %s", failure.ErrConfiguration, strings.Join(failed, "; "))
}
