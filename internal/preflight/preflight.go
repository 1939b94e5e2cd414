package preflight

import (
	"context"

	"vidsub/internal/backend"
	"vidsub/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// HealthChecker queries backend health. backend.Client satisfies it.
type HealthChecker interface {
	Health(ctx context.Context) (backend.Health, error)
}

// RunAll executes every preflight check for cfg against checker.
func RunAll(ctx context.Context, cfg *config.Config, checker HealthChecker) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckBackendHealth(ctx, cfg.Backend.BaseURL, checker),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
