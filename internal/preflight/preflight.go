package preflight

import (
	"context"
	"path/filepath"

	"unitcam/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Lock directory", cfg.Paths.LockDir),
		CheckDirectoryAccess("Chart directory", filepath.Dir(cfg.Paths.ChartPath)),
		CheckServer(ctx, cfg.Server.BaseURL, cfg.Server.TimeoutSeconds),
	}

	if cfg.Camera.EnvironmentDevice != "" {
		results = append(results, CheckCameraDevice("Rear camera", cfg.Camera.EnvironmentDevice))
	}
	if cfg.Camera.UserDevice != "" {
		results = append(results, CheckCameraDevice("Front camera", cfg.Camera.UserDevice))
	}
	for _, device := range cfg.Camera.AnyDevices {
		results = append(results, CheckCameraDevice("Fallback camera", device))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
