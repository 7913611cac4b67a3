package preflight

import (
	"context"
	"fmt"
	"os"

	"telecine/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll creates the output directory if needed and checks that it is
// writable and has room for the job. Capture does not start unless every
// result passed.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return []Result{{Name: "Preflight", Detail: err.Error()}}
	}

	var results []Result
	output := cfg.Paths.OutputDir
	if err := os.MkdirAll(output, 0o755); err != nil {
		return append(results, Result{Name: "Output directory", Detail: fmt.Sprintf("%s (error: %v)", output, err)})
	}
	results = append(results, CheckDirectoryAccess("Output directory", output))
	results = append(results, CheckFreeSpace("Free space", output, cfg.Job.MinFreeGiB))

	if err := cfg.EnsureDirectories(); err != nil {
		results = append(results, Result{Name: "State directory", Detail: err.Error()})
	} else {
		results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
