package preflight

import (
	"aliyaal/internal/config"
	"aliyaal/internal/staging"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll checks every directory the worker writes to.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckDirectoryAccess("Temp directory", staging.Root(cfg.Paths.TempDir)))

	// Separation work dir (when configured)
	if cfg.Separation.WorkDir != "" {
		results = append(results, CheckDirectoryAccess("Separation work directory", cfg.Separation.WorkDir))
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
