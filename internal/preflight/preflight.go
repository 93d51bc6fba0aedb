package preflight

import (
	"context"

	"golang.org/x/sync/errgroup"

	"reelforge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Check is one named probe. Remote checks call out to a provider and are
// skipped by shallow health reports.
type Check struct {
	Name   string
	Remote bool
	Run    func(ctx context.Context) Result
}

// Plan lists the checks that apply to cfg: directories the daemon writes,
// credentials for the configured generators and backends, and a live LLM
// probe when script generation is enabled.
func Plan(cfg *config.Config) []Check {
	if cfg == nil {
		return nil
	}
	checks := []Check{
		dirCheck("Work directory", cfg.Paths.WorkDir),
		dirCheck("Log directory", cfg.Paths.LogDir),
	}
	if cfg.Storage.Backend == config.StorageLocal {
		checks = append(checks, dirCheck("Artifact directory", cfg.Storage.LocalDir))
	}
	checks = append(checks,
		credentialCheck("Voice API key", cfg.Voice.APIKey),
		credentialCheck("Image API key", cfg.Image.APIKey),
	)
	if cfg.Render.Backend == config.RenderBackendShotstack {
		checks = append(checks, credentialCheck("Shotstack API key", cfg.Shotstack.APIKey))
	}
	if llm := cfg.GetLLM(); llm.APIKey != "" {
		checks = append(checks, Check{
			Name:   "Script LLM",
			Remote: true,
			Run:    func(ctx context.Context) Result { return CheckLLM(ctx, "Script LLM", llm) },
		})
	}
	return checks
}

// Run executes checks concurrently and returns results in plan order. When
// local is true remote checks are skipped.
func Run(ctx context.Context, checks []Check, local bool) []Result {
	selected := make([]Check, 0, len(checks))
	for _, check := range checks {
		if local && check.Remote {
			continue
		}
		selected = append(selected, check)
	}
	results := make([]Result, len(selected))

	var g errgroup.Group
	for i, check := range selected {
		g.Go(func() error {
			results[i] = check.Run(ctx)
			results[i].Name = check.Name
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// RunAll executes every applicable check, including remote probes.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return Run(ctx, Plan(cfg), false)
}

// RunLocal executes the checks that do not leave the host.
func RunLocal(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return Run(ctx, Plan(cfg), true)
}

// Failed filters results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
