package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/anchorage/internal/util/prerequisites"
)

// Doctor handles the doctor command. It reports whether the configured
// docker-machine and docker executables are installed.
func Doctor(ctx context.Context, g *Globals) error {
	cfg, err := loadConfig(g.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	results := prerequisites.Check(ctx, prerequisites.DefaultTools(cfg.Executor.DockerMachine, cfg.Executor.Docker))

	out := g.stdout()
	for _, r := range results.Results {
		if !r.Found {
			fmt.Fprintf(out, "[!!] %s: not found in PATH (%s)\n", r.Tool.Name, r.Tool.InstallURL)
			continue
		}
		version := r.Version
		if version == "" {
			version = "unknown version"
		}
		fmt.Fprintf(out, "[OK] %s: %s (%s)\n", r.Tool.Name, version, r.Path)
	}
	return results.Error()
}
