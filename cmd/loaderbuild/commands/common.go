package commands

import (
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/loaderbuild/internal/build"
	"git.home.luguber.info/inful/loaderbuild/internal/config"
	"git.home.luguber.info/inful/loaderbuild/internal/eventstore"
	"git.home.luguber.info/inful/loaderbuild/internal/logfields"
	"git.home.luguber.info/inful/loaderbuild/internal/metrics"
)

// SourceFlags are the per-command flags locating the build inputs and outputs.
type SourceFlags struct {
	Build     string `short:"b" name:"build" help:"Output directory name (default from config: build)"`
	SourceDir string `name:"source-dir" help:"Directory holding loader.s and friends (default from config)" type:"path"`
}

// loadConfig reads the configuration file and layers the flags over it.
func loadConfig(root *CLI, flags SourceFlags) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyOverrides(config.Overrides{
		SourceDir:   flags.SourceDir,
		Output:      flags.Build,
		HistoryPath: root.HistoryDB,
		MetricsFile: root.MetricsFile,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newService wires the optional history store and metrics textfile into a
// build service. The returned cleanup closes what was opened.
func newService(g *Global, cfg *config.Config) (*build.Service, func(), error) {
	svc := build.NewService(cfg).WithConsole(g.Console)
	cleanup := func() {}

	if cfg.Metrics.TextfilePath != "" {
		reg := prom.NewRegistry()
		svc.WithRecorder(metrics.NewPrometheusRecorder(reg)).WithTextfile(cfg.Metrics.TextfilePath, reg)
	}

	if cfg.History.Path != "" {
		store, err := eventstore.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, cleanup, err
		}
		svc.WithHistory(store)
		cleanup = func() {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close history database", logfields.Path(cfg.History.Path), logfields.Error(err))
			}
		}
	}
	return svc, cleanup, nil
}
