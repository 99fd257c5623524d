package commands

import (
	"log/slog"

	"git.home.luguber.info/inful/loaderbuild/internal/logfields"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	SourceFlags
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, b.SourceFlags)
	if err != nil {
		return err
	}
	svc, cleanup, err := newService(g, cfg)
	defer cleanup()
	if err != nil {
		return err
	}

	report, err := svc.Run(g.Ctx)
	slog.Info("Build finished", logfields.BuildID(report.BuildID), "summary", report.Summary())
	return err
}
