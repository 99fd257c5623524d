package commands

import (
	"context"
	"time"

	"git.home.luguber.info/inful/loaderbuild/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	SourceFlags
	Debounce time.Duration `help:"Quiet period after a change before rebuilding" default:"300ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, w.SourceFlags)
	if err != nil {
		return err
	}
	svc, cleanup, err := newService(g, cfg)
	defer cleanup()
	if err != nil {
		return err
	}

	watcher, err := watch.New(watch.Config{
		Dir:        cfg.SourceDir,
		Files:      cfg.InputFiles(),
		Debounce:   w.Debounce,
		InitialRun: true,
	}, func(ctx context.Context, _ string) error {
		_, err := svc.Run(ctx)
		return err
	})
	if err != nil {
		return err
	}
	return watcher.Run(g.Ctx)
}
