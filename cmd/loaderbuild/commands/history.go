package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/loaderbuild/internal/eventstore"
	ferrors "git.home.luguber.info/inful/loaderbuild/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int  `short:"n" help:"Number of builds to show" default:"10"`
	JSON  bool `name:"json" help:"Print the summaries as JSON"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, SourceFlags{})
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return ferrors.ValidationError("no history database configured (use --history-db or history.path)").Build()
	}

	store, err := eventstore.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	summaries, err := eventstore.Recent(g.Ctx, store, h.Limit)
	if err != nil {
		return err
	}

	if h.JSON {
		enc := json.NewEncoder(g.Console.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		g.Console.Printf("No builds recorded")
		return nil
	}
	for _, s := range summaries {
		g.Console.Printf("%s", formatSummary(s))
	}
	return nil
}

func formatSummary(s *eventstore.BuildSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %-8s status=%d", s.StartedAt.Format(time.DateTime), s.BuildID, s.Status, s.ExitStatus)
	if s.FailedStage != "" {
		fmt.Fprintf(&b, " stage=%s", s.FailedStage)
	}
	if s.Duration > 0 {
		fmt.Fprintf(&b, " duration=%s", s.Duration)
	}
	if s.Revision != "" {
		fmt.Fprintf(&b, " rev=%s", s.Revision)
	}
	if s.Branch != "" {
		fmt.Fprintf(&b, " branch=%s", s.Branch)
	}
	return b.String()
}
