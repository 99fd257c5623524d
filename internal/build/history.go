package build

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/loaderbuild/internal/config"
	"git.home.luguber.info/inful/loaderbuild/internal/eventstore"
	"git.home.luguber.info/inful/loaderbuild/internal/logfields"
	"git.home.luguber.info/inful/loaderbuild/internal/pipeline"
)

// historyObserver appends the events of one run to the history store.
// Store failures are logged and never reach the pipeline.
type historyObserver struct {
	ctx     context.Context
	store   eventstore.Store
	buildID string
}

func newHistoryObserver(ctx context.Context, store eventstore.Store, buildID string) *historyObserver {
	// Record the outcome of a run interrupted by a signal as well.
	return &historyObserver{ctx: context.WithoutCancel(ctx), store: store, buildID: buildID}
}

func (h *historyObserver) started(cfg *config.Config, report *pipeline.Report) {
	h.append(eventstore.NewPipelineStarted(h.buildID, eventstore.PipelineStarted{
		SourceDir: cfg.SourceDir,
		Output:    cfg.OutputRoot(),
		Revision:  report.Revision,
		Branch:    report.Branch,
		Version:   report.Version,
	}))
}

func (h *historyObserver) OnStageStart(pipeline.StageName) {}

func (h *historyObserver) OnStageComplete(stage pipeline.StageName, d time.Duration, res pipeline.StageResult) {
	h.append(eventstore.NewStageCompleted(h.buildID, string(stage), string(res), d))
}

func (h *historyObserver) OnBuildComplete(report *pipeline.Report) {
	p := eventstore.PipelineCompleted{
		Outcome:     string(report.Outcome),
		State:       string(report.State),
		Status:      report.Status,
		FailedStage: string(report.FailedStage),
		DurationMS:  report.Duration().Milliseconds(),
	}
	if len(report.Errors) > 0 {
		p.Error = report.Errors[0].Error()
	}
	h.append(eventstore.NewPipelineCompleted(h.buildID, p))
}

func (h *historyObserver) append(e *eventstore.BaseEvent, err error) {
	if err == nil {
		err = eventstore.AppendEvent(h.ctx, h.store, e)
	}
	if err != nil {
		slog.WarnContext(h.ctx, "Failed to record build history",
			logfields.BuildID(h.buildID),
			logfields.Error(err))
	}
}
