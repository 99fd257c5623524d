// Package eventstore keeps an append-only sqlite log of pipeline runs and
// folds it back into per-build summaries.
package eventstore

import (
	"context"
	"time"
)

// Status values of a summary that never saw PipelineCompleted.
const buildStatusRunning = "running"

// StageSummary is one stage of a recorded build.
type StageSummary struct {
	Stage    string        `json:"stage"`
	Result   string        `json:"result"`
	Duration time.Duration `json:"duration"`
}

// BuildSummary is a read model of one recorded build.
type BuildSummary struct {
	BuildID     string         `json:"build_id"`
	Status      string         `json:"status"` // running, or the final outcome
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Duration    time.Duration  `json:"duration,omitempty"`
	ExitStatus  int            `json:"exit_status"`
	FailedStage string         `json:"failed_stage,omitempty"`
	Error       string         `json:"error,omitempty"`
	SourceDir   string         `json:"source_dir,omitempty"`
	Output      string         `json:"output,omitempty"`
	Revision    string         `json:"revision,omitempty"`
	Branch      string         `json:"branch,omitempty"`
	Version     string         `json:"version,omitempty"`
	Stages      []StageSummary `json:"stages,omitempty"`
}

// Running reports whether the build never recorded completion.
func (s *BuildSummary) Running() bool { return s.Status == buildStatusRunning }

// Summarize folds the events of one build into a summary. Events with an
// undecodable payload are skipped.
func Summarize(buildID string, events []Event) *BuildSummary {
	summary := &BuildSummary{BuildID: buildID, Status: buildStatusRunning}
	for i, event := range events {
		if i == 0 {
			summary.StartedAt = event.Timestamp()
		}
		switch event.Type() {
		case TypePipelineStarted:
			p, err := Decode[PipelineStarted](event)
			if err != nil {
				continue
			}
			summary.StartedAt = event.Timestamp()
			summary.SourceDir = p.SourceDir
			summary.Output = p.Output
			summary.Revision = p.Revision
			summary.Branch = p.Branch
			summary.Version = p.Version

		case TypeStageCompleted:
			p, err := Decode[StageCompleted](event)
			if err != nil {
				continue
			}
			summary.Stages = append(summary.Stages, StageSummary{
				Stage:    p.Stage,
				Result:   p.Result,
				Duration: time.Duration(p.DurationMS) * time.Millisecond,
			})

		case TypePipelineCompleted:
			p, err := Decode[PipelineCompleted](event)
			if err != nil {
				continue
			}
			completed := event.Timestamp()
			summary.CompletedAt = &completed
			summary.Duration = time.Duration(p.DurationMS) * time.Millisecond
			summary.Status = p.Outcome
			summary.ExitStatus = p.Status
			summary.FailedStage = p.FailedStage
			summary.Error = p.Error
		}
	}
	return summary
}

// Recent returns summaries of up to limit builds, newest first.
func Recent(ctx context.Context, s Store, limit int) ([]*BuildSummary, error) {
	ids, err := s.ListBuildIDs(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*BuildSummary, 0, len(ids))
	for _, id := range ids {
		events, err := s.GetByBuildID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, Summarize(id, events))
	}
	return out, nil
}
