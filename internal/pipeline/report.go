package pipeline

import (
	"errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/loaderbuild/internal/metrics"
	"git.home.luguber.info/inful/loaderbuild/internal/version"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// Report captures what one pipeline run did.
type Report struct {
	BuildID        string
	Start          time.Time
	End            time.Time
	Stages         []StageName // stages that ran, in order
	StageDurations map[StageName]time.Duration
	StageResults   map[StageName]StageResult
	State          State
	Status         int
	FailedStage    StageName
	Outcome        BuildOutcome
	Revision       string // git HEAD of the source tree, empty when unknown
	Branch         string // checked-out branch, empty on a detached HEAD
	Version        string
	Artifacts      []string
	Errors         []error
}

// NewReport starts a report for buildID.
func NewReport(buildID string) *Report {
	return &Report{
		BuildID:        buildID,
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
		StageResults:   make(map[StageName]StageResult),
		State:          StateStart,
		Version:        version.Version,
	}
}

// RecordStage stores the duration and result of a finished stage.
func (r *Report) RecordStage(stage StageName, d time.Duration, res StageResult) {
	r.Stages = append(r.Stages, stage)
	r.StageDurations[stage] = d
	r.StageResults[stage] = res
}

// Fail records the error that ended the run.
func (r *Report) Fail(se *StageError) {
	r.FailedStage = se.Stage
	r.Status = se.Status
	r.Errors = append(r.Errors, se)
}

// Finish sets the end time and derives the outcome.
func (r *Report) Finish(state State) {
	r.End = time.Now()
	r.State = state
	r.DeriveOutcome()
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// Succeeded reports whether the run reached done.
func (r *Report) Succeeded() bool { return r.State == StateDone && r.Status == 0 }

// DeriveOutcome sets the Outcome field based on recorded errors.
func (r *Report) DeriveOutcome() {
	if len(r.Errors) == 0 {
		r.Outcome = OutcomeSuccess
		return
	}
	for _, e := range r.Errors {
		var se *StageError
		if errors.As(e, &se) && se.Kind == StageErrorCanceled {
			r.Outcome = OutcomeCanceled
			return
		}
	}
	r.Outcome = OutcomeFailed
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	s := fmt.Sprintf("build=%s outcome=%s status=%d stages=%d duration=%s",
		r.BuildID, r.Outcome, r.Status, len(r.Stages), r.Duration().Truncate(time.Millisecond))
	if r.FailedStage != "" {
		s += " failed_stage=" + string(r.FailedStage)
	}
	return s
}

func outcomeLabel(o BuildOutcome) metrics.BuildOutcomeLabel {
	switch o {
	case OutcomeSuccess:
		return metrics.OutcomeSuccess
	case OutcomeCanceled:
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeFailed
	}
}

func resultLabel(r StageResult) metrics.ResultLabel {
	switch r {
	case StageResultSuccess:
		return metrics.ResultSuccess
	case StageResultCanceled:
		return metrics.ResultCanceled
	default:
		return metrics.ResultFatal
	}
}
