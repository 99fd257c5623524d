package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	ferrors "git.home.luguber.info/inful/loaderbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/loaderbuild/internal/logfields"
	"git.home.luguber.info/inful/loaderbuild/internal/observability"
)

// BuildState is the mutable state threaded through one run.
type BuildState struct {
	Report   *Report
	Machine  *Machine
	Observer Observer
}

// NewBuildState prepares state for a run recorded into report.
func NewBuildState(report *Report, obs Observer) *BuildState {
	if obs == nil {
		obs = NoopObserver{}
	}
	return &BuildState{Report: report, Machine: NewMachine(), Observer: obs}
}

// RunStages executes stages in order, recording timing and stopping on the
// first failure. The returned error is always a *StageError.
func RunStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := NewCanceledStageError(st.Name, ctx.Err())
			bs.fail(st.Name, 0, StageResultCanceled, se)
			return se
		default:
		}

		bs.Observer.OnStageStart(st.Name)
		slog.DebugContext(ctx, "Stage starting", logfields.BuildID(bs.Report.BuildID), logfields.Stage(string(st.Name)))

		t0 := time.Now()
		err := st.Fn(observability.WithStage(ctx, string(st.Name)), bs)
		dur := time.Since(t0)

		if err != nil {
			var se *StageError
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				se = NewCanceledStageError(st.Name, err)
				bs.fail(st.Name, dur, StageResultCanceled, se)
			} else {
				se = NewFatalStageError(st.Name, err)
				bs.fail(st.Name, dur, StageResultFatal, se)
			}
			slog.ErrorContext(ctx, "Stage failed",
				logfields.BuildID(bs.Report.BuildID),
				logfields.Stage(string(st.Name)),
				logfields.ExitCode(se.Status),
				logfields.Duration(dur),
				logfields.Error(err))
			return se
		}

		if terr := bs.Machine.Transition(st.Next); terr != nil {
			se := NewFatalStageError(st.Name, ferrors.WrapError(terr, ferrors.CategoryInternal, "stage left the build in an invalid state").Fatal().Build())
			bs.fail(st.Name, dur, StageResultFatal, se)
			return se
		}
		bs.Report.RecordStage(st.Name, dur, StageResultSuccess)
		bs.Report.State = bs.Machine.Current()
		bs.Observer.OnStageComplete(st.Name, dur, StageResultSuccess)
		slog.InfoContext(ctx, "Stage completed",
			logfields.BuildID(bs.Report.BuildID),
			logfields.Stage(string(st.Name)),
			logfields.State(string(bs.Machine.Current())),
			logfields.Duration(dur))
	}

	if err := bs.Machine.Transition(StateDone); err != nil {
		last := StageName("")
		if n := len(stages); n > 0 {
			last = stages[n-1].Name
		}
		se := NewFatalStageError(last, ferrors.WrapError(err, ferrors.CategoryInternal, "pipeline finished in an invalid state").Fatal().Build())
		bs.Machine.Fail()
		bs.Report.Fail(se)
		return se
	}
	return nil
}

func (bs *BuildState) fail(stage StageName, d time.Duration, res StageResult, se *StageError) {
	bs.Machine.Fail()
	bs.Report.RecordStage(stage, d, res)
	bs.Report.Fail(se)
	bs.Observer.OnStageComplete(stage, d, res)
}
