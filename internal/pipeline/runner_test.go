package pipeline

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/loaderbuild/internal/console"
	"git.home.luguber.info/inful/loaderbuild/internal/observability"
)

type recordingObserver struct {
	started   []StageName
	completed map[StageName]StageResult
	reports   []*Report
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{completed: make(map[StageName]StageResult)}
}

func (r *recordingObserver) OnStageStart(stage StageName) { r.started = append(r.started, stage) }
func (r *recordingObserver) OnStageComplete(stage StageName, _ time.Duration, res StageResult) {
	r.completed[stage] = res
}
func (r *recordingObserver) OnBuildComplete(report *Report) { r.reports = append(r.reports, report) }

func TestRunStagesSuccess(t *testing.T) {
	var ran []StageName
	fn := func(name StageName) Stage {
		return func(context.Context, *BuildState) error {
			ran = append(ran, name)
			return nil
		}
	}
	defs := NewPipeline().
		Add(StageCheckTools, StateToolsChecked, fn(StageCheckTools)).
		Add(StageCompile, StateCompiled, fn(StageCompile)).
		Add(StageLink, StateLinked, fn(StageLink)).
		Add(StageAssembleImage, StateImaged, fn(StageAssembleImage)).
		Build()

	obs := newRecordingObserver()
	bs := NewBuildState(NewReport("b1"), obs)
	require.NoError(t, RunStages(t.Context(), bs, defs))

	order := []StageName{StageCheckTools, StageCompile, StageLink, StageAssembleImage}
	assert.Equal(t, order, ran)
	assert.Equal(t, order, obs.started)
	assert.Equal(t, order, bs.Report.Stages)
	assert.Equal(t, StateDone, bs.Machine.Current())
	for _, s := range order {
		assert.Equal(t, StageResultSuccess, bs.Report.StageResults[s])
	}
}

func TestRunStagesStopsAtFirstFailure(t *testing.T) {
	var ran []StageName
	defs := NewPipeline().
		Add(StageCheckTools, StateToolsChecked, func(context.Context, *BuildState) error {
			ran = append(ran, StageCheckTools)
			return nil
		}).
		Add(StageCompile, StateCompiled, func(context.Context, *BuildState) error {
			ran = append(ran, StageCompile)
			return statusErr(2)
		}).
		Add(StageLink, StateLinked, func(context.Context, *BuildState) error {
			ran = append(ran, StageLink)
			return nil
		}).
		Add(StageAssembleImage, StateImaged, func(context.Context, *BuildState) error {
			ran = append(ran, StageAssembleImage)
			return nil
		}).
		Build()

	obs := newRecordingObserver()
	bs := NewBuildState(NewReport("b2"), obs)
	err := RunStages(t.Context(), bs, defs)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageCompile, se.Stage)
	assert.Equal(t, StageErrorFatal, se.Kind)
	assert.Equal(t, 2, se.Status)
	assert.Equal(t, []StageName{StageCheckTools, StageCompile}, ran)
	assert.Equal(t, StateFailed, bs.Machine.Current())
	assert.Equal(t, StageCompile, bs.Report.FailedStage)
	assert.Equal(t, 2, bs.Report.Status)
	assert.Equal(t, StageResultFatal, obs.completed[StageCompile])
	assert.NotContains(t, obs.started, StageLink)
}

func TestRunStagesTagsContextWithStage(t *testing.T) {
	seen := map[string]string{}
	defs := fullDefs(func(ctx context.Context, _ *BuildState) error {
		lc := observability.GetContext(ctx)
		seen[lc.Stage] = lc.BuildID
		return nil
	})
	ctx := observability.WithBuildID(context.Background(), "b-ctx")

	require.NoError(t, RunStages(ctx, NewBuildState(NewReport("b-ctx"), nil), defs))
	assert.Equal(t, map[string]string{
		"check_tools":    "b-ctx",
		"compile":        "b-ctx",
		"link":           "b-ctx",
		"assemble_image": "b-ctx",
	}, seen)
}

func TestRunStagesCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	called := false
	defs := fullDefs(func(context.Context, *BuildState) error {
		called = true
		return nil
	})
	bs := NewBuildState(NewReport("b3"), nil)
	err := RunStages(ctx, bs, defs)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorCanceled, se.Kind)
	assert.Equal(t, StageCheckTools, se.Stage)
	assert.False(t, called)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunStagesCanceledDuringStage(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defs := fullDefs(func(ctx context.Context, _ *BuildState) error {
		cancel()
		return ctx.Err()
	})
	bs := NewBuildState(NewReport("b4"), nil)
	err := RunStages(ctx, bs, defs)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorCanceled, se.Kind)
	assert.Equal(t, StageResultCanceled, bs.Report.StageResults[StageCheckTools])
}

func TestDriverPrintsOutcome(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var out, errOut bytes.Buffer
		obs := newRecordingObserver()
		report := NewReport("ok")
		err := NewDriver(console.New(&out, &errOut), obs).Run(t.Context(), report, fullDefs(noop))

		require.NoError(t, err)
		assert.Equal(t, "Loader build completed\n", out.String())
		assert.Empty(t, errOut.String())
		assert.Equal(t, OutcomeSuccess, report.Outcome)
		assert.True(t, report.Succeeded())
		assert.Equal(t, 0, report.Status)
		require.Len(t, obs.reports, 1)
		assert.Same(t, report, obs.reports[0])
	})

	t.Run("failure", func(t *testing.T) {
		var out, errOut bytes.Buffer
		obs := newRecordingObserver()
		report := NewReport("bad")
		defs := fullDefs(func(context.Context, *BuildState) error { return statusErr(-1) })
		err := NewDriver(console.New(&out, &errOut), obs, NoopObserver{}).Run(t.Context(), report, defs)

		require.Error(t, err)
		assert.Equal(t, -1, ExitStatus(err))
		assert.Equal(t, "Error: Loader build failed...\n", errOut.String())
		assert.Empty(t, out.String())
		assert.Equal(t, OutcomeFailed, report.Outcome)
		assert.Equal(t, StateFailed, report.State)
		assert.Equal(t, StageCheckTools, report.FailedStage)
		require.Len(t, obs.reports, 1)
	})

	t.Run("invalid stage list", func(t *testing.T) {
		var errOut bytes.Buffer
		err := NewDriver(console.New(nil, &errOut)).Run(t.Context(), NewReport("x"), nil)
		require.Error(t, err)
		assert.Empty(t, errOut.String())
	})
}

func TestReportSummary(t *testing.T) {
	r := NewReport("abc")
	r.Fail(NewFatalStageError(StageLink, errors.New("ld failed")))
	r.Finish(StateFailed)
	s := r.Summary()
	assert.Contains(t, s, "build=abc")
	assert.Contains(t, s, "outcome=failed")
	assert.Contains(t, s, "failed_stage=link")
}
