package eventstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendAll(t *testing.T, s Store, events ...*BaseEvent) {
	t.Helper()
	for _, e := range events {
		require.NoError(t, AppendEvent(t.Context(), s, e))
	}
}

func TestSummarizeCompletedBuild(t *testing.T) {
	store := newMemoryStore(t)

	started, err := NewPipelineStarted(testBuildID, PipelineStarted{SourceDir: "/src/loader", Output: "build", Revision: "abc123", Branch: "main", Version: "dev"})
	require.NoError(t, err)
	tools, err := NewStageCompleted(testBuildID, "check_tools", "success", 5*time.Millisecond)
	require.NoError(t, err)
	compile, err := NewStageCompleted(testBuildID, "compile", "fatal", 40*time.Millisecond)
	require.NoError(t, err)
	done, err := NewPipelineCompleted(testBuildID, PipelineCompleted{
		Outcome: "failed", State: "failed", Status: 2, FailedStage: "compile", Error: "nasm exited 2", DurationMS: 50,
	})
	require.NoError(t, err)
	appendAll(t, store, started, tools, compile, done)

	summaries, err := Recent(t.Context(), store, 10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, testBuildID, s.BuildID)
	assert.Equal(t, "failed", s.Status)
	assert.False(t, s.Running())
	assert.Equal(t, 2, s.ExitStatus)
	assert.Equal(t, "compile", s.FailedStage)
	assert.Equal(t, "abc123", s.Revision)
	assert.Equal(t, "main", s.Branch)
	assert.Equal(t, "/src/loader", s.SourceDir)
	assert.Equal(t, 50*time.Millisecond, s.Duration)
	require.NotNil(t, s.CompletedAt)
	require.Len(t, s.Stages, 2)
	assert.Equal(t, StageSummary{Stage: "compile", Result: "fatal", Duration: 40 * time.Millisecond}, s.Stages[1])
}

func TestSummarizeRunningBuild(t *testing.T) {
	started, err := NewPipelineStarted("r1", PipelineStarted{Output: "build"})
	require.NoError(t, err)

	s := Summarize("r1", []Event{started})
	assert.True(t, s.Running())
	assert.Nil(t, s.CompletedAt)
	assert.Equal(t, "build", s.Output)
}

func TestSummarizeSkipsBadPayloads(t *testing.T) {
	bad := &BaseEvent{EventBuildID: "x", EventType: TypePipelineCompleted, EventPayload: []byte("not json")}
	s := Summarize("x", []Event{bad})
	assert.True(t, s.Running())
}

func TestDecode(t *testing.T) {
	e, err := NewStageCompleted("d", "link", "success", time.Second)
	require.NoError(t, err)

	got, err := Decode[StageCompleted](e)
	require.NoError(t, err)
	assert.Equal(t, StageCompleted{Stage: "link", Result: "success", DurationMS: 1000}, got)

	_, err = Decode[StageCompleted](&BaseEvent{EventPayload: []byte("{")})
	assert.ErrorIs(t, err, ErrUnmarshalPayloadFailed)
}
