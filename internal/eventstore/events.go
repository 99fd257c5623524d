package eventstore

import (
	"encoding/json"
	"time"
)

// Event type names.
const (
	TypePipelineStarted   = "PipelineStarted"
	TypeStageCompleted    = "StageCompleted"
	TypePipelineCompleted = "PipelineCompleted"
)

// PipelineStarted is recorded before the first stage runs.
type PipelineStarted struct {
	SourceDir string `json:"source_dir"`
	Output    string `json:"output"`
	Revision  string `json:"revision,omitempty"`
	Branch    string `json:"branch,omitempty"`
	Version   string `json:"version"`
}

// StageCompleted is recorded after each stage, successful or not.
type StageCompleted struct {
	Stage      string `json:"stage"`
	Result     string `json:"result"`
	DurationMS int64  `json:"duration_ms"`
}

// PipelineCompleted is recorded once the run has a final status.
type PipelineCompleted struct {
	Outcome     string `json:"outcome"`
	State       string `json:"state"`
	Status      int    `json:"status"`
	FailedStage string `json:"failed_stage,omitempty"`
	Error       string `json:"error,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
}

// NewPipelineStarted creates a PipelineStarted event.
func NewPipelineStarted(buildID string, p PipelineStarted) (*BaseEvent, error) {
	return newEvent(buildID, TypePipelineStarted, p)
}

// NewStageCompleted creates a StageCompleted event.
func NewStageCompleted(buildID, stage, result string, d time.Duration) (*BaseEvent, error) {
	return newEvent(buildID, TypeStageCompleted, StageCompleted{
		Stage:      stage,
		Result:     result,
		DurationMS: d.Milliseconds(),
	})
}

// NewPipelineCompleted creates a PipelineCompleted event.
func NewPipelineCompleted(buildID string, p PipelineCompleted) (*BaseEvent, error) {
	return newEvent(buildID, TypePipelineCompleted, p)
}

func newEvent(buildID, eventType string, payload any) (*BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, wrap(ErrMarshalPayloadFailed, err).
			WithContext("build_id", buildID).
			WithContext("event_type", eventType)
	}
	return &BaseEvent{
		EventBuildID:   buildID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   data,
	}, nil
}

// Decode unmarshals the payload of e into a T.
func Decode[T any](e Event) (T, error) {
	var v T
	if err := json.Unmarshal(e.Payload(), &v); err != nil {
		return v, wrap(ErrUnmarshalPayloadFailed, err).
			WithContext("build_id", e.BuildID()).
			WithContext("event_type", e.Type())
	}
	return v, nil
}
