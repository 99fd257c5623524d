package pipeline

import (
	"context"
	"errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/loaderbuild/internal/foundation/errors"
)

// Stage is a discrete unit of work in the loader build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names.
const (
	StageCheckTools    StageName = "check_tools"
	StageCompile       StageName = "compile"
	StageLink          StageName = "link"
	StageAssembleImage StageName = "assemble_image"
)

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// FailureStatus is the status reported for failures that carry none of their own.
const FailureStatus = 1

// StageError is the error the driver returns for the first failing stage.
type StageError struct {
	Kind   StageErrorKind
	Stage  StageName
	Status int
	Err    error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// ExitStatus returns the status the process should exit with.
func (e *StageError) ExitStatus() int { return e.Status }

// NewFatalStageError wraps err, taking the status from the cause when it has one.
func NewFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Status: statusOf(err), Err: err}
}

// NewCanceledStageError records a stage that never ran or was interrupted.
func NewCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Status: FailureStatus, Err: err}
}

// ExitStatus maps a pipeline error onto a process exit status: 0 for nil,
// the carried status for errors that have one and 1 otherwise.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}
	return statusOf(err)
}

func statusOf(err error) int {
	var sc ferrors.StatusCoder
	if errors.As(err, &sc) {
		if s := sc.ExitStatus(); s != 0 {
			return s
		}
	}
	return FailureStatus
}

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// StageDef pairs a stage name with its executing function and the state the
// build enters when it succeeds.
type StageDef struct {
	Name StageName
	Next State
	Fn   Stage
}

// Pipeline is a fluent builder for ordered stage definitions.
type Pipeline struct{ Defs []StageDef }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{Defs: make([]StageDef, 0, 4)} }

// Add appends a stage unconditionally.
func (p *Pipeline) Add(name StageName, next State, fn Stage) *Pipeline {
	p.Defs = append(p.Defs, StageDef{Name: name, Next: next, Fn: fn})
	return p
}

// AddIf appends a stage only if cond is true.
func (p *Pipeline) AddIf(cond bool, name StageName, next State, fn Stage) *Pipeline {
	if cond {
		p.Add(name, next, fn)
	}
	return p
}

// Build returns a copy of the stage definitions slice.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.Defs))
	copy(out, p.Defs)
	return out
}

// ValidateStages checks that defs walk the state machine from start to a
// state from which done is reachable.
func ValidateStages(defs []StageDef) error {
	if len(defs) == 0 {
		return ferrors.InternalError("pipeline has no stages").Build()
	}
	cur := StateStart
	for _, d := range defs {
		if d.Fn == nil {
			return ferrors.InternalError("stage has no function").
				WithContext("stage", string(d.Name)).
				Build()
		}
		if !CanTransition(cur, d.Next) {
			return ferrors.WrapError(ErrInvalidTransition, ferrors.CategoryInternal, "stage order does not follow the build states").
				WithContext("stage", string(d.Name)).
				WithContext("from", string(cur)).
				WithContext("to", string(d.Next)).
				Fatal().
				Build()
		}
		cur = d.Next
	}
	if !CanTransition(cur, StateDone) {
		return ferrors.WrapError(ErrInvalidTransition, ferrors.CategoryInternal, "pipeline ends before the image is assembled").
			WithContext("state", string(cur)).
			Fatal().
			Build()
	}
	return nil
}
