package toolchain

import (
	"errors"
	"fmt"
	"strings"
)

// ToolchainFailureStatus is the status reported when verification fails.
// It can coincide with a real exit status of 255 from a child process;
// callers that need to tell them apart use errors.Is(err, ErrToolNotFound).
const ToolchainFailureStatus = -1

var (
	// ErrToolNotFound indicates one or more required executables are not on PATH.
	ErrToolNotFound = errors.New("tool not found")
	// ErrProcessFailed indicates a toolchain process exited non-zero or could not start.
	ErrProcessFailed = errors.New("toolchain process failed")
)

// MissingToolsError lists every required tool that did not resolve.
type MissingToolsError struct {
	Tools []string
}

func (e *MissingToolsError) Error() string {
	return fmt.Sprintf("%v: %s", ErrToolNotFound, strings.Join(e.Tools, ", "))
}

func (e *MissingToolsError) Is(target error) bool { return target == ErrToolNotFound }

// ExitStatus implements the CLI status contract.
func (e *MissingToolsError) ExitStatus() int { return ToolchainFailureStatus }

// ProcessError reports a failed assembler or linker run. Status is the child
// exit status, or 1 when the process never ran (Err is then the start error).
type ProcessError struct {
	Tool   string
	Status int
	Err    error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s exited with status %d", e.Tool, e.Status)
}

func (e *ProcessError) Unwrap() error { return e.Err }

func (e *ProcessError) Is(target error) bool { return target == ErrProcessFailed }

// ExitStatus implements the CLI status contract.
func (e *ProcessError) ExitStatus() int { return e.Status }
