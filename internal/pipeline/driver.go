package pipeline

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/loaderbuild/internal/console"
	"git.home.luguber.info/inful/loaderbuild/internal/logfields"
)

// Driver runs a stage list and reports one aggregate status.
type Driver struct {
	console  *console.Console
	observer Observer
}

// NewDriver returns a driver printing to c and notifying observers.
func NewDriver(c *console.Console, observers ...Observer) *Driver {
	if c == nil {
		c = console.Discard()
	}
	var obs Observer = NoopObserver{}
	switch len(observers) {
	case 0:
	case 1:
		obs = observers[0]
	default:
		obs = MultiObserver(observers)
	}
	return &Driver{console: c, observer: obs}
}

// Run executes defs in order and fills report. On failure it returns the
// *StageError of the first failing stage; ExitStatus(err) is the status the
// process exits with.
func (d *Driver) Run(ctx context.Context, report *Report, defs []StageDef) error {
	if err := ValidateStages(defs); err != nil {
		return err
	}

	bs := NewBuildState(report, d.observer)
	err := RunStages(ctx, bs, defs)
	report.Finish(bs.Machine.Current())

	if err != nil {
		d.console.Errorf("Loader build failed...")
		slog.ErrorContext(ctx, "Loader build failed",
			logfields.BuildID(report.BuildID),
			logfields.Stage(string(report.FailedStage)),
			logfields.ExitCode(report.Status),
			logfields.Duration(report.Duration()))
	} else {
		d.console.Printf("Loader build completed")
		slog.InfoContext(ctx, "Loader build completed",
			logfields.BuildID(report.BuildID),
			logfields.Duration(report.Duration()))
	}

	d.observer.OnBuildComplete(report)
	return err
}
