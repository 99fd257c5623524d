// Package watch re-runs the loader build whenever one of its input files
// changes. Runs are serialized; triggers arriving during a run collapse into
// a single follow-up run.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/loaderbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/loaderbuild/internal/logfields"
	"git.home.luguber.info/inful/loaderbuild/internal/util/sets"
)

// DefaultDebounce is the quiet period after the last change before a run.
const DefaultDebounce = 300 * time.Millisecond

// RunFunc performs one full build. reason names what triggered it.
type RunFunc func(ctx context.Context, reason string) error

// Config selects what to watch.
type Config struct {
	Dir        string   // directory holding the inputs
	Files      []string // base names that trigger a run
	Debounce   time.Duration
	InitialRun bool // run once before waiting for changes
}

// Watcher turns file changes in Config.Dir into serialized runs.
type Watcher struct {
	cfg      Config
	files    sets.Set[string]
	run      RunFunc
	triggers chan string
	ready    chan struct{}

	mu    sync.Mutex
	timer *time.Timer
	runs  int
}

// New returns a watcher calling run for each coalesced trigger.
func New(cfg Config, run RunFunc) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, ferrors.ValidationError("watch directory is required").Build()
	}
	if run == nil {
		return nil, ferrors.ValidationError("run function is required").Build()
	}
	if cfg.Debounce < 0 {
		cfg.Debounce = 0
	}
	return &Watcher{
		cfg:      cfg,
		files:    sets.New(cfg.Files...),
		run:      run,
		triggers: make(chan string, 1),
		ready:    make(chan struct{}),
	}, nil
}

// Ready is closed once the directory is being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Runs returns how many runs have started.
func (w *Watcher) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// Trigger requests a run. If one is already pending the request is dropped,
// so any number of triggers during a run yield one follow-up.
func (w *Watcher) Trigger(reason string) {
	select {
	case w.triggers <- reason:
	default:
	}
}

// Run watches until ctx is done. Build failures are logged; only setup
// failures are returned.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create file watcher").Build()
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(w.cfg.Dir); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to watch source directory").
			WithContext("path", w.cfg.Dir).
			Build()
	}
	slog.InfoContext(ctx, "Watching loader sources", logfields.Dir(w.cfg.Dir), "files", w.cfg.Files)

	go w.eventLoop(ctx, fsw)
	close(w.ready)

	if w.cfg.InitialRun {
		w.Trigger("initial")
	}

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil
		case reason := <-w.triggers:
			w.runOnce(ctx, reason)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context, reason string) {
	w.mu.Lock()
	w.runs++
	w.mu.Unlock()

	slog.InfoContext(ctx, "Running loader build", "reason", reason)
	if err := w.run(ctx, reason); err != nil {
		slog.WarnContext(ctx, "Loader build failed; waiting for changes", logfields.Error(err))
	}
}

func (w *Watcher) eventLoop(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			slog.DebugContext(ctx, "Source change detected", logfields.Path(event.Name), "op", event.Op.String())
			w.schedule(filepath.Base(event.Name))
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			slog.ErrorContext(ctx, "File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	return len(w.files) == 0 || w.files.Has(filepath.Base(event.Name))
}

// schedule restarts the debounce timer for a change to name.
func (w *Watcher) schedule(name string) {
	if w.cfg.Debounce == 0 {
		w.Trigger(name)
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.cfg.Debounce, func() { w.Trigger(name) })
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
