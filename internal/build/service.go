package build

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/loaderbuild/internal/config"
	"git.home.luguber.info/inful/loaderbuild/internal/console"
	"git.home.luguber.info/inful/loaderbuild/internal/eventstore"
	"git.home.luguber.info/inful/loaderbuild/internal/git"
	"git.home.luguber.info/inful/loaderbuild/internal/imagetree"
	"git.home.luguber.info/inful/loaderbuild/internal/logfields"
	"git.home.luguber.info/inful/loaderbuild/internal/metrics"
	"git.home.luguber.info/inful/loaderbuild/internal/observability"
	"git.home.luguber.info/inful/loaderbuild/internal/pipeline"
	"git.home.luguber.info/inful/loaderbuild/internal/toolchain"
)

// RevisionFunc resolves the source revision of dir.
type RevisionFunc func(dir string) (git.Revision, error)

// Service executes loader builds for one configuration.
type Service struct {
	cfg       *config.Config
	console   *console.Console
	runner    toolchain.Runner
	lookPath  toolchain.LookPathFunc
	fileOps   imagetree.FileOps
	recorder  metrics.Recorder
	gatherer  prom.Gatherer
	textfile  string
	history   eventstore.Store
	observers []pipeline.Observer
	newID     func() string
	revision  RevisionFunc
}

// NewService creates a service running real processes on the local machine.
func NewService(cfg *config.Config) *Service {
	return &Service{
		cfg:      cfg,
		console:  console.Std(),
		runner:   toolchain.NewExecRunner(),
		recorder: metrics.NoopRecorder{},
		newID:    uuid.NewString,
		revision: git.HeadRevision,
	}
}

// WithConsole sets where progress and error lines go.
func (s *Service) WithConsole(c *console.Console) *Service {
	if c != nil {
		s.console = c
	}
	return s
}

// WithRunner swaps the process runner (used by tests).
func (s *Service) WithRunner(r toolchain.Runner) *Service {
	if r != nil {
		s.runner = r
	}
	return s
}

// WithLookPath swaps the tool resolver (used by tests).
func (s *Service) WithLookPath(fn toolchain.LookPathFunc) *Service {
	s.lookPath = fn
	return s
}

// WithFileOps swaps the image tree filesystem (used by tests).
func (s *Service) WithFileOps(ops imagetree.FileOps) *Service {
	s.fileOps = ops
	return s
}

// WithRecorder records stage and build metrics on rec.
func (s *Service) WithRecorder(rec metrics.Recorder) *Service {
	if rec != nil {
		s.recorder = rec
	}
	return s
}

// WithTextfile writes everything g gathers to path after each run.
func (s *Service) WithTextfile(path string, g prom.Gatherer) *Service {
	s.textfile = path
	s.gatherer = g
	return s
}

// WithHistory records every run into store.
func (s *Service) WithHistory(store eventstore.Store) *Service {
	s.history = store
	return s
}

// WithObserver adds an observer notified after the built-in ones.
func (s *Service) WithObserver(o pipeline.Observer) *Service {
	if o != nil {
		s.observers = append(s.observers, o)
	}
	return s
}

// WithBuildIDFunc replaces the build ID generator.
func (s *Service) WithBuildIDFunc(fn func() string) *Service {
	if fn != nil {
		s.newID = fn
	}
	return s
}

// WithRevisionFunc replaces the source revision lookup. nil disables it.
func (s *Service) WithRevisionFunc(fn RevisionFunc) *Service {
	s.revision = fn
	return s
}

// Config returns the configuration the service builds with.
func (s *Service) Config() *config.Config { return s.cfg }

// CheckTools runs only the toolchain verification.
func (s *Service) CheckTools(ctx context.Context) (map[string]string, error) {
	return s.verifier().Verify(ctx)
}

// Run executes the full pipeline once. The report is always returned; the
// error is the failing stage's *pipeline.StageError.
func (s *Service) Run(ctx context.Context) (*pipeline.Report, error) {
	report := pipeline.NewReport(s.newID())
	ctx = observability.WithBuildID(ctx, report.BuildID)
	rev := s.sourceRevision(ctx)
	report.Revision, report.Branch = rev.Short(), rev.Branch

	observers := []pipeline.Observer{pipeline.RecorderObserver{Recorder: s.recorder}}
	if s.history != nil {
		h := newHistoryObserver(ctx, s.history, report.BuildID)
		h.started(s.cfg, report)
		observers = append(observers, h)
	}
	observers = append(observers, s.observers...)

	slog.InfoContext(ctx, "Starting loader build",
		logfields.BuildID(report.BuildID),
		logfields.Dir(s.cfg.SourceDir),
		logfields.Path(s.cfg.OutputRoot()),
		logfields.Revision(report.Revision),
		logfields.Branch(report.Branch))

	err := pipeline.NewDriver(s.console, observers...).Run(ctx, report, s.Stages())

	if s.textfile != "" && s.gatherer != nil {
		if werr := metrics.WriteTextfile(s.textfile, s.gatherer); werr != nil {
			slog.WarnContext(ctx, "Failed to write metrics textfile", logfields.Path(s.textfile), logfields.Error(werr))
		}
	}
	return report, err
}

// Stages returns the ordered stage list of a build.
func (s *Service) Stages() []pipeline.StageDef {
	inv := toolchain.NewInvoker(s.runner, s.console)
	cfg := s.cfg

	return pipeline.NewPipeline().
		Add(pipeline.StageCheckTools, pipeline.StateToolsChecked, func(ctx context.Context, _ *pipeline.BuildState) error {
			_, err := s.verifier().Verify(ctx)
			return err
		}).
		Add(pipeline.StageCompile, pipeline.StateCompiled, func(ctx context.Context, _ *pipeline.BuildState) error {
			return inv.Compile(ctx, toolchain.Compiler{
				Assembler: cfg.Tools.Assembler,
				Source:    cfg.Files.Source,
				Dir:       cfg.SourceDir,
			})
		}).
		Add(pipeline.StageLink, pipeline.StateLinked, func(ctx context.Context, _ *pipeline.BuildState) error {
			return inv.Link(ctx, toolchain.Linker{
				Linker: cfg.Tools.Linker,
				Script: cfg.Files.LinkerScript,
				Object: cfg.Files.Object,
				Output: cfg.Files.Kernel,
				Dir:    cfg.SourceDir,
			})
		}).
		Add(pipeline.StageAssembleImage, pipeline.StateImaged, func(ctx context.Context, bs *pipeline.BuildState) error {
			res, err := s.assembler().Assemble(ctx, imagetree.Inputs{
				Kernel: cfg.Path(cfg.Files.Kernel),
				Stage2: cfg.Path(cfg.Files.Stage2),
				Menu:   cfg.Path(cfg.Files.Menu),
			})
			if res != nil {
				if res.Kernel != "" {
					bs.Report.Artifacts = append(bs.Report.Artifacts, res.Kernel)
				}
				bs.Report.Artifacts = append(bs.Report.Artifacts, res.Copied...)
			}
			return err
		}).
		Build()
}

func (s *Service) verifier() *toolchain.Verifier {
	return toolchain.NewVerifier(s.cfg.RequiredTools(), s.console).WithLookPath(s.lookPath)
}

func (s *Service) assembler() *imagetree.Assembler {
	layout := imagetree.Layout{
		Root:    s.cfg.OutputRoot(),
		ISODir:  s.cfg.Image.ISODir,
		BootDir: s.cfg.Image.BootDir,
		GrubDir: s.cfg.Image.GrubDir,
	}
	return imagetree.NewAssembler(layout, s.console).WithFileOps(s.fileOps)
}

func (s *Service) sourceRevision(ctx context.Context) git.Revision {
	if s.revision == nil {
		return git.Revision{}
	}
	rev, err := s.revision(s.cfg.SourceDir)
	if err != nil {
		if !errors.Is(err, git.ErrNotRepository) {
			slog.DebugContext(ctx, "Could not read source revision", logfields.Dir(s.cfg.SourceDir), logfields.Error(err))
		}
		return git.Revision{}
	}
	return rev
}
