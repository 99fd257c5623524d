package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/loaderbuild/internal/console"
	ferrors "git.home.luguber.info/inful/loaderbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/loaderbuild/internal/observability"
	"git.home.luguber.info/inful/loaderbuild/internal/version"
)

// Global is shared state handed to every command.
type Global struct {
	Ctx     context.Context
	Console *console.Console
}

// CLI definition & global flags.
type CLI struct {
	Config      string           `short:"c" help:"Configuration file path (optional)" default:"loaderbuild.yaml" type:"path"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`
	HistoryDB   string           `name:"history-db" help:"Record runs in this sqlite database" type:"path"`
	MetricsFile string           `name:"metrics-file" help:"Write Prometheus metrics to this textfile after each run" type:"path"`

	Build   BuildCmd   `cmd:"" default:"withargs" help:"Compile, link and lay out the loader image tree"`
	Check   CheckCmd   `cmd:"" help:"Check that the required tools are installed"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild whenever a loader input file changes"`
	History HistoryCmd `cmd:"" help:"List recent builds from the history database"`
}

// AfterApply runs after flag parsing; setup logging once.
// Without -v only warnings and errors are logged, so a clean build leaves the
// error channel empty.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelWarn
	if c.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(g.Console.Err, &slog.HandlerOptions{Level: level})
	logger := slog.New(observability.NewContextHandler(handler))
	slog.SetDefault(logger)
	return nil
}

// exitRequest carries a kong exit (help, --version) out of the parser.
type exitRequest struct{ code int }

// Execute parses args, runs the selected command and returns the process
// exit code.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) (code int) {
	cli := &CLI{}
	g := &Global{Ctx: ctx, Console: console.New(out, errOut)}
	parser, err := kong.New(cli,
		kong.Name("loaderbuild"),
		kong.Description("Build a bootable loader image tree from assembly sources."),
		kong.Vars{"version": version.String()},
		kong.Writers(out, errOut),
		kong.Exit(func(c int) { panic(exitRequest{code: c}) }),
		kong.Bind(g),
	)
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		return 10
	}

	defer func() {
		if r := recover(); r != nil {
			req, ok := r.(exitRequest)
			if !ok {
				panic(r)
			}
			code = req.code
		}
	}()

	kctx, err := parser.Parse(args)
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		return 2
	}

	if err := kctx.Run(cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).
			WithOutput(errOut, func(c int) { code = c }).
			HandleError(err)
		return code
	}
	return 0
}
