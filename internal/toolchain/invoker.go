package toolchain

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/loaderbuild/internal/console"
	"git.home.luguber.info/inful/loaderbuild/internal/logfields"
)

// Fixed toolchain flags: a 32-bit ELF object linked for i386.
const (
	ObjectFormat    = "elf32"
	LinkerEmulation = "elf_i386"
)

// Compiler describes the assembler run over the loader source.
type Compiler struct {
	Assembler string
	Source    string
	Dir       string
}

// Command returns `<assembler> -f elf32 <source>` run inside Dir.
func (c Compiler) Command() Command {
	return Command{Name: c.Assembler, Args: []string{"-f", ObjectFormat, c.Source}, Dir: c.Dir}
}

// Linker describes the linker run producing the kernel binary.
type Linker struct {
	Linker string
	Script string
	Object string
	Output string
	Dir    string
}

// Command returns `<linker> -T <script> -melf_i386 <object> -o <output>` run inside Dir.
// The object file is assumed to exist; sequencing is the caller's job.
func (l Linker) Command() Command {
	return Command{
		Name: l.Linker,
		Args: []string{"-T", l.Script, "-m" + LinkerEmulation, l.Object, "-o", l.Output},
		Dir:  l.Dir,
	}
}

// Invoker runs compiler and linker commands and reports progress.
type Invoker struct {
	runner  Runner
	console *console.Console
}

// NewInvoker creates an invoker running commands through r.
func NewInvoker(r Runner, c *console.Console) *Invoker {
	if c == nil {
		c = console.Discard()
	}
	return &Invoker{runner: r, console: c}
}

// Compile assembles the source into the object file.
func (i *Invoker) Compile(ctx context.Context, c Compiler) error {
	i.console.Printf("Compiling %s into object file...", c.Source)
	if err := i.run(ctx, c.Command()); err != nil {
		i.console.Errorf("Error compiling loader")
		return err
	}
	i.console.Printf("Finished compiling %s!", c.Source)
	return nil
}

// Link links the object file into the kernel binary.
func (i *Invoker) Link(ctx context.Context, l Linker) error {
	i.console.Printf("linking %s into %s...", l.Object, l.Output)
	if err := i.run(ctx, l.Command()); err != nil {
		i.console.Errorf("Error linking kernel")
		return err
	}
	i.console.Printf("Finished linking %s!", l.Output)
	return nil
}

func (i *Invoker) run(ctx context.Context, cmd Command) error {
	slog.DebugContext(ctx, "Running toolchain command",
		logfields.Tool(cmd.Name),
		logfields.Args(cmd.Args),
		logfields.Dir(cmd.Dir))

	t0 := time.Now()
	status, err := i.runner.Run(ctx, cmd)
	dur := time.Since(t0)

	if err != nil {
		slog.ErrorContext(ctx, "Toolchain command could not run",
			logfields.Tool(cmd.Name),
			logfields.Error(err))
		if status == 0 {
			status = 1
		}
		return &ProcessError{Tool: cmd.Name, Status: status, Err: err}
	}
	if status != 0 {
		slog.ErrorContext(ctx, "Toolchain command failed",
			logfields.Tool(cmd.Name),
			logfields.ExitCode(status),
			logfields.Duration(dur))
		return &ProcessError{Tool: cmd.Name, Status: status}
	}

	slog.DebugContext(ctx, "Toolchain command finished",
		logfields.Tool(cmd.Name),
		logfields.Duration(dur))
	return nil
}
