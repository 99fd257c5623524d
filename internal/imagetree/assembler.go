package imagetree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/loaderbuild/internal/console"
	ferrors "git.home.luguber.info/inful/loaderbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/loaderbuild/internal/logfields"
)

// ErrImageTree marks every failure raised while assembling the tree.
var ErrImageTree = errors.New("image tree assembly failed")

// Layout names the output root and the nested staging directories.
type Layout struct {
	Root    string
	ISODir  string
	BootDir string
	GrubDir string
}

// ISO returns the ISO staging root.
func (l Layout) ISO() string { return filepath.Join(l.Root, l.ISODir) }

// Boot returns the directory receiving the kernel.
func (l Layout) Boot() string { return filepath.Join(l.ISO(), l.BootDir) }

// Grub returns the directory receiving the boot-loader support files.
func (l Layout) Grub() string { return filepath.Join(l.Boot(), l.GrubDir) }

// Inputs are the absolute paths of the files placed into the tree.
type Inputs struct {
	Kernel string
	Stage2 string
	Menu   string
}

// Result describes what one assembly changed.
type Result struct {
	RootCreated bool
	CreatedDirs []string
	Kernel      string
	Copied      []string
}

// Assembler populates the staging tree.
type Assembler struct {
	layout  Layout
	ops     FileOps
	console *console.Console
}

// NewAssembler creates an assembler for layout using the local filesystem.
func NewAssembler(layout Layout, c *console.Console) *Assembler {
	if c == nil {
		c = console.Discard()
	}
	return &Assembler{layout: layout, ops: OSFileOps{}, console: c}
}

// WithFileOps swaps the filesystem implementation (used by tests).
func (a *Assembler) WithFileOps(ops FileOps) *Assembler {
	if ops != nil {
		a.ops = ops
	}
	return a
}

// Layout returns the layout the assembler writes.
func (a *Assembler) Layout() Layout { return a.layout }

// Assemble ensures the directory tree exists, moves the kernel into the boot
// directory and copies the support files into the grub directory.
func (a *Assembler) Assemble(ctx context.Context, in Inputs) (*Result, error) {
	res := &Result{}

	if _, err := os.Stat(a.layout.Root); errors.Is(err, os.ErrNotExist) {
		a.console.Printf("Build output directory not found...")
		a.console.Printf("Assuming you are running this standalone, making directory...")
		created, err := a.ops.EnsureDir(a.layout.Root)
		if err != nil {
			return res, fsError("create output directory", a.layout.Root, err)
		}
		res.RootCreated = created
	}

	for _, dir := range []string{a.layout.ISO(), a.layout.Boot(), a.layout.Grub()} {
		created, err := a.ops.EnsureDir(dir)
		if err != nil {
			return res, fsError("create staging directory", dir, err)
		}
		if created {
			res.CreatedDirs = append(res.CreatedDirs, dir)
			slog.DebugContext(ctx, "Created staging directory", logfields.Path(dir))
		}
	}

	kernel, err := a.ops.Move(in.Kernel, a.layout.Boot())
	if err != nil {
		return res, fsError("move kernel", in.Kernel, err)
	}
	res.Kernel = kernel
	slog.DebugContext(ctx, "Moved kernel into image tree", logfields.Path(kernel))

	for _, src := range []string{in.Stage2, in.Menu} {
		dst, err := a.ops.Copy(src, a.layout.Grub())
		if err != nil {
			return res, fsError("copy boot-loader file", src, err)
		}
		res.Copied = append(res.Copied, dst)
		slog.DebugContext(ctx, "Copied boot-loader file", logfields.Path(dst))
	}

	return res, nil
}

func fsError(op, path string, err error) error {
	return ferrors.WrapError(fmt.Errorf("%w: %w", ErrImageTree, err), ferrors.CategoryFileSystem, op).
		WithContext("path", path).
		Build()
}
