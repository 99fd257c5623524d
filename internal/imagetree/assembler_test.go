package imagetree

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/loaderbuild/internal/console"
	ferrors "git.home.luguber.info/inful/loaderbuild/internal/foundation/errors"
)

// countingOps wraps OSFileOps and records each call.
type countingOps struct {
	OSFileOps
	ensured []string
	moves   int
	copies  int
}

func (c *countingOps) EnsureDir(path string) (bool, error) {
	c.ensured = append(c.ensured, path)
	return c.OSFileOps.EnsureDir(path)
}

func (c *countingOps) Move(src, dstDir string) (string, error) {
	c.moves++
	return c.OSFileOps.Move(src, dstDir)
}

func (c *countingOps) Copy(src, dstDir string) (string, error) {
	c.copies++
	return c.OSFileOps.Copy(src, dstDir)
}

type fixture struct {
	srcDir string
	layout Layout
	inputs Inputs
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	src := filepath.Join(base, "loader")
	require.NoError(t, os.MkdirAll(src, 0o755))

	in := Inputs{
		Kernel: filepath.Join(src, "kernel.elf"),
		Stage2: filepath.Join(src, "stage2_eltorito"),
		Menu:   filepath.Join(src, "menu.lst"),
	}
	require.NoError(t, os.WriteFile(in.Kernel, []byte("ELF kernel"), 0o755))
	require.NoError(t, os.WriteFile(in.Stage2, []byte("stage2"), 0o644))
	require.NoError(t, os.WriteFile(in.Menu, []byte("title osOS\n"), 0o644))

	return fixture{
		srcDir: src,
		layout: Layout{Root: filepath.Join(base, "build"), ISODir: "iso", BootDir: "boot", GrubDir: "grub"},
		inputs: in,
	}
}

func TestLayoutPaths(t *testing.T) {
	l := Layout{Root: "/out", ISODir: "iso", BootDir: "boot", GrubDir: "grub"}
	assert.Equal(t, filepath.FromSlash("/out/iso"), l.ISO())
	assert.Equal(t, filepath.FromSlash("/out/iso/boot"), l.Boot())
	assert.Equal(t, filepath.FromSlash("/out/iso/boot/grub"), l.Grub())
}

func TestAssembleCreatesTree(t *testing.T) {
	for _, rootExists := range []bool{false, true} {
		name := "root absent"
		if rootExists {
			name = "root present"
		}
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			if rootExists {
				require.NoError(t, os.MkdirAll(f.layout.Root, 0o755))
			}
			var out bytes.Buffer
			ops := &countingOps{}
			a := NewAssembler(f.layout, console.New(&out, nil)).WithFileOps(ops)

			res, err := a.Assemble(t.Context(), f.inputs)
			require.NoError(t, err)

			nested := []string{f.layout.ISO(), f.layout.Boot(), f.layout.Grub()}
			assert.Equal(t, nested, res.CreatedDirs)
			assert.Equal(t, 1, ops.moves)
			assert.Equal(t, 2, ops.copies)
			assert.Equal(t, !rootExists, res.RootCreated)
			if rootExists {
				assert.Equal(t, nested, ops.ensured)
				assert.Empty(t, out.String())
			} else {
				assert.Equal(t, append([]string{f.layout.Root}, nested...), ops.ensured)
				assert.Contains(t, out.String(), "Assuming you are running this standalone")
			}

			kernel := filepath.Join(f.layout.Boot(), "kernel.elf")
			assert.Equal(t, kernel, res.Kernel)
			assert.FileExists(t, kernel)
			assert.NoFileExists(t, f.inputs.Kernel, "kernel is moved, not copied")

			for _, name := range []string{"stage2_eltorito", "menu.lst"} {
				assert.FileExists(t, filepath.Join(f.layout.Grub(), name))
				assert.FileExists(t, filepath.Join(f.srcDir, name), "support files are copied")
			}
		})
	}
}

func TestAssembleIsIdempotent(t *testing.T) {
	f := newFixture(t)
	a := NewAssembler(f.layout, nil)

	_, err := a.Assemble(t.Context(), f.inputs)
	require.NoError(t, err)

	// A second build produces a fresh kernel in the source directory.
	require.NoError(t, os.WriteFile(f.inputs.Kernel, []byte("ELF kernel v2"), 0o755))
	require.NoError(t, os.WriteFile(f.inputs.Menu, []byte("title osOS v2\n"), 0o644))

	res, err := a.Assemble(t.Context(), f.inputs)
	require.NoError(t, err)
	assert.Empty(t, res.CreatedDirs)
	assert.False(t, res.RootCreated)

	data, err := os.ReadFile(filepath.Join(f.layout.Boot(), "kernel.elf"))
	require.NoError(t, err)
	assert.Equal(t, "ELF kernel v2", string(data))

	data, err = os.ReadFile(filepath.Join(f.layout.Grub(), "menu.lst"))
	require.NoError(t, err)
	assert.Equal(t, "title osOS v2\n", string(data))
}

func TestAssembleKeepsUnrelatedFiles(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.layout.Grub(), 0o755))
	extra := filepath.Join(f.layout.Grub(), "extra.cfg")
	require.NoError(t, os.WriteFile(extra, []byte("keep"), 0o644))

	_, err := NewAssembler(f.layout, nil).Assemble(t.Context(), f.inputs)
	require.NoError(t, err)
	assert.FileExists(t, extra)
}

func TestCopyPreservesPermissions(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Chmod(f.inputs.Stage2, 0o600))

	_, err := NewAssembler(f.layout, nil).Assemble(t.Context(), f.inputs)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(f.layout.Grub(), "stage2_eltorito"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAssembleFailuresAreTyped(t *testing.T) {
	t.Run("missing kernel", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, os.Remove(f.inputs.Kernel))

		res, err := NewAssembler(f.layout, nil).Assemble(t.Context(), f.inputs)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrImageTree)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
		assert.Len(t, res.CreatedDirs, 3, "directories created before the failure stay")
		assert.Empty(t, res.Copied)
	})

	t.Run("file in place of a directory", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, os.MkdirAll(f.layout.ISO(), 0o755))
		require.NoError(t, os.WriteFile(f.layout.Boot(), []byte("not a dir"), 0o644))

		_, err := NewAssembler(f.layout, nil).Assemble(t.Context(), f.inputs)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrImageTree)

		classified, ok := ferrors.AsClassified(err)
		require.True(t, ok)
		path, _ := classified.Context().GetString("path")
		assert.Equal(t, f.layout.Boot(), path)
	})

	t.Run("missing support file", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, os.Remove(f.inputs.Menu))

		res, err := NewAssembler(f.layout, nil).Assemble(t.Context(), f.inputs)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrImageTree))
		assert.Len(t, res.Copied, 1)
	})
}
