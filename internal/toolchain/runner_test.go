package toolchain

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess is not a real test; ExecRunner tests re-run the test
// binary with it as the child process.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("LOADERBUILD_HELPER_PROCESS") != "1" {
		return
	}
	wd, _ := os.Getwd()
	fmt.Fprintf(os.Stdout, "cwd=%s\n", wd)
	fmt.Fprintln(os.Stderr, "to stderr")
	code, _ := strconv.Atoi(os.Getenv("LOADERBUILD_HELPER_EXIT"))
	os.Exit(code)
}

func helperCommand(dir string) Command {
	return Command{Name: os.Args[0], Args: []string{"-test.run=^TestHelperProcess$"}, Dir: dir}
}

func TestExecRunnerExitStatus(t *testing.T) {
	for _, code := range []int{0, 1, 2} {
		t.Run(strconv.Itoa(code), func(t *testing.T) {
			t.Setenv("LOADERBUILD_HELPER_PROCESS", "1")
			t.Setenv("LOADERBUILD_HELPER_EXIT", strconv.Itoa(code))

			var stdout, stderr bytes.Buffer
			r := &ExecRunner{Stdout: &stdout, Stderr: &stderr}

			status, err := r.Run(t.Context(), helperCommand(""))
			require.NoError(t, err)
			assert.Equal(t, code, status)
			assert.Contains(t, stderr.String(), "to stderr")
		})
	}
}

func TestExecRunnerWorkingDirectory(t *testing.T) {
	t.Setenv("LOADERBUILD_HELPER_PROCESS", "1")
	t.Setenv("LOADERBUILD_HELPER_EXIT", "0")

	dir := t.TempDir()
	var stdout bytes.Buffer
	r := &ExecRunner{Stdout: &stdout, Stderr: &bytes.Buffer{}}

	_, err := r.Run(t.Context(), helperCommand(dir))
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	line := strings.TrimSpace(strings.SplitN(stdout.String(), "\n", 2)[0])
	got, err := filepath.EvalSymlinks(strings.TrimPrefix(line, "cwd="))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestExecRunnerStartFailure(t *testing.T) {
	r := NewExecRunner()

	status, err := r.Run(t.Context(), Command{Name: filepath.Join(t.TempDir(), "no-such-tool")})
	require.Error(t, err)
	assert.Equal(t, 1, status)
}
