package toolchain

import (
	"context"
	"log/slog"
	"os/exec"

	"git.home.luguber.info/inful/loaderbuild/internal/console"
	"git.home.luguber.info/inful/loaderbuild/internal/logfields"
	"git.home.luguber.info/inful/loaderbuild/internal/util/sets"
)

// LookPathFunc resolves an executable name on the search path.
type LookPathFunc func(file string) (string, error)

// Verifier confirms the required executables resolve on the search path.
// It checks presence only, never versions or behavior.
type Verifier struct {
	tools    []string
	lookPath LookPathFunc
	console  *console.Console
}

// NewVerifier creates a verifier for tools, in check order.
func NewVerifier(tools []string, c *console.Console) *Verifier {
	if c == nil {
		c = console.Discard()
	}
	return &Verifier{tools: tools, lookPath: exec.LookPath, console: c}
}

// WithLookPath swaps the resolver (used by tests).
func (v *Verifier) WithLookPath(fn LookPathFunc) *Verifier {
	if fn != nil {
		v.lookPath = fn
	}
	return v
}

// Verify checks every tool, even after a miss, so a single run reports all
// missing tools. Each missing name is reported once on the error channel.
// The returned map holds the resolved path of every tool found.
func (v *Verifier) Verify(ctx context.Context) (map[string]string, error) {
	resolved := make(map[string]string, len(v.tools))
	var missing []string
	seen := sets.New[string]()

	for _, tool := range v.tools {
		if !seen.Add(tool) {
			continue
		}

		path, err := v.lookPath(tool)
		if err != nil {
			v.console.Errorf("Tool not found: %s", tool)
			slog.DebugContext(ctx, "Tool lookup failed", logfields.Tool(tool), logfields.Error(err))
			missing = append(missing, tool)
			continue
		}
		resolved[tool] = path
		slog.DebugContext(ctx, "Tool resolved", logfields.Tool(tool), logfields.Path(path))
	}

	if len(missing) > 0 {
		return resolved, &MissingToolsError{Tools: missing}
	}
	return resolved, nil
}
