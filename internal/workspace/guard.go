// Package workspace confines all agent file and command activity to a single
// validated directory tree.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Validation errors returned by NewGuard. Callers can match them with
// errors.Is to distinguish why a workspace was rejected.
var (
	ErrNotFound     = errors.New("workspace does not exist")
	ErrNotDirectory = errors.New("workspace is not a directory")
	ErrNotReadable  = errors.New("workspace is not readable")
	ErrNotWritable  = errors.New("workspace is not writable")

	// ErrOutsideWorkspace is returned by Resolve when a path escapes the
	// workspace root.
	ErrOutsideWorkspace = errors.New("path is outside the workspace")
)

// Guard validates a workspace directory once and then resolves every
// tool-supplied path against it. The root is stored absolute with symlinks
// resolved so containment checks cannot be defeated by a symlinked prefix.
type Guard struct {
	root string
}

// NewGuard validates dir and returns a Guard rooted there.
// An empty dir means the current working directory.
func NewGuard(dir string) (*Guard, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		dir = cwd
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", abs, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", abs, ErrNotDirectory)
	}

	if err := checkReadable(abs); err != nil {
		return nil, fmt.Errorf("%s: %w", abs, ErrNotReadable)
	}
	if err := checkWritable(abs); err != nil {
		return nil, fmt.Errorf("%s: %w", abs, ErrNotWritable)
	}

	// Canonicalize so Resolve compares like with like.
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve symlinks for %s: %w", abs, err)
	}

	return &Guard{root: resolved}, nil
}

// Root returns the validated absolute workspace root.
func (g *Guard) Root() string {
	return g.root
}

// Resolve maps a tool-supplied path to an absolute path inside the workspace.
// Relative paths are joined under the root. Absolute paths are accepted only
// when they stay inside the root. Symlinks are resolved before the
// containment check so a link pointing outside the tree is rejected.
func (g *Guard) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return g.root, nil
	}

	candidate := path
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(g.root, candidate)
	}
	candidate = filepath.Clean(candidate)

	resolved, err := resolveExisting(candidate)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	if !g.contains(resolved) {
		return "", fmt.Errorf("%s: %w", path, ErrOutsideWorkspace)
	}

	return candidate, nil
}

// contains reports whether abs lives under the workspace root.
func (g *Guard) contains(abs string) bool {
	rel, err := filepath.Rel(g.root, abs)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// resolveExisting resolves symlinks along the deepest existing prefix of
// path. The path itself may not exist yet (write_file targets), so missing
// trailing components are re-joined after the existing ancestor is resolved.
func resolveExisting(path string) (string, error) {
	remainder := ""
	current := path

	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			return filepath.Join(resolved, remainder), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", err
		}
		remainder = filepath.Join(filepath.Base(current), remainder)
		current = parent
	}
}

// checkReadable verifies the directory can be opened and listed.
func checkReadable(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// checkWritable verifies a file can be created in the directory.
func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".refactory-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
