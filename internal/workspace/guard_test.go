package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewGuardDefaultsToWorkingDirectory(t *testing.T) {
	guard, err := NewGuard("")
	if err != nil {
		t.Fatalf("NewGuard(\"\") returned error: %v", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	resolved, err := filepath.EvalSymlinks(cwd)
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}

	if guard.Root() != resolved {
		t.Errorf("Root() = %q, want %q", guard.Root(), resolved)
	}
}

func TestNewGuardMissingDirectory(t *testing.T) {
	_, err := NewGuard(filepath.Join(t.TempDir(), "does-not-exist"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNewGuardFileNotDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := NewGuard(file)
	if !errors.Is(err, ErrNotDirectory) {
		t.Errorf("expected ErrNotDirectory, got %v", err)
	}
}

func TestNewGuardUnwritableDirectory(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root bypasses permission checks")
	}

	dir := t.TempDir()
	if err := os.Chmod(dir, 0555); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	defer os.Chmod(dir, 0755)

	_, err := NewGuard(dir)
	if !errors.Is(err, ErrNotWritable) {
		t.Errorf("expected ErrNotWritable, got %v", err)
	}
}

func TestResolveRelativePath(t *testing.T) {
	dir := t.TempDir()
	guard, err := NewGuard(dir)
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}

	got, err := guard.Resolve("lib/foo.rb")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := filepath.Join(guard.Root(), "lib", "foo.rb")
	if got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}
}

func TestResolveEmptyPathReturnsRoot(t *testing.T) {
	guard, err := NewGuard(t.TempDir())
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}

	got, err := guard.Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != guard.Root() {
		t.Errorf("Resolve(\"\") = %q, want root %q", got, guard.Root())
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	guard, err := NewGuard(t.TempDir())
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}

	cases := []string{
		"../outside.txt",
		"../../etc/passwd",
		"lib/../../escape.rb",
	}
	for _, path := range cases {
		if _, err := guard.Resolve(path); !errors.Is(err, ErrOutsideWorkspace) {
			t.Errorf("Resolve(%q): expected ErrOutsideWorkspace, got %v", path, err)
		}
	}
}

func TestResolveRejectsForeignAbsolutePath(t *testing.T) {
	guard, err := NewGuard(t.TempDir())
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}

	other := t.TempDir()
	if _, err := guard.Resolve(filepath.Join(other, "file.rb")); !errors.Is(err, ErrOutsideWorkspace) {
		t.Errorf("expected ErrOutsideWorkspace, got %v", err)
	}
}

func TestResolveAcceptsContainedAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	guard, err := NewGuard(dir)
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}

	inside := filepath.Join(guard.Root(), "lib", "inner.rb")
	got, err := guard.Resolve(inside)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != inside {
		t.Errorf("Resolve = %q, want %q", got, inside)
	}
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()

	link := filepath.Join(dir, "sneaky")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	guard, err := NewGuard(dir)
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}

	if _, err := guard.Resolve("sneaky/file.rb"); !errors.Is(err, ErrOutsideWorkspace) {
		t.Errorf("expected ErrOutsideWorkspace for symlink escape, got %v", err)
	}
}

func TestResolveAllowsMissingTarget(t *testing.T) {
	guard, err := NewGuard(t.TempDir())
	if err != nil {
		t.Fatalf("NewGuard: %v", err)
	}

	// write_file targets do not exist yet.
	got, err := guard.Resolve("brand/new/file.rb")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := filepath.Join(guard.Root(), "brand", "new", "file.rb")
	if got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}
}
