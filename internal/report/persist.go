package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// resultsDirName is created inside the workspace for persisted summaries.
const resultsDirName = "refactoring_results"

// Save writes the summary to
// <workspace>/refactoring_results/refactoring_summary_<YYYYMMDD_HHMMSS>.json
// and returns the path. The write is guarded by a file lock and performed
// via temp-file-and-rename so concurrent runs never interleave or expose a
// partial file.
func (s *Summary) Save(workspacePath string) (string, error) {
	dir := filepath.Join(workspacePath, resultsDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create results directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}

	name := fmt.Sprintf("refactoring_summary_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	lock := flock.New(filepath.Join(dir, ".summary.lock"))
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("acquire results lock: %w", err)
	}
	defer lock.Unlock()

	if err := atomicWrite(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// atomicWrite writes data via a temp file in the target directory followed
// by a rename. On the same filesystem the rename is atomic, so readers
// never see a partial summary.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".tmp-summary-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}

	tmp = nil
	return nil
}
