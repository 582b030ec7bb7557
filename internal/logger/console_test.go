package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

var linePattern = regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[INFO\] hello$`)

func TestConsoleLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, "info")

	l.LogInfo("hello")

	line := strings.TrimRight(buf.String(), "\n")
	if !linePattern.MatchString(line) {
		t.Errorf("line %q does not match [HH:MM:SS] [INFO] format", line)
	}
}

func TestConsoleLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, "warn")

	l.LogDebug("hidden")
	l.LogInfo("also hidden")
	l.LogWarn("visible")
	l.LogError("also visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("filtered levels leaked: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn level missing: %q", out)
	}
}

func TestConsoleLoggerInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, "shouty")

	l.LogDebug("hidden")
	l.LogInfo("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("default level wrong: %q", buf.String())
	}
}

func TestConsoleLoggerNilWriter(t *testing.T) {
	l := NewConsoleLogger(nil, "info")
	// Must not panic.
	l.LogInfo("into the void")
	l.LogTaskStart("testing", "x")
	l.LogTaskComplete("testing", true, time.Second)
}

func TestConsoleLoggerTaskLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, "info")

	l.LogTaskStart("architecture", "improve module boundaries")
	l.LogTaskComplete("architecture", true, 90*time.Second)
	l.LogTaskComplete("testing", false, 500*time.Millisecond)

	out := buf.String()
	for _, want := range []string{
		"Starting architecture: improve module boundaries",
		"architecture completed (1m30s)",
		"testing failed (0.5s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{1500 * time.Millisecond, "1.5s"},
		{75 * time.Second, "1m15s"},
		{2*time.Hour + 5*time.Minute, "2h05m"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.d); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestFileLoggerWritesRunLogAndSymlink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	fl, err := NewFileLogger(dir, "debug")
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}

	fl.LogInfo("run started")
	fl.LogTaskComplete("idiomatic", true, time.Second)
	if err := fl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(fl.RunFile())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "Refactory Run Log") || !strings.Contains(content, "run started") {
		t.Errorf("run log content wrong:\n%s", content)
	}

	target, err := os.Readlink(filepath.Join(dir, "latest.log"))
	if err != nil {
		t.Fatalf("Readlink: %v", err)
	}
	if target != filepath.Base(fl.RunFile()) {
		t.Errorf("latest.log points at %q, want %q", target, filepath.Base(fl.RunFile()))
	}
}

func TestMultiLoggerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	ml := NewMultiLogger(NewConsoleLogger(&a, "info"), NewConsoleLogger(&b, "info"))

	ml.LogInfo("both")

	if !strings.Contains(a.String(), "both") || !strings.Contains(b.String(), "both") {
		t.Errorf("fan-out failed: a=%q b=%q", a.String(), b.String())
	}
}
