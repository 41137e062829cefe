package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/config"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/logging"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/reporter"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/validator"
)

// --- Test helpers ---

// withTestConfig sets the global cfg for the duration of the test.
func withTestConfig(t *testing.T, c *config.Config) {
	t.Helper()
	old := cfg
	cfg = c
	t.Cleanup(func() { cfg = old })
}

// testConfig returns defaults with storage in a temp dir
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := config.DefaultConfig()
	c.StorageDir = filepath.Join(t.TempDir(), "store")
	return c
}

// newTestCmd returns a command whose output goes to buffers
func newTestCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	return cmd, &stdout, &stderr
}

// observeLogs routes the process logger to an in-memory observer
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	old := logging.Logger
	logging.Logger = zap.New(core).Sugar()
	t.Cleanup(func() { logging.Logger = old })
	return logs
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// --- HandleError tests ---

func TestHandleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"gate failed", &GateFailedError{ErrorCount: 3}, ExitGateFail},
		{"wrapped gate failed", fmt.Errorf("audit: %w", &GateFailedError{ErrorCount: 1}), ExitGateFail},
		{"validator error", &validator.ValidationError{}, ExitGateFail},
		{"renderer refused", fmt.Errorf("render: %w", reporter.ErrGateNotPassed), ExitGateFail},
		{"policy", &PolicyError{Violations: []string{"too many"}}, ExitGateFail},
		{"new findings", &NewFindingsError{Count: 2}, ExitGateFail},
		{"invalid input", &ValidationError{Message: "bad input"}, ExitInvalidInput},
		{"not exist", os.ErrNotExist, ExitRuntimeError},
		{"permission", os.ErrPermission, ExitRuntimeError},
		{"generic", errors.New("something went wrong"), ExitRuntimeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HandleError(tt.err); got != tt.want {
				t.Errorf("HandleError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// --- Error type tests ---

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Message: "invalid template"}
	if err.Error() != "invalid template" {
		t.Errorf("ValidationError.Error() = %q, want %q", err.Error(), "invalid template")
	}

	inner := errors.New("line 3")
	wrapped := &ValidationError{Message: "invalid template", Err: inner}
	if wrapped.Error() != "invalid template: line 3" {
		t.Errorf("ValidationError.Error() = %q", wrapped.Error())
	}
	if !errors.Is(wrapped, inner) {
		t.Error("ValidationError should unwrap to its cause")
	}
}

func TestGateFailedErrorMessage(t *testing.T) {
	err := &GateFailedError{ErrorCount: 4}
	want := "coverage gate failed with 4 error(s)"
	if err.Error() != want {
		t.Errorf("GateFailedError.Error() = %q, want %q", err.Error(), want)
	}
}

func TestPolicyErrorMessage(t *testing.T) {
	err := &PolicyError{Violations: []string{"a", "b"}}
	if err.Error() != "policy check failed: a; b" {
		t.Errorf("PolicyError.Error() = %q", err.Error())
	}
}

// --- version ---

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	versionCmd.Run(versionCmd, nil)

	if !strings.Contains(out.String(), "a11yhub v"+Version) {
		t.Errorf("version output = %q", out.String())
	}
}

func TestRootRegistersCommands(t *testing.T) {
	want := []string{"audit", "findings", "gate", "template", "diff", "export",
		"summarize", "explain-score", "watch", "config", "version"}

	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

// --- Logging tests ---

func TestLogHelpers(t *testing.T) {
	logs := observeLogs(t)

	logVerbose("info %s", "message")
	logDebug("debug %d", 42)
	logError("fail %s", "now")

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(entries))
	}

	want := []struct {
		level zapcore.Level
		msg   string
	}{
		{zapcore.InfoLevel, "info message"},
		{zapcore.DebugLevel, "debug 42"},
		{zapcore.ErrorLevel, "fail now"},
	}
	for i, w := range want {
		if entries[i].Level != w.level || entries[i].Message != w.msg {
			t.Errorf("entry %d = %s %q, want %s %q", i, entries[i].Level, entries[i].Message, w.level, w.msg)
		}
	}
}
