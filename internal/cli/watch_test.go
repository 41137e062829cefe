package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestGlobRoot(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"scans/**/*.json", "scans"},
		{"scans/axe-*.json", "scans"},
		{"*.json", "."},
		{"a/b/c/[ab].json", "a/b/c"},
		{"plain/dir", "plain/dir"},
	}
	for _, tt := range tests {
		if got := globRoot(tt.pattern); got != tt.want {
			t.Errorf("globRoot(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}

func TestWatchTargets(t *testing.T) {
	pcfg := PipelineConfig{
		ScanPaths:      []string{"scans/**/*.json", "extra/home.json"},
		SubmissionFile: "coverage.yaml",
		TemplateFile:   "checklist.yaml",
	}
	got := strings.Join(watchTargets(pcfg), ",")
	want := "scans,extra/home.json,coverage.yaml,checklist.yaml"
	if got != want {
		t.Errorf("watchTargets = %s, want %s", got, want)
	}
}

func TestWatchDirs(t *testing.T) {
	f := newAuditFixture(t, testCoverage)
	scans := filepath.Dir(f.Scan)

	got := watchDirs([]string{scans, f.Coverage, f.Template, f.Scan})
	if len(got) != 2 {
		t.Fatalf("watchDirs = %v, want 2 unique dirs", got)
	}
	if got[0] != scans || got[1] != f.Dir {
		t.Errorf("watchDirs = %v", got)
	}
}

func TestWatchDirsRecursive(t *testing.T) {
	f := newAuditFixture(t, testCoverage)
	scans := filepath.Dir(f.Scan)
	writeFile(t, scans, "mobile/ios/home.json", "{}")

	got := watchDirs([]string{scans, f.Coverage})
	want := []string{scans, filepath.Join(scans, "mobile"), filepath.Join(scans, "mobile", "ios"), f.Dir}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("watchDirs = %v, want %v", got, want)
	}
}

func TestRelevantEvent(t *testing.T) {
	f := newAuditFixture(t, testCoverage)
	scans := filepath.Dir(f.Scan)
	targets := []string{scans, f.Coverage}

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"coverage write", fsnotify.Event{Name: f.Coverage, Op: fsnotify.Write}, true},
		{"new scan file", fsnotify.Event{Name: filepath.Join(scans, "home.json"), Op: fsnotify.Create}, true},
		{"nested scan file", fsnotify.Event{Name: filepath.Join(scans, "mobile", "home.json"), Op: fsnotify.Write}, true},
		{"scan dir sibling prefix", fsnotify.Event{Name: scans + "-old/home.json", Op: fsnotify.Write}, false},
		{"chmod only", fsnotify.Event{Name: f.Coverage, Op: fsnotify.Chmod}, false},
		{"editor temp", fsnotify.Event{Name: f.Coverage + ".tmp", Op: fsnotify.Create}, false},
		{"editor backup", fsnotify.Event{Name: f.Coverage + "~", Op: fsnotify.Write}, false},
		{"unrelated sibling", fsnotify.Event{Name: f.Template, Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relevantEvent(tt.ev, targets); got != tt.want {
				t.Errorf("relevantEvent(%v) = %v, want %v", tt.ev, got, tt.want)
			}
		})
	}
}

func TestWatchAndRunStopsOnCancel(t *testing.T) {
	f := newAuditFixture(t, testCoverage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	var out bytes.Buffer
	err := watchAndRun(ctx, []string{f.Coverage}, 10*time.Millisecond, func() { calls++ }, &out)
	if err != nil {
		t.Fatalf("watchAndRun: %v", err)
	}
	if calls != 1 {
		t.Errorf("fn ran %d times, want 1", calls)
	}
	if !strings.Contains(out.String(), "Watching 1 path(s) for changes.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestWatchAndRunRerunsOnChange(t *testing.T) {
	f := newAuditFixture(t, testCoverage)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := make(chan struct{}, 10)
	var out bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = watchAndRun(ctx, []string{f.Coverage}, 20*time.Millisecond, func() { runs <- struct{}{} }, &out)
	}()

	waitRun := func(what string) {
		t.Helper()
		select {
		case <-runs:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", what)
		}
	}

	waitRun("initial run")
	if err := os.WriteFile(f.Coverage, []byte(testCoverage+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	waitRun("run after change")

	cancel()
	wg.Wait()
}

func TestWatchAndRunRerunsOnNestedChange(t *testing.T) {
	f := newAuditFixture(t, testCoverage)
	scans := filepath.Dir(f.Scan)
	nested := writeFile(t, scans, "mobile/home.json", "{}")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := make(chan struct{}, 10)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = watchAndRun(ctx, []string{scans}, 20*time.Millisecond, func() { runs <- struct{}{} }, &bytes.Buffer{})
	}()

	waitRun := func(what string) {
		t.Helper()
		select {
		case <-runs:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", what)
		}
	}

	waitRun("initial run")
	if err := os.WriteFile(nested, []byte(`{"routes": []}`), 0644); err != nil {
		t.Fatal(err)
	}
	waitRun("run after nested change")

	// A directory created while watching is picked up too
	late := filepath.Join(scans, "late")
	if err := os.Mkdir(late, 0755); err != nil {
		t.Fatal(err)
	}
	waitRun("run after new directory")
	if err := os.WriteFile(filepath.Join(late, "home.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	waitRun("run after change in new directory")

	cancel()
	wg.Wait()
}

func TestCheckGateOnce(t *testing.T) {
	f := newAuditFixture(t, testCoverage)
	pcfg := f.pipelineConfig().withDefaults()

	var out bytes.Buffer
	result := checkGateOnce(&out, pcfg)
	if result == nil || !result.GatePassed {
		t.Fatalf("expected a passing gate, got %+v\n%s", result, out.String())
	}
	if !strings.Contains(out.String(), "Coverage gate: PASSED") {
		t.Errorf("output = %q", out.String())
	}

	// Broken inputs are reported, not returned
	pcfg.SubmissionFile = filepath.Join(f.Dir, "missing.yaml")
	out.Reset()
	if checkGateOnce(&out, pcfg) != nil {
		t.Error("expected no result for a missing submission")
	}
	if !strings.Contains(out.String(), "cannot run gate") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunWatchRequiresCoverage(t *testing.T) {
	withTestConfig(t, testConfig(t))
	cmd, _, _ := newTestCmd()
	err := runWatch(cmd, nil)
	if HandleError(err) != ExitInvalidInput {
		t.Errorf("expected input error, got %v", err)
	}
}
