package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/reporter"
)

const defaultDebounce = 300 * time.Millisecond

var (
	watchCoverage string
	watchFindings string
	watchTemplate string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]...",
	Short: "Re-run the coverage gate whenever inputs change",
	Long: `Watch scan results, the coverage submission, and the checklist template,
and re-run the coverage gate after every change. Directory and glob inputs
are watched recursively, including subdirectories created later. Changes
are debounced so a burst of writes triggers one run. Stop with Ctrl-C.

Nothing is stored or rendered; use 'a11yhub audit' once the gate passes.

Example:
  a11yhub watch ./scans --coverage coverage.yaml
  a11yhub watch --findings findings.json --coverage coverage.yaml`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchCoverage, "coverage", "c", "",
		"coverage submission (JSON or YAML)")
	watchCmd.Flags().StringVar(&watchFindings, "findings", "",
		"finding set written by 'a11yhub findings'")
	watchCmd.Flags().StringVarP(&watchTemplate, "template", "t", "",
		"checklist template (default from config, else built in)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", defaultDebounce,
		"quiet period before re-running the gate")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchCoverage == "" {
		return &ValidationError{Message: "no coverage submission given (use --coverage)"}
	}

	pcfg := pipelineFromConfig(cfg)
	pcfg.ScanPaths = args
	pcfg.FindingsFile = watchFindings
	pcfg.SubmissionFile = watchCoverage
	if watchTemplate != "" {
		pcfg.TemplateFile = watchTemplate
	}
	pcfg = pcfg.withDefaults()

	targets := watchTargets(pcfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	check := func() { checkGateOnce(out, pcfg) }

	return watchAndRun(ctx, targets, watchDebounce, check, out)
}

// watchAndRun runs fn once, then again after every debounced change to
// one of targets, until ctx is done
func watchAndRun(ctx context.Context, targets []string, debounce time.Duration, fn func(), out io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init failed: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range watchDirs(targets) {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		logDebug("Watching %s", dir)
	}

	if debounce <= 0 {
		debounce = defaultDebounce
	}

	fn()
	fmt.Fprintf(out, "Watching %d path(s) for changes. Press Ctrl-C to stop.\n", len(targets))

	trigger := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(ev, targets) {
				continue
			}
			logDebug("Change detected: %s %s", ev.Op, ev.Name)
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addWatchRecursive(watcher, ev.Name); err != nil {
						logError("Watch %s: %v", ev.Name, err)
					}
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
		case <-trigger:
			fn()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logError("Watch error: %v", err)
		}
	}
}

// checkGateOnce loads the current inputs and prints the gate result.
// Errors are printed, never returned, so the watch keeps running.
func checkGateOnce(out io.Writer, pcfg PipelineConfig) *models.CoverageGateResult {
	fmt.Fprintf(out, "\n[%s] Checking coverage gate\n", time.Now().Format("15:04:05"))

	input, err := loadFindings(pcfg)
	if err != nil {
		fmt.Fprintf(out, "  cannot load findings: %v\n", err)
		return nil
	}

	result, err := runGate(pcfg.TemplateFile, pcfg.SubmissionFile, input.Findings)
	if err != nil {
		fmt.Fprintf(out, "  cannot run gate: %v\n", err)
		return nil
	}

	_ = reporter.NewTextReporter(out).GenerateGate(result)
	return result
}

// watchTargets lists the files and directories whose changes matter
func watchTargets(pcfg PipelineConfig) []string {
	var targets []string
	for _, p := range pcfg.ScanPaths {
		if strings.ContainsAny(p, "*?[{") {
			// Watch the static prefix of a glob
			targets = append(targets, globRoot(p))
			continue
		}
		targets = append(targets, p)
	}
	for _, p := range []string{pcfg.FindingsFile, pcfg.SubmissionFile, pcfg.TemplateFile} {
		if p != "" {
			targets = append(targets, p)
		}
	}
	return targets
}

// watchDirs returns the directories to register: every directory under a
// directory target, and the parent of every file so editors that replace
// files are caught
func watchDirs(targets []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, t := range targets {
		if !isDir(t) {
			add(filepath.Dir(t))
			continue
		}
		_ = filepath.Walk(t, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if info.IsDir() {
				add(path)
			}
			return nil
		})
	}
	return dirs
}

// addWatchRecursive registers root and every directory below it
func addWatchRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			logDebug("Watching %s", path)
			return w.Add(path)
		}
		return nil
	})
}

// relevantEvent reports whether ev touches one of targets. Anything below a
// directory target counts.
func relevantEvent(ev fsnotify.Event, targets []string) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(ev.Name)
	if strings.HasSuffix(name, ".tmp") || strings.HasSuffix(name, "~") {
		return false
	}
	for _, t := range targets {
		t = filepath.Clean(t)
		if name == t {
			return true
		}
		if isDir(t) && within(name, t) {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// within reports whether path lies below dir
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// globRoot returns the directory part of a pattern before its first meta character
func globRoot(pattern string) string {
	idx := strings.IndexAny(pattern, "*?[{")
	if idx < 0 {
		return pattern
	}
	root := filepath.Dir(pattern[:idx+1])
	if root == "" {
		return "."
	}
	return root
}
