package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/aggregator"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/reporter"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/storage"
	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/tui"
)

var (
	// Summarize command flags
	summarizeLastN   int
	summarizeCompare bool
	summarizeFormat  string
	summarizeTUI     bool
)

// isTerminal is swapped in tests
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// runTUI is swapped in tests
var runTUI = tui.Run

// summarizeCmd represents the summarize command
var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Show summary and trends from stored runs",
	Long: `Analyze stored audit runs and show how findings changed over time.

This command displays:
- Latest run summary
- Finding sparkline across the last N runs
- Per-severity trend comparison
- Top recommendations of the latest run

On a terminal, --tui opens an interactive browser of the latest findings.

Example:
  a11yhub summarize
  a11yhub summarize --last 7
  a11yhub summarize --compare
  a11yhub summarize --tui`,
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().IntVarP(&summarizeLastN, "last", "n", 0,
		"number of runs to analyze (default from config)")
	summarizeCmd.Flags().BoolVarP(&summarizeCompare, "compare", "c", false,
		"compare latest run with previous")
	summarizeCmd.Flags().StringVarP(&summarizeFormat, "format", "f", "text",
		"output format: text or json")
	summarizeCmd.Flags().BoolVar(&summarizeTUI, "tui", false,
		"browse the latest findings interactively (terminal only)")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	lastN := summarizeLastN
	if lastN <= 0 {
		lastN = cfg.LastRuns
	}

	store, err := openStore(cfg.StorageDir)
	if err != nil {
		logError("Failed to get storage path: %v", err)
		return err
	}
	out := cmd.OutOrStdout()

	logVerbose("Loading runs from: %s", store.GetStoragePath())

	runs, err := store.ListRuns()
	if err != nil {
		logError("Failed to list runs: %v", err)
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No stored runs found.")
		fmt.Fprintln(out, "Run 'a11yhub audit <path> --coverage <file>' to store your first run.")
		return nil
	}

	logVerbose("Found %d stored runs", len(runs))

	if summarizeCompare {
		return runComparisonReport(out, store)
	}
	return runTrendReport(out, store, lastN)
}

// runComparisonReport compares the latest run with the one before it
func runComparisonReport(out io.Writer, store *storage.LocalStorage) error {
	reports, err := store.GetLastNRuns(2)
	if err != nil {
		logError("Failed to load runs: %v", err)
		return err
	}

	if len(reports) < 2 {
		fmt.Fprintln(out, "Need at least 2 runs for comparison.")
		fmt.Fprintln(out, "Run 'a11yhub audit' again after fixes to compare.")
		return nil
	}

	previous, current := reports[0], reports[1]
	logVerbose("Comparing %s vs %s", current.Timestamp, previous.Timestamp)

	_, err = io.WriteString(out, aggregator.NewTrendAnalyzer().GenerateComparisonReport(current, previous))
	return err
}

// runTrendReport shows trends across the last N runs
func runTrendReport(out io.Writer, store *storage.LocalStorage, lastN int) error {
	reports, err := store.GetLastNRuns(lastN)
	if err != nil {
		logError("Failed to load runs: %v", err)
		return err
	}

	if len(reports) == 0 {
		fmt.Fprintln(out, "No runs found.")
		return nil
	}

	logVerbose("Analyzing trends across %d runs", len(reports))

	trendSummary := aggregator.NewTrendAnalyzer().AnalyzeLastNRuns(reports)
	if trendSummary == nil {
		fmt.Fprintln(out, "Unable to generate trend summary.")
		return nil
	}

	latest := reports[len(reports)-1]

	if summarizeTUI {
		if isTerminal() {
			return runTUI(latest, trendSummary)
		}
		logVerbose("stdout is not a terminal; falling back to %s output", summarizeFormat)
	}

	switch summarizeFormat {
	case "text":
		printTrendSummaryText(out, trendSummary, reports)
		return nil
	case "json":
		// Stored runs have passed the gate, so the full report renders
		return reporter.NewJSONReporter(out, true).Generate(latest)
	default:
		return &ValidationError{Message: fmt.Sprintf("unsupported format: %s", summarizeFormat)}
	}
}

// printTrendSummaryText prints trend summary in human-readable format
func printTrendSummaryText(out io.Writer, summary *models.TrendSummary, reports []*models.AuditReport) {
	p := func(format string, args ...interface{}) {
		_, _ = fmt.Fprintf(out, format, args...)
	}

	p("a11yhub Trend Summary\n")
	p("==================================================\n\n")

	p("Time Range: %s\n", summary.TimeRange)
	p("Runs Analyzed: %d\n\n", summary.RunsAnalyzed)

	latest := reports[len(reports)-1]
	p("Latest Run: %s (%s)\n", latest.Timestamp.Format("2006-01-02 15:04:05"), latest.RunID)
	p("Total Findings: %d", latest.Summary.TotalFindings)

	if len(reports) >= 2 {
		previous := reports[len(reports)-2]
		change := latest.Summary.TotalFindings - previous.Summary.TotalFindings

		direction := "stable"
		switch {
		case change < 0:
			direction = "improving"
		case change > 0:
			direction = "degrading"
		}

		changePercent := 0.0
		if previous.Summary.TotalFindings > 0 {
			changePercent = float64(change) / float64(previous.Summary.TotalFindings) * 100.0
		}

		p(" (%s %s %.1f%%)\n", aggregator.GetTrendIndicator(direction), direction, changePercent)
	} else {
		p("\n")
	}
	p("\n")

	if len(summary.FindingSparkline) > 0 {
		p("Finding Trend (over time):\n  ")
		printSparkline(out, summary.FindingSparkline)
		p("\n")
	}

	if len(summary.BySeverity) > 0 {
		p("By Severity:\n")
		p("--------------------------------------------------\n")
		for _, sev := range models.Severities {
			trend, ok := summary.BySeverity[sev]
			if !ok {
				continue
			}
			indicator := "→"
			if trend.Change < 0 {
				indicator = "↓"
			} else if trend.Change > 0 {
				indicator = "↑"
			}
			p("  %-8s %d findings (%s %+d, %.1f%%)\n",
				strings.ToUpper(string(sev)), trend.CurrentFindings, indicator, trend.Change, trend.ChangePercent)
		}
		p("\n")
	}

	if len(latest.Recommendations) > 0 {
		p("Top Recommendations:\n")
		p("--------------------------------------------------\n")
		top := aggregator.NewRecommendationGenerator().GetTopRecommendations(latest.Recommendations, 5)
		for i, rec := range top {
			p("  %d. [%s] %s\n", i+1, strings.ToUpper(string(rec.Severity)), rec.Action)
		}
		p("\n")
	}

	p("Run 'a11yhub audit' to record a new run\n")
}

// printSparkline prints a simple block sparkline
func printSparkline(out io.Writer, values []int) {
	if len(values) == 0 {
		return
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	var b strings.Builder
	for _, v := range values {
		if hi == lo {
			b.WriteRune(chars[len(chars)/2])
			continue
		}
		idx := (v - lo) * (len(chars) - 1) / (hi - lo)
		b.WriteRune(chars[idx])
	}

	fmt.Fprintf(out, "%s [%d → %d]\n", b.String(), values[0], values[len(values)-1])
}
