// Package metrics exports audit results as Prometheus gauges written to a
// node_exporter textfile.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

const namespace = "a11yhub"

// Recorder holds the gauges for one audit run on a private registry
type Recorder struct {
	registry *prometheus.Registry

	findings       *prometheus.GaugeVec
	instances      prometheus.Gauge
	routes         prometheus.Gauge
	maxPriority    prometheus.Gauge
	gatePassed     prometheus.Gauge
	gateErrors     prometheus.Gauge
	coverageRows   *prometheus.GaugeVec
	lastRunSeconds prometheus.Gauge
}

// NewRecorder creates a recorder with every gauge registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		findings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "findings",
			Help:      "Deduplicated findings by severity.",
		}, []string{"severity"}),
		instances: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "finding_instances",
			Help:      "Total failing DOM instances across all findings.",
		}),
		routes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "routes_scanned",
			Help:      "Distinct routes in the scan batch.",
		}),
		maxPriority: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "max_priority_score",
			Help:      "Highest finding priority score (0-100).",
		}),
		gatePassed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gate_passed",
			Help:      "1 if the coverage gate passed, 0 otherwise.",
		}),
		gateErrors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gate_errors",
			Help:      "Number of coverage gate errors.",
		}),
		coverageRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "coverage_rows",
			Help:      "Coverage rows by normalized status.",
		}, []string{"status"}),
		lastRunSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the recorded run.",
		}),
	}

	r.registry.MustRegister(
		r.findings,
		r.instances,
		r.routes,
		r.maxPriority,
		r.gatePassed,
		r.gateErrors,
		r.coverageRows,
		r.lastRunSeconds,
	)

	return r
}

// Registry exposes the underlying registry for gathering
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFindings records the finding summary
func (r *Recorder) ObserveFindings(summary models.AuditSummary) {
	for _, sev := range models.Severities {
		r.findings.WithLabelValues(string(sev)).Set(float64(summary.FindingsBySeverity[sev]))
	}
	r.instances.Set(float64(summary.TotalInstances))
	r.routes.Set(float64(summary.RoutesScanned))
	r.maxPriority.Set(float64(summary.MaxPriority))
}

// ObserveGate records a gate result. A nil result counts as not passed.
func (r *Recorder) ObserveGate(result *models.CoverageGateResult) {
	if result == nil {
		r.gatePassed.Set(0)
		return
	}

	if result.GatePassed {
		r.gatePassed.Set(1)
	} else {
		r.gatePassed.Set(0)
	}
	r.gateErrors.Set(float64(len(result.Errors)))

	r.coverageRows.WithLabelValues("pass").Set(float64(result.Tallies.Pass))
	r.coverageRows.WithLabelValues("fail").Set(float64(result.Tallies.Fail))
	r.coverageRows.WithLabelValues("na").Set(float64(result.Tallies.NA))
	r.coverageRows.WithLabelValues("invalid").Set(float64(result.Tallies.Invalid))
}

// ObserveReport records a complete audit report
func (r *Recorder) ObserveReport(report *models.AuditReport) {
	r.ObserveFindings(report.Summary)
	r.ObserveGate(report.Gate)
	if !report.Timestamp.IsZero() {
		r.lastRunSeconds.Set(float64(report.Timestamp.Unix()))
	}
}

// WriteTextfile writes every gauge in the text exposition format.
// The write is atomic so node_exporter never reads a partial file.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
