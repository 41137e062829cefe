package aggregator

import (
	"math"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// Priority score component bounds
const (
	MaxSeverityBand   = 50
	MaxInstanceScore  = 30
	FixBonus          = 20
	MaxPriorityScore  = 100
	instanceScoreStep = 10.0
)

// ScoreBreakdown shows how a priority score was composed
type ScoreBreakdown struct {
	SeverityBand  int `json:"severity_band"`
	InstanceScore int `json:"instance_score"`
	FixBonus      int `json:"fix_bonus"`
	Total         int `json:"total"`
}

// SeverityBand returns the severity component of the priority score
func SeverityBand(s models.Severity) int {
	switch s {
	case models.SeverityCritical:
		return 50
	case models.SeverityHigh:
		return 35
	case models.SeverityMedium:
		return 20
	case models.SeverityLow:
		return 5
	default:
		return 0
	}
}

// InstanceScore grows with log2 of the instance count: 1 instance gives 10,
// 3 give 20, 7 or more give the 30 cap.
func InstanceScore(instances int) int {
	if instances <= 0 {
		return 0
	}
	score := int(math.Round(instanceScoreStep * math.Log2(float64(instances)+1)))
	if score > MaxInstanceScore {
		return MaxInstanceScore
	}
	return score
}

// ExplainScore returns the three components of a priority score
func ExplainScore(severity models.Severity, instances int, fixAvailable bool) ScoreBreakdown {
	b := ScoreBreakdown{
		SeverityBand:  SeverityBand(severity),
		InstanceScore: InstanceScore(instances),
	}
	if fixAvailable {
		b.FixBonus = FixBonus
	}
	b.Total = clampScore(b.SeverityBand + b.InstanceScore + b.FixBonus)
	return b
}

// PriorityScore ranks a finding on a 0-100 scale. Only severity, instance
// count and fix availability contribute.
func PriorityScore(severity models.Severity, instances int, fixAvailable bool) int {
	return ExplainScore(severity, instances, fixAvailable).Total
}

// Baseline is the score of a single-instance finding with no fix attached
func Baseline(severity models.Severity) int {
	return PriorityScore(severity, 1, false)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxPriorityScore {
		return MaxPriorityScore
	}
	return score
}
