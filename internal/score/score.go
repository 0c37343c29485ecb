// Package score implements the severity-weighted resiliency score. The
// calculator is a pure function of its inputs: it owns no state and
// issues no queries.
package score

import "math"

// Default per-severity weights. A severity missing from both the
// override and default tables falls back to the floor weight.
const (
	weightCritical = 2
	weightWarning  = 1
	weightInfo     = 1
	weightFloor    = 1
)

// healthCheckSeverity is the severity class health checks score under:
// infrastructure health is treated as critical-class evidence.
const healthCheckSeverity = "critical"

// Weights maps a severity to its scoring weight.
type Weights map[string]int

// DefaultWeights returns the built-in weight table.
func DefaultWeights() Weights {
	return Weights{
		"critical": weightCritical,
		"warning":  weightWarning,
		"info":     weightInfo,
	}
}

// Breakdown holds raw, unweighted counts of scored checks. No-data SLOs
// appear in neither count.
type Breakdown struct {
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Calculate combines SLO verdicts and health-check verdicts into an
// integer score in [0, 100].
//
// Each scored check contributes the weight of its severity; the score
// is 100 times the passing weight over the total weight, rounded to an
// integer. An SLO's severity comes from the severities lookup; health
// checks always weigh as critical. Entries in overrides replace the
// default weight for that severity only.
//
// With zero scored checks the score is 100 with an empty breakdown:
// nothing was there to fail, so the run gets full marks. This is the
// documented degenerate rule, not an accident of the arithmetic.
func Calculate(severities map[string]string, sloResults, healthResults map[string]bool, overrides Weights) (int, Breakdown) {
	var breakdown Breakdown
	var passWeight, totalWeight int

	for name, passed := range sloResults {
		w := weightFor(severities[name], overrides)
		totalWeight += w
		if passed {
			passWeight += w
			breakdown.Passed++
		} else {
			breakdown.Failed++
		}
	}

	for _, healthy := range healthResults {
		w := weightFor(healthCheckSeverity, overrides)
		totalWeight += w
		if healthy {
			passWeight += w
			breakdown.Passed++
		} else {
			breakdown.Failed++
		}
	}

	if totalWeight == 0 {
		return 100, breakdown
	}

	s := int(math.Round(100 * float64(passWeight) / float64(totalWeight)))
	if s < 0 {
		s = 0
	}
	if s > 100 {
		s = 100
	}
	return s, breakdown
}

// weightFor resolves a severity to its weight: override, then default,
// then the floor for severities neither table knows.
func weightFor(severity string, overrides Weights) int {
	if w, ok := overrides[severity]; ok {
		return w
	}
	if w, ok := DefaultWeights()[severity]; ok {
		return w
	}
	return weightFloor
}
