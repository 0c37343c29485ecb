package resiliency

import (
	"github.com/mfalzone/resil/internal/eval"
	"github.com/mfalzone/resil/internal/score"
)

// ScenarioReport is the scored outcome of one chaos experiment window.
// Reports are append-only: once added to the orchestrator they are only
// read, never mutated.
type ScenarioReport struct {
	Name               string            `json:"name"`
	Window             eval.Window       `json:"window"`
	Score              int               `json:"score"`
	Weight             float64           `json:"weight"`
	Breakdown          score.Breakdown   `json:"breakdown"`
	SLOResults         map[string]bool   `json:"slo_results"`
	HealthCheckResults map[string]bool   `json:"health_check_results"`
	Diagnostics        []eval.Diagnostic `json:"diagnostics,omitempty"`
}

// Summary is the compact run-level result, recomputed wholesale on
// every finalize.
type Summary struct {
	Scenarios            map[string]int `json:"scenarios"`
	ResiliencyScore      int            `json:"resiliency_score"`
	SystemStabilityScore int            `json:"system_stability_score"`
	PassedSLOs           int            `json:"passed_slos"`
	TotalSLOs            int            `json:"total_slos"`
}

// DetailedReport is the summary's full backing data: every scenario
// report plus the whole-run stability evaluation.
type DetailedReport struct {
	Scenarios       []ScenarioReport `json:"scenarios"`
	SystemStability ScenarioReport   `json:"system_stability"`
	Summary         Summary          `json:"summary"`
}
