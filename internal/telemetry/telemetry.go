// Package telemetry models the run-telemetry records a chaos pipeline
// collects, and the explicit composition point through which resiliency
// results are attached to them. Attachment is part of the types' own
// serialization contract; nothing is patched in at runtime.
package telemetry

import (
	"encoding/json"

	"github.com/mfalzone/resil/internal/resiliency"
)

// ScenarioRecord is one scenario's telemetry entry within a run.
type ScenarioRecord struct {
	Scenario        string  `json:"scenario"`
	StartTimestamp  float64 `json:"start_timestamp"`
	EndTimestamp    float64 `json:"end_timestamp"`
	ExitStatus      int     `json:"exit_status"`
	ResiliencyScore *int    `json:"resiliency_score,omitempty"`
}

// RunTelemetry is the mutable run-level telemetry object the scoring
// engine reports into.
type RunTelemetry struct {
	RunID            string                     `json:"run_uuid"`
	Scenarios        []ScenarioRecord           `json:"scenarios"`
	ResiliencyScore  *int                       `json:"resiliency_score,omitempty"`
	ResiliencyReport *resiliency.DetailedReport `json:"resiliency_report,omitempty"`
}

// ReportAttacher is implemented by telemetry objects that can carry a
// full resiliency report in their serialized output.
type ReportAttacher interface {
	AttachReport(report *resiliency.DetailedReport)
}

// AttachReport implements ReportAttacher: the full report plus its
// run-level score become part of this record's JSON output.
func (rt *RunTelemetry) AttachReport(report *resiliency.DetailedReport) {
	if report == nil {
		return
	}
	rt.ResiliencyReport = report
	s := report.Summary.ResiliencyScore
	rt.ResiliencyScore = &s
}

// ToJSON serializes the run telemetry, including any attached report.
func (rt *RunTelemetry) ToJSON() ([]byte, error) {
	return json.Marshal(rt)
}

// AttachScenarioScores merges per-scenario compact scores into the
// run's scenario records, matched by scenario name. Records without a
// matching scenario pass through unchanged.
func AttachScenarioScores(rt *RunTelemetry, summary resiliency.Summary) {
	for i := range rt.Scenarios {
		if s, ok := summary.Scenarios[rt.Scenarios[i].Scenario]; ok {
			v := s
			rt.Scenarios[i].ResiliencyScore = &v
		}
	}
}
