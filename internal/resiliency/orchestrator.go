// Package resiliency turns time-series evidence from a chaos run into a
// single bounded score. The orchestrator owns the SLO definition set
// and the append-only list of scenario reports; evaluation itself is
// delegated to the eval and score packages.
package resiliency

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mfalzone/resil/internal/eval"
	"github.com/mfalzone/resil/internal/prom"
	"github.com/mfalzone/resil/internal/score"
	"github.com/mfalzone/resil/internal/slo"
)

// SystemStabilityName is the report name of the whole-run evaluation.
const SystemStabilityName = "system_stability"

// Sequencing errors. Both indicate a caller bug, not a data problem.
var (
	// ErrNoScenarios is returned by Finalize when no scenario was added.
	ErrNoScenarios = errors.New("resiliency: finalize requires at least one scenario")

	// ErrNotFinalized is returned by the report accessors before a
	// successful Finalize.
	ErrNotFinalized = errors.New("resiliency: reports are not available before finalize")
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWeights overrides per-severity scoring weights.
func WithWeights(w score.Weights) Option {
	return func(o *Orchestrator) { o.weights = w }
}

// WithStep sets the range-query granularity.
func WithStep(step time.Duration) Option {
	return func(o *Orchestrator) { o.step = step }
}

// WithValidator schema-checks the definitions source during
// construction. Findings are logged as warnings; the loader still
// drops invalid entries on its own.
func WithValidator(v *slo.Validator) Option {
	return func(o *Orchestrator) { o.validator = v }
}

// Orchestrator drives batch evaluation and scoring across the
// scenarios of one chaos run.
type Orchestrator struct {
	defs       []slo.Definition
	severities map[string]string
	evaluator  *eval.Evaluator
	weights    score.Weights
	step       time.Duration
	validator  *slo.Validator

	// mu guards the fields below. Scenario evaluation runs outside the
	// lock; only the report append and the finalize bookkeeping are
	// serialized.
	mu        sync.Mutex
	scenarios []ScenarioReport
	finalized bool
	summary   Summary
	detailed  DetailedReport
}

// New loads SLO definitions from the source and builds an orchestrator
// backed by the given query client. A source that cannot be loaded is a
// fatal configuration error.
func New(source slo.Source, backend prom.Client, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{}
	for _, opt := range opts {
		opt(o)
	}

	if o.validator != nil {
		for _, verr := range o.validator.ValidateSource(source) {
			log.Printf("resiliency: definitions schema warning: %v", verr)
		}
	}

	defs, err := slo.Load(source)
	if err != nil {
		return nil, fmt.Errorf("load SLO definitions: %w", err)
	}

	o.defs = defs
	o.severities = slo.SeveritiesByName(defs)
	o.evaluator = eval.NewEvaluator(backend, o.step)

	log.Printf("resiliency: loaded %d SLO definitions", len(defs))
	return o, nil
}

// Definitions returns the loaded definition set.
func (o *Orchestrator) Definitions() []slo.Definition {
	out := make([]slo.Definition, len(o.defs))
	copy(out, o.defs)
	return out
}

// AddScenario evaluates every SLO over the scenario window, scores the
// verdicts together with the supplied health checks, and appends the
// resulting report. Calls are independent and safe to run concurrently;
// only the append is serialized.
func (o *Orchestrator) AddScenario(ctx context.Context, name string, window eval.Window, weight float64, checks []HealthCheck) (*ScenarioReport, error) {
	if name == "" {
		return nil, errors.New("resiliency: scenario name is required")
	}
	if !window.End.After(window.Start) {
		return nil, fmt.Errorf("resiliency: scenario %q window end must be after start", name)
	}

	batch := o.evaluator.EvaluateAll(ctx, o.defs, window)
	health := healthResults(checks)
	s, breakdown := score.Calculate(o.severities, batch.Results, health, o.weights)

	report := ScenarioReport{
		Name:               name,
		Window:             window,
		Score:              s,
		Weight:             weight,
		Breakdown:          breakdown,
		SLOResults:         batch.Results,
		HealthCheckResults: health,
		Diagnostics:        batch.Diagnostics,
	}

	o.mu.Lock()
	o.scenarios = append(o.scenarios, report)
	o.mu.Unlock()

	log.Printf("resiliency: scenario %q scored %d (passed=%d failed=%d)",
		name, s, breakdown.Passed, breakdown.Failed)
	return &report, nil
}

// Finalize computes the run-level results: the weighted mean of
// scenario scores and a fresh whole-run stability evaluation over the
// union of all scenario windows. It recomputes from scratch every call,
// so repeating it with unchanged inputs yields identical reports.
func (o *Orchestrator) Finalize(ctx context.Context) error {
	o.mu.Lock()
	scenarios := make([]ScenarioReport, len(o.scenarios))
	copy(scenarios, o.scenarios)
	o.mu.Unlock()

	if len(scenarios) == 0 {
		return ErrNoScenarios
	}

	resiliencyScore := weightedMean(scenarios)

	// The stability window spans the whole run, quiet periods
	// included, and is evaluated independently of the scenario scores.
	union := unionWindow(scenarios)
	batch := o.evaluator.EvaluateAll(ctx, o.defs, union)
	stabilityScore, stabilityBreakdown := score.Calculate(o.severities, batch.Results, nil, o.weights)

	stability := ScenarioReport{
		Name:        SystemStabilityName,
		Window:      union,
		Score:       stabilityScore,
		Breakdown:   stabilityBreakdown,
		SLOResults:  batch.Results,
		Diagnostics: batch.Diagnostics,
	}

	summary := Summary{
		Scenarios:            make(map[string]int, len(scenarios)),
		ResiliencyScore:      resiliencyScore,
		SystemStabilityScore: stabilityScore,
	}
	for _, sc := range scenarios {
		summary.Scenarios[sc.Name] = sc.Score
		summary.PassedSLOs += sc.Breakdown.Passed
		summary.TotalSLOs += sc.Breakdown.Passed + sc.Breakdown.Failed
	}

	o.mu.Lock()
	o.summary = summary
	o.detailed = DetailedReport{
		Scenarios:       scenarios,
		SystemStability: stability,
		Summary:         summary,
	}
	o.finalized = true
	o.mu.Unlock()

	log.Printf("resiliency: run finalized: resiliency_score=%d system_stability_score=%d",
		resiliencyScore, stabilityScore)
	return nil
}

// Summary returns the compact run result. Calling it before a
// successful Finalize is a sequencing error.
func (o *Orchestrator) Summary() (Summary, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.finalized {
		return Summary{}, ErrNotFinalized
	}
	return o.summary, nil
}

// DetailedReport returns the full run report. Calling it before a
// successful Finalize is a sequencing error.
func (o *Orchestrator) DetailedReport() (DetailedReport, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.finalized {
		return DetailedReport{}, ErrNotFinalized
	}
	return o.detailed, nil
}

// weightedMean combines scenario scores by their declared weights,
// truncated to an integer. A run whose weights sum to zero falls back
// to the plain mean.
func weightedMean(scenarios []ScenarioReport) int {
	var weighted, total float64
	for _, sc := range scenarios {
		weighted += float64(sc.Score) * sc.Weight
		total += sc.Weight
	}
	if total == 0 {
		var sum int
		for _, sc := range scenarios {
			sum += sc.Score
		}
		return sum / len(scenarios)
	}
	return int(weighted / total)
}

// unionWindow spans the earliest start to the latest end across all
// scenario windows.
func unionWindow(scenarios []ScenarioReport) eval.Window {
	union := scenarios[0].Window
	for _, sc := range scenarios[1:] {
		if sc.Window.Start.Before(union.Start) {
			union.Start = sc.Window.Start
		}
		if sc.Window.End.After(union.End) {
			union.End = sc.Window.End
		}
	}
	return union
}
