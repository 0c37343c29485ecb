package resiliency

import (
	"context"
	"log"

	"github.com/mfalzone/resil/internal/eval"
	"github.com/mfalzone/resil/internal/prom"
	"github.com/mfalzone/resil/internal/slo"
)

// ScenarioSpec describes one scenario for ScoreRun.
type ScenarioSpec struct {
	Name   string
	Window eval.Window
	Weight float64
	Checks []HealthCheck
}

// ScoreRun scores a whole chaos run in one shot. It is the boundary
// entry point for pipelines that must not be disturbed by scoring: it
// never returns an error and never panics. On any internal failure it
// logs and returns nil, leaving the caller's run unaffected.
func ScoreRun(ctx context.Context, source slo.Source, backend prom.Client, scenarios []ScenarioSpec, opts ...Option) (report *DetailedReport) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("resiliency: recovered from panic while scoring run: %v", r)
			report = nil
		}
	}()

	o, err := New(source, backend, opts...)
	if err != nil {
		log.Printf("resiliency: skipping resiliency scoring: %v", err)
		return nil
	}

	for _, spec := range scenarios {
		if _, err := o.AddScenario(ctx, spec.Name, spec.Window, spec.Weight, spec.Checks); err != nil {
			log.Printf("resiliency: skipping scenario %q: %v", spec.Name, err)
		}
	}

	if err := o.Finalize(ctx); err != nil {
		log.Printf("resiliency: skipping resiliency scoring: %v", err)
		return nil
	}

	detailed, err := o.DetailedReport()
	if err != nil {
		log.Printf("resiliency: skipping resiliency scoring: %v", err)
		return nil
	}
	return &detailed
}
