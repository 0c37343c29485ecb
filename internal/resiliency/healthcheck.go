package resiliency

// HealthCheck is the adapter boundary for auxiliary health evidence
// contributed by callers alongside SLO verdicts. Concrete health-check
// representations implement it once, at the collaborator boundary; the
// scoring core only ever sees these two capabilities.
type HealthCheck interface {
	Name() string
	Healthy() bool
}

// StaticHealthCheck adapts a plain name/status pair.
type StaticHealthCheck struct {
	CheckName string
	Passed    bool
}

// Name implements HealthCheck
func (c StaticHealthCheck) Name() string { return c.CheckName }

// Healthy implements HealthCheck
func (c StaticHealthCheck) Healthy() bool { return c.Passed }

// healthResults flattens checks into the verdict map the score
// calculator consumes.
func healthResults(checks []HealthCheck) map[string]bool {
	if len(checks) == 0 {
		return nil
	}
	out := make(map[string]bool, len(checks))
	for _, c := range checks {
		out[c.Name()] = c.Healthy()
	}
	return out
}
