package eval

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mfalzone/resil/internal/prom"
	"github.com/mfalzone/resil/internal/slo"
)

// Diagnostic kinds emitted by batch evaluation.
const (
	// DiagQueryError marks an SLO whose backend query failed; it is
	// scored as a violation.
	DiagQueryError = "query-error"

	// DiagNoData marks an SLO omitted from scoring for lack of samples.
	DiagNoData = "no-data"

	// DiagViolated marks an SLO whose samples showed a violation.
	DiagViolated = "violated"
)

// Diagnostic records why an SLO got the verdict it did.
type Diagnostic struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

// Window is a closed evaluation interval.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// BatchResult is the outcome of evaluating a definition set over one
// window. Results holds a key for every SLO except those that returned
// no-data; a failed query is recorded as false.
type BatchResult struct {
	Results     map[string]bool
	Diagnostics []Diagnostic
}

const (
	defaultStep     = 30 * time.Second
	defaultParallel = 8
)

// Evaluator runs the verdict extractor over a set of definitions.
type Evaluator struct {
	backend  prom.Client
	step     time.Duration
	parallel int
}

// NewEvaluator creates a new evaluator with the given backend. A zero
// step falls back to the default range-query granularity.
func NewEvaluator(backend prom.Client, step time.Duration) *Evaluator {
	if step <= 0 {
		step = defaultStep
	}
	return &Evaluator{
		backend:  backend,
		step:     step,
		parallel: defaultParallel,
	}
}

// EvaluateAll evaluates every definition against the given window.
//
// Per-SLO queries are independent and issued concurrently; results are
// reduced by name so scheduling order never changes the outcome. A
// single failed query must never abort the batch: it becomes a false
// verdict and the remaining SLOs are still evaluated.
func (e *Evaluator) EvaluateAll(ctx context.Context, defs []slo.Definition, window Window) BatchResult {
	batch := BatchResult{Results: make(map[string]bool, len(defs))}

	log.Printf("eval: evaluating %d SLOs over window %s - %s",
		len(defs), window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(e.parallel)

	for _, def := range defs {
		def := def
		g.Go(func() error {
			res, err := e.backend.QueryRange(ctx, def.Expr, window.Start, window.End, e.step)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				log.Printf("eval: query failed for SLO %q: %v", def.Name, err)
				batch.Results[def.Name] = false
				batch.Diagnostics = append(batch.Diagnostics, Diagnostic{
					Name:   def.Name,
					Kind:   DiagQueryError,
					Detail: err.Error(),
				})
				return nil
			}

			switch Extract(res) {
			case VerdictNoData:
				log.Printf("eval: SLO %q returned no data; excluding from score", def.Name)
				batch.Diagnostics = append(batch.Diagnostics, Diagnostic{
					Name: def.Name,
					Kind: DiagNoData,
				})
			case VerdictFail:
				batch.Results[def.Name] = false
				batch.Diagnostics = append(batch.Diagnostics, Diagnostic{
					Name: def.Name,
					Kind: DiagViolated,
				})
			case VerdictPass:
				batch.Results[def.Name] = true
			}
			return nil
		})
	}

	g.Wait()

	// Deterministic diagnostic order regardless of query completion order.
	sort.Slice(batch.Diagnostics, func(i, j int) bool {
		if batch.Diagnostics[i].Name != batch.Diagnostics[j].Name {
			return batch.Diagnostics[i].Name < batch.Diagnostics[j].Name
		}
		return batch.Diagnostics[i].Kind < batch.Diagnostics[j].Kind
	})

	return batch
}
