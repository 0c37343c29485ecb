// Package promtest provides a fixture-driven backend double used by
// evaluator and orchestrator tests in place of a live query API.
package promtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mfalzone/resil/internal/prom"
)

// Fake implements prom.Client from canned per-expression fixtures.
type Fake struct {
	mu        sync.Mutex
	responses map[string]prom.Result
	errors    map[string]error
	calls     []string
}

// NewFake creates an empty fake backend. Expressions without a fixture
// return an error, mirroring a backend that rejects unknown queries.
func NewFake() *Fake {
	return &Fake{
		responses: make(map[string]prom.Result),
		errors:    make(map[string]error),
	}
}

// SetResult registers the result returned for an expression.
func (f *Fake) SetResult(expr string, result prom.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[expr] = result
}

// SetError registers a query failure for an expression.
func (f *Fake) SetError(expr string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[expr] = err
}

// Calls returns the expressions queried so far, in call order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// QueryRange implements prom.Client
func (f *Fake) QueryRange(ctx context.Context, expr string, start, end time.Time, step time.Duration) (prom.Result, error) {
	return f.lookup(expr)
}

// QueryInstant implements prom.Client
func (f *Fake) QueryInstant(ctx context.Context, expr string) (prom.Result, error) {
	return f.lookup(expr)
}

func (f *Fake) lookup(expr string) (prom.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, expr)

	if err, ok := f.errors[expr]; ok {
		return prom.Result{}, err
	}
	if res, ok := f.responses[expr]; ok {
		return res, nil
	}
	return prom.Result{}, fmt.Errorf("no fixture for query: %s", expr)
}

// RangeSeries builds a range-shaped series from raw sample values, one
// sample per second starting at a fixed epoch.
func RangeSeries(values ...interface{}) prom.Series {
	samples := make([]prom.SamplePair, len(values))
	for i, v := range values {
		samples[i] = prom.SamplePair{float64(1700000000 + i), v}
	}
	return prom.Series{
		Metric:  map[string]string{"job": "promtest"},
		Samples: samples,
	}
}

// InstantSeries builds an instant-shaped series with a single value.
func InstantSeries(value interface{}) prom.Series {
	pair := prom.SamplePair{float64(1700000000), value}
	return prom.Series{
		Metric: map[string]string{"job": "promtest"},
		Value:  &pair,
	}
}

// RangeResult wraps a single range series in a Result.
func RangeResult(values ...interface{}) prom.Result {
	return prom.Result{Series: []prom.Series{RangeSeries(values...)}}
}

// InstantResult wraps a single instant series in a Result.
func InstantResult(value interface{}) prom.Result {
	return prom.Result{Series: []prom.Series{InstantSeries(value)}}
}

// EmptyResult returns a result with no series at all.
func EmptyResult() prom.Result {
	return prom.Result{}
}
