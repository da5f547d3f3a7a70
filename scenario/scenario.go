// Package scenario defines load test scenarios and adapts them to load generator.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pagopa/anonymizer-plt/loadgen"
)

// Scenario is a unit of load test with lifecycle hooks invoked by harness.
//
// Setup runs once before iterations, its result is passed to Run and Teardown.
// Run is invoked once per iteration, possibly concurrently.
// Teardown runs once after all iterations regardless of their outcome.
type Scenario interface {
	Setup(ctx context.Context) (interface{}, error)
	Run(ctx context.Context, i int, data interface{}) error
	Teardown(ctx context.Context, data interface{}) error
}

// Counter exposes labeled request counts.
type Counter interface {
	RequestCounts() map[string]int
}

// Runner adapts Scenario to loadgen.JobProducer.
type Runner struct {
	ctx  context.Context
	s    Scenario
	data interface{}

	mu     sync.Mutex
	counts map[string]int
}

var _ loadgen.JobProducer = &Runner{}

// NewRunner creates scenario runner.
func NewRunner(ctx context.Context, s Scenario) *Runner {
	return &Runner{
		ctx:    ctx,
		s:      s,
		counts: make(map[string]int, 2),
	}
}

// Setup invokes scenario setup and keeps its result for iterations.
func (r *Runner) Setup() error {
	data, err := r.s.Setup(r.ctx)
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	r.data = data

	return nil
}

// Teardown invokes scenario teardown.
func (r *Runner) Teardown() error {
	if err := r.s.Teardown(r.ctx, r.data); err != nil {
		return fmt.Errorf("teardown failed: %w", err)
	}

	return nil
}

// Job runs single scenario iteration.
func (r *Runner) Job(i int) (time.Duration, error) {
	start := time.Now()

	err := r.s.Run(r.ctx, i, r.data)

	r.mu.Lock()
	if err != nil {
		r.counts["error"]++
	} else {
		r.counts["ok"]++
	}
	r.mu.Unlock()

	if err != nil {
		return 0, fmt.Errorf("iteration %d failed: %w", i, err)
	}

	return time.Since(start), nil
}

// RequestCounts returns scenario counts if available, or iteration outcomes.
func (r *Runner) RequestCounts() map[string]int {
	if c, ok := r.s.(Counter); ok {
		return c.RequestCounts()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res := make(map[string]int, len(r.counts))
	for k, v := range r.counts {
		res[k] = v
	}

	return res
}

// Run executes scenario under load generator, teardown is invoked even if load fails.
func Run(ctx context.Context, lf loadgen.Flags, s Scenario) (err error) {
	r := NewRunner(ctx, s)

	if err := r.Setup(); err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, r.Teardown())
	}()

	return loadgen.Run(lf, r)
}
