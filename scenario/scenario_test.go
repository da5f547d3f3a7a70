package scenario_test

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/pagopa/anonymizer-plt/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyScenario struct {
	setupErr    error
	runErr      error
	teardownErr error

	setups    int64
	runs      int64
	teardowns int64
	dataSeen  int64
}

func (s *spyScenario) Setup(_ context.Context) (interface{}, error) {
	atomic.AddInt64(&s.setups, 1)

	return "fixture-data", s.setupErr
}

func (s *spyScenario) Run(_ context.Context, _ int, data interface{}) error {
	atomic.AddInt64(&s.runs, 1)

	if data == "fixture-data" {
		atomic.AddInt64(&s.dataSeen, 1)
	}

	return s.runErr
}

func (s *spyScenario) Teardown(_ context.Context, data interface{}) error {
	atomic.AddInt64(&s.teardowns, 1)

	if data != "fixture-data" {
		return errors.New("unexpected data")
	}

	return s.teardownErr
}

func TestRun_lifecycle(t *testing.T) {
	s := &spyScenario{}

	require.NoError(t, scenario.Run(context.Background(), loadFlags(io.Discard, 10), s))

	assert.Equal(t, int64(1), s.setups)
	assert.Equal(t, int64(10), s.runs)
	assert.Equal(t, int64(10), s.dataSeen)
	assert.Equal(t, int64(1), s.teardowns)
}

func TestRun_teardownAfterFailedIterations(t *testing.T) {
	s := &spyScenario{runErr: errors.New("connection refused")}

	require.NoError(t, scenario.Run(context.Background(), loadFlags(io.Discard, 5), s))

	assert.Equal(t, int64(5), s.runs)
	assert.Equal(t, int64(1), s.teardowns)
}

func TestRun_setupError(t *testing.T) {
	s := &spyScenario{setupErr: errors.New("no fixtures")}

	err := scenario.Run(context.Background(), loadFlags(io.Discard, 5), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup failed")
	assert.Equal(t, int64(0), s.runs)
	assert.Equal(t, int64(0), s.teardowns)
}

func TestRun_teardownError(t *testing.T) {
	s := &spyScenario{teardownErr: errors.New("cleanup")}

	err := scenario.Run(context.Background(), loadFlags(io.Discard, 2), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teardown failed")
}

func TestRunner_RequestCounts(t *testing.T) {
	s := &spyScenario{}
	r := scenario.NewRunner(context.Background(), s)
	require.NoError(t, r.Setup())

	_, err := r.Job(0)
	require.NoError(t, err)

	s.runErr = errors.New("failed")

	_, err = r.Job(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iteration 1 failed")

	assert.Equal(t, map[string]int{"ok": 1, "error": 1}, r.RequestCounts())
	require.NoError(t, r.Teardown())
}
