package bench

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skipbench/skipbench/internal/engine"
)

// stubExecutor is a scriptable QueryExecutor for runner tests.
type stubExecutor struct {
	mu     sync.Mutex
	calls  int
	failOn int  // 1-based call number that fails; 0 never fails
	block  bool // wait for ctx and return its error
	rows   int  // rows per result
}

func (s *stubExecutor) Query(ctx context.Context, query string) (*engine.Result, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.failOn != 0 && call == s.failOn {
		return nil, fmt.Errorf("stub engine exploded on call %d", call)
	}

	res := &engine.Result{Columns: []string{"call"}}
	for i := 0; i < s.rows; i++ {
		res.Rows = append(res.Rows, map[string]any{"call": call})
	}
	return res, nil
}

func TestRunRepeated(t *testing.T) {
	exec := &stubExecutor{rows: 3}
	runner := NewRunner(exec, 0)

	res, err := runner.RunRepeated(context.Background(), "baseline", "SELECT 1", 5)
	require.NoError(t, err)
	require.Equal(t, "baseline", res.Label)
	require.Len(t, res.Runs, 5)
	require.Equal(t, 5, exec.calls)
	require.Equal(t, 3, res.RowCount())
	require.Equal(t, Median(res.Runs), res.Median)
	// The representative result set comes from the last repetition.
	require.EqualValues(t, 5, res.Data.Rows[0]["call"])
}

func TestRunRepeatedFailureAborts(t *testing.T) {
	exec := &stubExecutor{rows: 1, failOn: 3}
	runner := NewRunner(exec, 0)

	res, err := runner.RunRepeated(context.Background(), "baseline", "SELECT 1", 5)
	require.Nil(t, res)
	require.ErrorIs(t, err, ErrQueryFailed)
	require.Equal(t, 3, exec.calls, "no repetition may run after a failure")
}

func TestRunRepeatedTimeout(t *testing.T) {
	exec := &stubExecutor{block: true}
	runner := NewRunner(exec, 20*time.Millisecond)

	res, err := runner.RunRepeated(context.Background(), "slow", "SELECT 1", 3)
	require.Nil(t, res)
	require.ErrorIs(t, err, ErrQueryTimeout)
	require.Equal(t, 1, exec.calls, "the measurement must abort on the first timeout")
}

func TestRunRepeatedCancellation(t *testing.T) {
	exec := &stubExecutor{block: true}
	runner := NewRunner(exec, 0)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := runner.RunRepeated(ctx, "canceled", "SELECT 1", 3)
	require.ErrorIs(t, err, ErrQueryFailed)
	require.NotErrorIs(t, err, ErrQueryTimeout)
}

func TestRunRepeatedRejectsZeroRepeats(t *testing.T) {
	runner := NewRunner(&stubExecutor{}, 0)

	_, err := runner.RunRepeated(context.Background(), "none", "SELECT 1", 0)
	require.Error(t, err)
}
