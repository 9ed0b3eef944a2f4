package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optkit/simplexd/optimization"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(id string, finished time.Time) Run {
	return Run{
		ID:         id,
		Objective:  "sphere",
		Dimension:  2,
		Iterations: 500,
		Best: optimization.Solution{
			Parameters: []float64{-1, 0.5},
			Value:      4.5,
		},
		StartedAt:  finished.Add(-time.Second),
		FinishedAt: finished,
	}
}

func TestSaveAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	want := testRun("run-1", time.Now())
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Objective, got.Objective)
	assert.Equal(t, want.Dimension, got.Dimension)
	assert.Equal(t, want.Iterations, got.Iterations)
	assert.False(t, got.Maximize)
	assert.Equal(t, want.Best.Parameters, got.Best.Parameters)
	assert.Equal(t, want.Best.Value, got.Best.Value)
}

func TestGetMissingRun(t *testing.T) {
	s := testStore(t)

	got, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveDuplicateID(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := testRun("dup", time.Now())
	require.NoError(t, s.Save(ctx, run))
	err := s.Save(ctx, run)
	require.Error(t, err)

	_, ok := optimization.IsOptimizationError(err)
	assert.True(t, ok)
}

func TestListOrdersByFinishTime(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := time.Now().Truncate(time.Second)
	require.NoError(t, s.Save(ctx, testRun("old", base.Add(-time.Hour))))
	require.NoError(t, s.Save(ctx, testRun("new", base)))
	require.NoError(t, s.Save(ctx, testRun("mid", base.Add(-time.Minute))))

	runs, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "mid", runs[1].ID)
	assert.Equal(t, "old", runs[2].ID)

	runs, err = s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
