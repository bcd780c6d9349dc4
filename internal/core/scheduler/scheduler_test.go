package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvery_RunsJob(t *testing.T) {
	s := NewScheduler()
	var runs int32

	require.NoError(t, s.Every("tick", time.Second, func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}))

	s.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestEvery_RejectsSubSecond(t *testing.T) {
	s := NewScheduler()
	assert.Error(t, s.Every("fast", 10*time.Millisecond, func(ctx context.Context) error { return nil }))
}

func TestAdd_ReplacesSameName(t *testing.T) {
	s := NewScheduler()
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, s.Every("a", time.Minute, noop))
	require.NoError(t, s.Every("a", 2*time.Minute, noop))
	require.NoError(t, s.Every("b", time.Minute, noop))

	assert.Equal(t, []string{"a", "b"}, s.Jobs())
}

func TestRunNow(t *testing.T) {
	s := NewScheduler()
	boom := errors.New("boom")
	require.NoError(t, s.Every("fail", time.Minute, func(ctx context.Context) error { return boom }))

	var latest int32
	require.NoError(t, s.Every("replaced", time.Minute, func(ctx context.Context) error { return nil }))
	require.NoError(t, s.Every("replaced", time.Minute, func(ctx context.Context) error {
		atomic.StoreInt32(&latest, 1)
		return nil
	}))

	assert.ErrorIs(t, s.RunNow(context.Background(), "fail"), boom)
	assert.NoError(t, s.RunNow(context.Background(), "replaced"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&latest), "the replacement job runs")
	assert.Error(t, s.RunNow(context.Background(), "missing"))
}

func TestStop_CancelsJobContext(t *testing.T) {
	s := NewScheduler()
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Error(t, s.ctx.Err())
}
