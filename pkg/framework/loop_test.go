package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingCycler struct {
	n      int
	stopAt int
	cancel func()
	err    error
}

func (c *countingCycler) Cycle(ctx context.Context) error {
	c.n++
	if c.n == c.stopAt {
		c.cancel()
	}
	return c.err
}

func TestLoopKeepsRunningOnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &countingCycler{stopAt: 3, cancel: cancel, err: errors.New("boom")}
	var errs int
	l := NewLoop("test", 0, c)
	l.OnError = func(error) { errs++ }
	err := l.Run(ctx)
	require.True(t, errors.Is(err, context.Canceled))
	require.Equal(t, 3, c.n)
	require.Equal(t, 2, errs)
}

func TestLoopInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &countingCycler{stopAt: 2, cancel: cancel}
	start := time.Now()
	err := NewLoop("test", 20*time.Millisecond, c).Run(ctx)
	require.True(t, errors.Is(err, context.Canceled))
	require.Equal(t, 2, c.n)
	require.True(t, time.Since(start) >= 20*time.Millisecond)
}

func TestRunnerAggregatesErrors(t *testing.T) {
	boom := errors.New("boom")
	err := NewRunner().Go(
		RunnableFunc(func(context.Context) error { return boom }),
		RunnableFunc(func(context.Context) error { return context.Canceled }),
		NamedRun("ok", RunnableFunc(func(context.Context) error { return nil })),
	).Wait()
	require.Error(t, err)
	require.True(t, errors.Is(err, boom))
	require.Equal(t, "boom", err.Error())
}

func TestRunWithContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	unblock := make(chan struct{})
	var canceled bool
	err := RunWithContextCancel(ctx, func() {
		canceled = true
		close(unblock)
	}, func() error {
		<-unblock
		return nil
	})
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	require.True(t, canceled)
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	errs.Add(errors.New("a"), nil, errors.New("b"))
	require.Equal(t, "Multiple errors:\na\nb", errs.Aggregate().Error())
}

func TestLoopStopsOnFatal(t *testing.T) {
	closed := errors.New("closed")
	var n int
	err := NewLoop("test", 0, CyclerFunc(func(context.Context) error {
		n++
		if n == 2 {
			return Fatal(closed)
		}
		return nil
	})).Run(context.Background())
	require.Equal(t, closed, err)
	require.Equal(t, 2, n)
	require.NoError(t, Fatal(nil))
}

func TestLoopBacksOffOnErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	var n int
	err := NewLoop("test", 0, CyclerFunc(func(context.Context) error {
		n++
		return errors.New("socket gone")
	})).Run(ctx)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	// 10ms, 20ms, 40ms, 80ms between cycles.
	require.True(t, n >= 2 && n <= 6, "cycles: %d", n)
}

func TestNextBackoff(t *testing.T) {
	require.Equal(t, 10*time.Millisecond, nextBackoff(0, 10*time.Millisecond))
	require.Equal(t, 20*time.Millisecond, nextBackoff(10*time.Millisecond, 10*time.Millisecond))
	require.Equal(t, MaxErrorBackoff, nextBackoff(800*time.Millisecond, 10*time.Millisecond))
}
