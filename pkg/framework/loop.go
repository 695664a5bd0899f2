package framework

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"
)

// Error backoff of loops running cycles back to back.
const (
	DefaultErrorBackoff = 10 * time.Millisecond
	MaxErrorBackoff     = time.Second
)

// Loop repeatedly runs a Cycler until the context is done.
// Cycle errors are logged and never stop the loop. Without Interval,
// consecutive errors delay the next cycle, doubling from ErrorBackoff
// up to MaxErrorBackoff.
type Loop struct {
	Name         string
	Interval     time.Duration
	Cycler       Cycler
	ErrorBackoff time.Duration

	// OnError is called with every cycle error, if set.
	OnError func(error)
}

// NewLoop creates a Loop with a delay between cycles.
// A zero interval runs cycles back to back, which suits loops
// suspending inside Cycle (e.g. a blocking receive).
func NewLoop(name string, interval time.Duration, cycler Cycler) *Loop {
	return &Loop{Name: name, Interval: interval, Cycler: cycler, ErrorBackoff: DefaultErrorBackoff}
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	var timer *time.Timer
	if l.Interval > 0 {
		timer = time.NewTimer(0)
		defer timer.Stop()
	}
	var backoff time.Duration
	for {
		if timer != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.Cycler.Cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var fatal *fatalError
			if errors.As(err, &fatal) {
				return fatal.err
			}
			glog.Warningf("%s: cycle error: %v", l.Name, err)
			if l.OnError != nil {
				l.OnError(err)
			}
			if timer == nil && l.ErrorBackoff > 0 {
				backoff = nextBackoff(backoff, l.ErrorBackoff)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(backoff):
				}
			}
		} else {
			backoff = 0
		}
		if timer != nil {
			timer.Reset(l.Interval)
		}
	}
}

// CyclerFunc is the func form of Cycler.
type CyclerFunc func(context.Context) error

// Cycle implements Cycler.
func (f CyclerFunc) Cycle(ctx context.Context) error {
	return f(ctx)
}

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }

func (e *fatalError) Unwrap() error { return e.err }

// Fatal wraps err so the Loop stops and returns err.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

func nextBackoff(cur, base time.Duration) time.Duration {
	if cur == 0 {
		return base
	}
	if cur *= 2; cur > MaxErrorBackoff {
		return MaxErrorBackoff
	}
	return cur
}
