// Package gps provides position fixes to the RSU and OBU loops.
package gps

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoFix indicates no position is available this cycle.
var ErrNoFix = errors.New("no position fix")

// Fix is a position report.
type Fix struct {
	Latitude  float64
	Longitude float64
	// Speed in meters per second.
	Speed float64
	Time  time.Time
}

// Provider returns the best-effort current position.
type Provider interface {
	Fix(ctx context.Context) (Fix, error)
}

// Static always reports the same position.
type Static struct {
	Position Fix
}

// Fix implements Provider.
func (s *Static) Fix(context.Context) (Fix, error) {
	fix := s.Position
	fix.Time = time.Now()
	return fix, nil
}

// latest holds the most recent fix reported by a streaming source.
type latest struct {
	MaxAge time.Duration

	lock sync.RWMutex
	fix  Fix
	at   time.Time
	ok   bool
	now  func() time.Time
}

func (l *latest) update(fix Fix) {
	l.lock.Lock()
	l.fix, l.at, l.ok = fix, l.clock(), true
	l.lock.Unlock()
}

func (l *latest) invalidate() {
	l.lock.Lock()
	l.ok = false
	l.lock.Unlock()
}

func (l *latest) clock() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}

// Fix implements Provider.
func (l *latest) Fix(ctx context.Context) (Fix, error) {
	if err := ctx.Err(); err != nil {
		return Fix{}, err
	}
	l.lock.RLock()
	defer l.lock.RUnlock()
	if !l.ok {
		return Fix{}, ErrNoFix
	}
	if l.MaxAge > 0 && l.clock().Sub(l.at) > l.MaxAge {
		return Fix{}, ErrNoFix
	}
	return l.fix, nil
}
