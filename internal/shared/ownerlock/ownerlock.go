// Package ownerlock serializes work per owner inside one process.
//
// Each owner gets a weighted semaphore of size one, created on first use and
// dropped when the last holder or waiter leaves. Different owners never share
// a slot. Waits are bounded so a stuck holder surfaces as ErrTimeout instead
// of an unbounded queue.
package ownerlock

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTimeout is returned when the owner's slot stays taken for the whole wait.
var ErrTimeout = errors.New("timed out waiting for owner lock")

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// Locker hands out exclusive per-owner slots.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
	wait    time.Duration
}

// New creates a Locker; wait <= 0 means callers wait as long as their context allows.
func New(wait time.Duration) *Locker {
	return &Locker{
		entries: make(map[string]*entry),
		wait:    wait,
	}
}

// Acquire blocks until ownerID's slot is free. The returned release func is
// safe to call more than once. When ctx ends first its error is returned;
// when the configured wait elapses first ErrTimeout is returned.
func (l *Locker) Acquire(ctx context.Context, ownerID string) (func(), error) {
	e := l.ref(ownerID)

	waitCtx, cancel := ctx, context.CancelFunc(func() {})
	if l.wait > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, l.wait)
	}
	defer cancel()

	if err := e.sem.Acquire(waitCtx, 1); err != nil {
		l.unref(ownerID, e)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, ErrTimeout
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			l.unref(ownerID, e)
		})
	}, nil
}

// Tracked returns how many owners currently have holders or waiters.
func (l *Locker) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Locker) ref(ownerID string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[ownerID]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		l.entries[ownerID] = e
	}
	e.refs++
	return e
}

func (l *Locker) unref(ownerID string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, ownerID)
	}
}
