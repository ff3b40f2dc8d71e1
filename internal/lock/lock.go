// Package lock serializes mutating operations per resource key.
//
// Waiting for a key honours the caller's context. Once a key is held, the
// guarded work runs to completion even if the caller goes away, and the key is
// released only when that work returns.
package lock

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"deckhand/internal/errors"
	"deckhand/internal/logger"
)

// Keyed hands out one exclusive slot per key
type Keyed struct {
	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

// NewKeyed creates an empty Keyed lock
func NewKeyed() *Keyed {
	return &Keyed{sems: make(map[string]*semaphore.Weighted)}
}

func (k *Keyed) get(key string) *semaphore.Weighted {
	k.mu.Lock()
	defer k.mu.Unlock()

	sem, ok := k.sems[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		k.sems[key] = sem
	}
	return sem
}

// Acquire blocks until key is free or ctx is done. The returned release
// function is idempotent.
func (k *Keyed) Acquire(ctx context.Context, key string) (func(), error) {
	sem := k.get(key)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(errors.ErrCancelled, "gave up waiting for "+key, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() { sem.Release(1) })
	}, nil
}

// TryAcquire takes key only if it is free right now
func (k *Keyed) TryAcquire(key string) (func(), bool) {
	sem := k.get(key)
	if !sem.TryAcquire(1) {
		return nil, false
	}

	var once sync.Once
	return func() {
		once.Do(func() { sem.Release(1) })
	}, true
}

// Run executes fn while holding key. If ctx is cancelled after the key was
// taken, Run returns a CANCELLED error at once and fn keeps running with a
// context that is no longer cancellable; its result is discarded and the key
// stays held until fn returns.
func Run[T any](ctx context.Context, k *Keyed, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	release, err := k.Acquire(ctx, key)
	if err != nil {
		return zero, err
	}

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	workCtx := context.WithoutCancel(ctx)

	go func() {
		defer release()
		value, err := fn(workCtx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		logger.WithContext(ctx).WithField("resource", key).
			Warn("Caller abandoned operation; it will finish in the background")
		return zero, errors.Wrap(errors.ErrCancelled, "operation abandoned by caller", ctx.Err()).
			WithContext("resource", key)
	}
}
