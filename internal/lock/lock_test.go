package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"deckhand/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireIsExclusivePerKey(t *testing.T) {
	k := NewKeyed()

	release, err := k.Acquire(context.Background(), "repo")
	require.NoError(t, err)

	_, ok := k.TryAcquire("repo")
	assert.False(t, ok)

	other, ok := k.TryAcquire("compose")
	require.True(t, ok)
	other()

	release()
	release() // idempotent

	again, ok := k.TryAcquire("repo")
	require.True(t, ok)
	again()
}

func TestAcquireHonoursContext(t *testing.T) {
	k := NewKeyed()
	release, err := k.Acquire(context.Background(), "repo")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = k.Acquire(ctx, "repo")
	assert.True(t, errors.HasCode(err, errors.ErrCancelled))
}

func TestRunReturnsResult(t *testing.T) {
	k := NewKeyed()

	value, err := Run(context.Background(), k, "repo", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestAbandonedRunKeepsKeyUntilDone(t *testing.T) {
	k := NewKeyed()

	var mu sync.Mutex
	var events []string
	record := func(e string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}

	started := make(chan struct{})
	unblock := make(chan struct{})
	firstDone := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(firstDone)
		_, err := Run(ctx, k, "compose", func(workCtx context.Context) (string, error) {
			record("first:start")
			close(started)
			<-unblock
			assert.NoError(t, workCtx.Err())
			record("first:end")
			return "discarded", nil
		})
		assert.True(t, errors.HasCode(err, errors.ErrCancelled))
	}()

	<-started
	cancel()
	<-firstDone

	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		_, err := Run(context.Background(), k, "compose", func(context.Context) (string, error) {
			record("second:start")
			return "ok", nil
		})
		assert.NoError(t, err)
	}()

	select {
	case <-secondDone:
		t.Fatal("second run acquired the key while the abandoned one was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(unblock)
	<-secondDone

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first:start", "first:end", "second:start"}, events)
}
