package keylock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_SerializesSameKey(t *testing.T) {
	t.Parallel()

	locker := New()
	counter := 0
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "ORD-1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Zero(t, locker.Len())
}

func TestLocker_DifferentKeysDoNotBlock(t *testing.T) {
	t.Parallel()

	locker := New()
	unlockA, err := locker.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := locker.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestLocker_RespectsContext(t *testing.T) {
	t.Parallel()

	locker := New()
	unlock, err := locker.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Zero(t, locker.Len())
}

func TestLocker_LockAll(t *testing.T) {
	t.Parallel()

	locker := New()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys := []string{"p1", "p2", "p3"}
			if i%2 == 0 {
				keys = []string{"p3", "p1", "p2", "p1"}
			}
			unlock, err := locker.LockAll(context.Background(), keys...)
			if assert.NoError(t, err) {
				unlock()
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, locker.Len())
}
