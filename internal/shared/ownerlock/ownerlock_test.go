package ownerlock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_SerializesSameOwner(t *testing.T) {
	l := New(5 * time.Second)

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "owner-a")
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, l.Tracked())
}

func TestLocker_OwnersAreIndependent(t *testing.T) {
	l := New(time.Second)

	releaseA, err := l.Acquire(context.Background(), "owner-a")
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	releaseB, err := l.Acquire(ctx, "owner-b")
	require.NoError(t, err)
	releaseB()

	assert.Equal(t, 1, l.Tracked())
}

func TestLocker_BoundedWait(t *testing.T) {
	l := New(30 * time.Millisecond)

	release, err := l.Acquire(context.Background(), "owner-a")
	require.NoError(t, err)

	start := time.Now()
	_, err = l.Acquire(context.Background(), "owner-a")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)

	release()
	release()

	again, err := l.Acquire(context.Background(), "owner-a")
	require.NoError(t, err)
	again()
	assert.Equal(t, 0, l.Tracked())
}

func TestLocker_ContextCancellation(t *testing.T) {
	l := New(0)

	release, err := l.Acquire(context.Background(), "owner-a")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Acquire(ctx, "owner-a")
	assert.ErrorIs(t, err, context.Canceled)
}
