package future

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvedIsSettled(t *testing.T) {
	f := Resolved(42)

	assert.True(t, f.IsSettled())
	v, err := f.Result()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestFirstSettleWins(t *testing.T) {
	f := New[string]()

	assert.True(t, f.Resolve("first"))
	assert.False(t, f.Reject(errors.New("late")))
	assert.False(t, f.Resolve("second"))

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestPlaceholderBeforeSettle(t *testing.T) {
	f := New[[]int]()

	v, err := f.Result()
	assert.NoError(t, err)
	assert.Nil(t, v)
	assert.False(t, f.IsSettled())
}

func TestWaitHonoursContext(t *testing.T) {
	f := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFailedCarriesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Failed[int](boom).Wait(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestMap(t *testing.T) {
	f := New[int]()
	doubled := Map(f, func(v int) int { return v * 2 })

	go f.Resolve(21)

	v, err := doubled.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	boom := errors.New("boom")
	_, err = Map(Failed[int](boom), func(v int) int { return v }).Wait(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestObserveRunsInlineWhenSettled(t *testing.T) {
	var got int
	Resolved(7).Observe(func(v int, err error) {
		got = v
	})
	assert.Equal(t, 7, got)

	f := New[int]()
	seen := make(chan int, 1)
	f.Observe(func(v int, err error) {
		seen <- v
	})
	f.Resolve(9)
	assert.Equal(t, 9, <-seen)
}
