package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMemoryJSON(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var out map[string]int
	assert.ErrorIs(t, m.GetJSON(ctx, "missing", &out), ErrMiss)

	require.NoError(t, m.SetJSON(ctx, "k", map[string]int{"a": 1}, 0))
	require.NoError(t, m.GetJSON(ctx, "k", &out))
	assert.Equal(t, 1, out["a"])

	require.NoError(t, m.Delete(ctx, "k"))
	assert.ErrorIs(t, m.GetJSON(ctx, "k", &out), ErrMiss)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.SetJSON(ctx, "k", "v", time.Minute))
	var s string
	require.NoError(t, m.GetJSON(ctx, "k", &s))

	now = now.Add(time.Minute)
	assert.ErrorIs(t, m.GetJSON(ctx, "k", &s), ErrMiss)
}

func TestMemoryRateLimitWindow(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	for want := int64(1); want <= 3; want++ {
		n, err := m.IncrementRateLimit(ctx, "rl", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	now = now.Add(time.Minute)
	n, err := m.IncrementRateLimit(ctx, "rl", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryPubSub(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	m := NewMemory()

	ch, closeFn := m.Subscribe(ctx, "cart:1")
	require.NoError(t, m.Publish(ctx, "cart:1", "updated"))
	require.NoError(t, m.Publish(ctx, "cart:2", "ignored"))

	select {
	case msg := <-ch:
		assert.Equal(t, "updated", msg)
	case <-time.After(time.Second):
		t.Fatal("no message")
	}

	cancel()
	_, open := <-ch
	assert.False(t, open, "channel closes when the context ends")
	assert.NoError(t, closeFn())
}
