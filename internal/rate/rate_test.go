package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, "", 2, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		res, err := l.Allow(ctx, "1.2.3.4|/token")
		require.NoError(t, err)
		require.True(t, res.Allowed)
		require.EqualValues(t, 2-i, res.Remaining)
	}
	res, err := l.Allow(ctx, "1.2.3.4|/token")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Positive(t, res.RetryAfter)
	require.LessOrEqual(t, res.WindowTTL, time.Minute)

	// otra clave, otro contador
	res, err = l.Allow(ctx, "5.6.7.8|/token")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	mr.Close()
	_, err = l.Allow(ctx, "x")
	require.Error(t, err)
}

func TestMemoryLimiter_WindowRolls(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(1, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	res, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Equal(t, time.Minute, res.WindowTTL)

	now = now.Add(30 * time.Second)
	res, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, 30*time.Second, res.RetryAfter)

	now = now.Add(31 * time.Second)
	res, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestMultiLimiter(t *testing.T) {
	calls := 0
	m := NewMultiLimiter(func(max int, window time.Duration) Limiter {
		calls++
		return NewMemoryLimiter(max, window)
	})
	ctx := context.Background()

	strict := m.Fixed(1, time.Minute)
	_, err := strict.Allow(ctx, "a")
	require.NoError(t, err)
	res, err := m.AllowWithLimits(ctx, "a", 1, time.Minute)
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, 1, calls)

	res, err = m.AllowWithLimits(ctx, "a", 5, time.Minute)
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Equal(t, 2, calls)
}
