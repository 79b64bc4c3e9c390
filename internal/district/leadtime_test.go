package district_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/minh-tn/salesorder-core/internal/district"
)

type stubSource struct {
	calls int
	days  int
	err   error
}

func (s *stubSource) Leadtime(_ context.Context, _ string) (int, error) {
	s.calls++
	return s.days, s.err
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCachedLeadtimeReadThrough(t *testing.T) {
	inner := &stubSource{days: 3}
	cached := &district.Cached{Inner: inner, Client: newTestRedis(t), TTL: time.Minute}

	ctx := context.Background()
	days, err := cached.Leadtime(ctx, "Q1-HCM")
	require.NoError(t, err)
	require.Equal(t, 3, days)
	require.Equal(t, 1, inner.calls)

	days, err = cached.Leadtime(ctx, "q1-hcm")
	require.NoError(t, err)
	require.Equal(t, 3, days)
	require.Equal(t, 1, inner.calls, "keys are case-insensitive and the second read hits the cache")
}

func TestCachedLeadtimeZeroCached(t *testing.T) {
	// "No commitment" is a valid answer and is cached like any other.
	inner := &stubSource{days: 0}
	cached := &district.Cached{Inner: inner, Client: newTestRedis(t), TTL: time.Minute}

	ctx := context.Background()
	_, err := cached.Leadtime(ctx, "Q9")
	require.NoError(t, err)
	_, err = cached.Leadtime(ctx, "Q9")
	require.NoError(t, err)
	require.Equal(t, 1, inner.calls)
}

func TestCachedLeadtimeEmptyKey(t *testing.T) {
	inner := &stubSource{days: 3}
	cached := &district.Cached{Inner: inner, Client: newTestRedis(t), TTL: time.Minute}

	days, err := cached.Leadtime(context.Background(), "  ")
	require.NoError(t, err)
	require.Zero(t, days)
	require.Zero(t, inner.calls)
}

func TestCachedLeadtimeErrorPropagates(t *testing.T) {
	wantErr := errors.New("db down")
	inner := &stubSource{err: wantErr}
	cached := &district.Cached{Inner: inner, Client: newTestRedis(t), TTL: time.Minute}

	_, err := cached.Leadtime(context.Background(), "Q1")
	require.ErrorIs(t, err, wantErr)
}

func TestCachedLeadtimeNilClientPassesThrough(t *testing.T) {
	inner := &stubSource{days: 2}
	cached := &district.Cached{Inner: inner, TTL: time.Minute}

	ctx := context.Background()
	_, err := cached.Leadtime(ctx, "Q1")
	require.NoError(t, err)
	_, err = cached.Leadtime(ctx, "Q1")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}
