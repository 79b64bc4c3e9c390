package promo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/minh-tn/salesorder-core/internal/promo"
)

type countingCatalog struct {
	calls   int
	result  []promo.Promotion
	fail    bool
	failErr error
}

func (c *countingCatalog) Query(_ context.Context, _, _, _ string) ([]promo.Promotion, error) {
	c.calls++
	if c.fail {
		return nil, c.failErr
	}
	return c.result, nil
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCacheReadThrough(t *testing.T) {
	inner := &countingCatalog{result: []promo.Promotion{
		{ID: "KM-A", Kind: promo.KindPercent, BaseValue: decimal.NewFromInt(10)},
	}}
	cache := promo.NewCache(inner, newTestRedis(t), time.Minute)

	ctx := context.Background()
	first, err := cache.Query(ctx, "SP-001", "CUST-1", "NET30")
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, inner.calls)

	second, err := cache.Query(ctx, "SP-001", "CUST-1", "NET30")
	require.NoError(t, err)
	require.Equal(t, 1, inner.calls, "second query must be served from cache")
	require.Equal(t, first[0].ID, second[0].ID)
	require.True(t, second[0].BaseValue.Equal(decimal.NewFromInt(10)))
}

func TestCacheKeyedByCustomerAndTerms(t *testing.T) {
	inner := &countingCatalog{result: []promo.Promotion{{ID: "KM-A", Kind: promo.KindPercent}}}
	cache := promo.NewCache(inner, newTestRedis(t), time.Minute)

	ctx := context.Background()
	_, err := cache.Query(ctx, "SP-001", "CUST-1", "NET30")
	require.NoError(t, err)
	_, err = cache.Query(ctx, "SP-001", "CUST-2", "NET30")
	require.NoError(t, err)
	_, err = cache.Query(ctx, "SP-001", "CUST-1", "COD")
	require.NoError(t, err)
	require.Equal(t, 3, inner.calls)
}

func TestCacheInvalidateProduct(t *testing.T) {
	inner := &countingCatalog{result: []promo.Promotion{{ID: "KM-A", Kind: promo.KindPercent}}}
	cache := promo.NewCache(inner, newTestRedis(t), time.Minute)

	ctx := context.Background()
	_, err := cache.Query(ctx, "SP-001", "CUST-1", "NET30")
	require.NoError(t, err)
	_, err = cache.Query(ctx, "SP-001", "CUST-2", "NET30")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)

	require.NoError(t, cache.InvalidateProduct(ctx, "SP-001"))

	_, err = cache.Query(ctx, "SP-001", "CUST-1", "NET30")
	require.NoError(t, err)
	_, err = cache.Query(ctx, "SP-001", "CUST-2", "NET30")
	require.NoError(t, err)
	require.Equal(t, 4, inner.calls, "invalidation must drop every customer variant")
}

func TestCacheInnerErrorPropagates(t *testing.T) {
	wantErr := errors.New("catalog down")
	inner := &countingCatalog{fail: true, failErr: wantErr}
	cache := promo.NewCache(inner, newTestRedis(t), time.Minute)

	_, err := cache.Query(context.Background(), "SP-001", "", "")
	require.ErrorIs(t, err, wantErr)
}

func TestCacheNilClientPassesThrough(t *testing.T) {
	inner := &countingCatalog{result: []promo.Promotion{{ID: "KM-A", Kind: promo.KindPercent}}}
	cache := promo.NewCache(inner, nil, time.Minute)

	ctx := context.Background()
	_, err := cache.Query(ctx, "SP-001", "", "")
	require.NoError(t, err)
	_, err = cache.Query(ctx, "SP-001", "", "")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}
