package inventory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cached layers a short-TTL Redis cache over snapshot reads. Reservations and
// releases pass straight through and drop the cached entry, so the next read
// sees the mutated figure.
type Cached struct {
	Inner  Service
	Client *redis.Client
	TTL    time.Duration
}

// Get serves snapshot reads through the cache.
func (c *Cached) Get(ctx context.Context, productCode, warehouseCode, vatMode string) (Snapshot, error) {
	if c.Client == nil || c.TTL <= 0 {
		return c.Inner.Get(ctx, productCode, warehouseCode, vatMode)
	}
	key := snapshotKey(productCode, warehouseCode, vatMode)
	if data, err := c.Client.Get(ctx, key).Bytes(); err == nil {
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err == nil {
			return snap, nil
		}
	}
	snap, err := c.Inner.Get(ctx, productCode, warehouseCode, vatMode)
	if err != nil {
		return Snapshot{}, err
	}
	if data, err := json.Marshal(snap); err == nil {
		setKey := snapshotSetKey(productCode, warehouseCode)
		pipe := c.Client.TxPipeline()
		pipe.Set(ctx, key, data, c.TTL)
		pipe.SAdd(ctx, setKey, key)
		pipe.Expire(ctx, setKey, c.TTL)
		_, _ = pipe.Exec(ctx)
	}
	return snap, nil
}

// Reserve delegates and invalidates the cached snapshot for the product.
func (c *Cached) Reserve(ctx context.Context, productCode, warehouseCode string, baseQty int64) error {
	if err := c.Inner.Reserve(ctx, productCode, warehouseCode, baseQty); err != nil {
		return err
	}
	c.invalidate(ctx, productCode, warehouseCode)
	return nil
}

// Release delegates and invalidates the cached snapshot for the product.
func (c *Cached) Release(ctx context.Context, productCode, warehouseCode string, baseQty int64) error {
	if err := c.Inner.Release(ctx, productCode, warehouseCode, baseQty); err != nil {
		return err
	}
	c.invalidate(ctx, productCode, warehouseCode)
	return nil
}

// invalidate drops every cached snapshot for the product and warehouse. VAT
// modes are tracked in a key set written alongside each entry, so invalidation
// never has to scan the keyspace.
func (c *Cached) invalidate(ctx context.Context, productCode, warehouseCode string) {
	if c.Client == nil {
		return
	}
	setKey := snapshotSetKey(productCode, warehouseCode)
	keys, err := c.Client.SMembers(ctx, setKey).Result()
	if err != nil && err != redis.Nil {
		return
	}
	keys = append(keys, setKey)
	_ = c.Client.Del(ctx, keys...).Err()
}

func snapshotKey(productCode, warehouseCode, vatMode string) string {
	return "inventory:snapshot:" + normalize(productCode) + ":" + normalize(warehouseCode) + ":" + normalize(vatMode)
}

func snapshotSetKey(productCode, warehouseCode string) string {
	return "inventory:keys:" + normalize(productCode) + ":" + normalize(warehouseCode)
}
