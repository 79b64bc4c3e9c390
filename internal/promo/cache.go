package promo

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a read-through Redis cache in front of a Catalog. Entries carry an
// explicit TTL and are invalidated when the underlying promotion data is
// written. Cache failures fall through to the inner catalog, never to the
// caller.
type Cache struct {
	Inner  Catalog
	Client *redis.Client
	TTL    time.Duration
}

// NewCache wraps inner with a Redis cache. A nil client disables caching.
func NewCache(inner Catalog, client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{Inner: inner, Client: client, TTL: ttl}
}

// Query returns cached candidates when fresh, otherwise delegates to the
// inner catalog and stores the result.
func (c *Cache) Query(ctx context.Context, productCode, customerCode, paymentTerms string) ([]Promotion, error) {
	if c.Client == nil || c.TTL <= 0 {
		return c.Inner.Query(ctx, productCode, customerCode, paymentTerms)
	}
	key := candidateKey(productCode, customerCode, paymentTerms)
	if data, err := c.Client.Get(ctx, key).Bytes(); err == nil {
		var cached []Promotion
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}
	promotions, err := c.Inner.Query(ctx, productCode, customerCode, paymentTerms)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(promotions); err == nil {
		pipe := c.Client.TxPipeline()
		pipe.Set(ctx, key, data, c.TTL)
		pipe.SAdd(ctx, keySetKey(productCode), key)
		pipe.Expire(ctx, keySetKey(productCode), c.TTL)
		_, _ = pipe.Exec(ctx)
	}
	return promotions, nil
}

// InvalidateProduct drops every cached candidate list for a product. Call it
// whenever promotions touching the product are written.
func (c *Cache) InvalidateProduct(ctx context.Context, productCode string) error {
	if c.Client == nil {
		return nil
	}
	setKey := keySetKey(productCode)
	keys, err := c.Client.SMembers(ctx, setKey).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	keys = append(keys, setKey)
	return c.Client.Del(ctx, keys...).Err()
}

func candidateKey(productCode, customerCode, paymentTerms string) string {
	return "promo:candidates:" + strings.ToUpper(strings.TrimSpace(productCode)) +
		":" + strings.ToUpper(strings.TrimSpace(customerCode)) +
		":" + strings.ToUpper(strings.TrimSpace(paymentTerms))
}

func keySetKey(productCode string) string {
	return "promo:keys:" + strings.ToUpper(strings.TrimSpace(productCode))
}
