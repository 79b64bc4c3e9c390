// Package district resolves per-customer delivery commitments. A district
// lead time is a working-day promise tied to the customer's geographic
// district, independent of stock status.
package district

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Source looks up the district commitment in working days. Zero means no
// commitment exists for the key.
type Source interface {
	Leadtime(ctx context.Context, districtKey string) (int, error)
}

// PGSource reads district lead times from Postgres.
type PGSource struct {
	Pool *pgxpool.Pool
}

// Leadtime returns the committed working days for the district, or zero when
// the district is unknown.
func (s *PGSource) Leadtime(ctx context.Context, districtKey string) (int, error) {
	key := strings.ToUpper(strings.TrimSpace(districtKey))
	if key == "" {
		return 0, nil
	}
	const q = `SELECT working_days FROM district_leadtimes WHERE district_key = $1`
	var days int
	if err := s.Pool.QueryRow(ctx, q, key).Scan(&days); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("district: leadtime lookup: %w", err)
	}
	if days < 0 {
		days = 0
	}
	return days, nil
}

// Cached layers a Redis cache over a Source. District commitments change
// rarely, so a generous TTL is fine.
type Cached struct {
	Inner  Source
	Client *redis.Client
	TTL    time.Duration
}

// Leadtime serves lookups through the cache, falling back to the inner source.
func (c *Cached) Leadtime(ctx context.Context, districtKey string) (int, error) {
	key := strings.ToUpper(strings.TrimSpace(districtKey))
	if key == "" {
		return 0, nil
	}
	if c.Client == nil || c.TTL <= 0 {
		return c.Inner.Leadtime(ctx, key)
	}
	cacheKey := "district:leadtime:" + key
	if raw, err := c.Client.Get(ctx, cacheKey).Result(); err == nil {
		if days, err := strconv.Atoi(raw); err == nil {
			return days, nil
		}
	}
	days, err := c.Inner.Leadtime(ctx, key)
	if err != nil {
		return 0, err
	}
	_ = c.Client.Set(ctx, cacheKey, strconv.Itoa(days), c.TTL).Err()
	return days, nil
}
