package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// JSONCache stores JSON-encoded values under plain string keys.
type JSONCache struct {
	RDB *redis.Client
}

// Get decodes the value at key into dst. A missing key is (false, nil).
func (c *JSONCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.RDB.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *JSONCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.RDB.Set(ctx, key, b, ttl).Err()
}

func (c *JSONCache) Del(ctx context.Context, keys ...string) error {
	return c.RDB.Del(ctx, keys...).Err()
}

// OrderIndex remembers which order an external_id produced, so a retried
// checkout can skip the database transaction.
type OrderIndex struct {
	RDB *redis.Client
}

func (i *OrderIndex) Lookup(ctx context.Context, buyerID, externalID string) (string, bool, error) {
	id, err := i.RDB.Get(ctx, IdemOrderKey(buyerID, externalID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (i *OrderIndex) Remember(ctx context.Context, buyerID, externalID, orderID string) error {
	return i.RDB.Set(ctx, IdemOrderKey(buyerID, externalID), orderID, TTLIdempotency).Err()
}

// Dedup guards event handlers against redelivery. Claim succeeds once per
// event id; Release gives the id back when handling failed.
type Dedup struct {
	RDB     *redis.Client
	Service string
}

func (d *Dedup) Claim(ctx context.Context, eventID string) (bool, error) {
	return MarkOnce(ctx, d.RDB, DedupKey(d.Service, eventID), TTLDedup)
}

func (d *Dedup) Release(ctx context.Context, eventID string) error {
	return d.RDB.Del(ctx, DedupKey(d.Service, eventID)).Err()
}
