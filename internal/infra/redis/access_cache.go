package redis

import (
	"context"
	"encoding/json"
	"time"

	"lms-access-billing/internal/domain/ports/adapter"
)

// AccessCache keeps per-owner answers to the subscription-window queries.
// Every key is scoped by owner id so a single access event only evicts
// that owner's entries.
type AccessCache struct {
	client RedisClient
	ttl    time.Duration
}

var _ adapter.WindowCache = (*AccessCache)(nil)

func NewAccessCache(client RedisClient, ttl time.Duration) *AccessCache {
	return &AccessCache{
		client: client,
		ttl:    ttl,
	}
}

func boundariesKey(ownerID string) string { return "subscription_boundaries_" + ownerID }
func checkerKey(ownerID string) string    { return "subscription_checker_" + ownerID }
func recurringKey(ownerID string) string  { return "recurring_checker_" + ownerID }

func (c *AccessCache) GetWindow(ctx context.Context, ownerID string) (*adapter.CachedWindow, bool) {
	data, err := c.client.Get(ctx, boundariesKey(ownerID))
	if err != nil {
		return nil, false
	}
	var w adapter.CachedWindow
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return nil, false
	}
	return &w, true
}

func (c *AccessCache) SetWindow(ctx context.Context, ownerID string, w *adapter.CachedWindow) error {
	data, err := json.Marshal(w)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, boundariesKey(ownerID), data, c.ttl)
}

func (c *AccessCache) GetActive(ctx context.Context, ownerID string) (bool, bool) {
	data, err := c.client.Get(ctx, checkerKey(ownerID))
	if err != nil {
		return false, false
	}
	return data == "1", true
}

func (c *AccessCache) SetActive(ctx context.Context, ownerID string, active bool) error {
	return c.client.Set(ctx, checkerKey(ownerID), boolValue(active), c.ttl)
}

func (c *AccessCache) GetRecurringActive(ctx context.Context, ownerID string) (bool, bool) {
	data, err := c.client.Get(ctx, recurringKey(ownerID))
	if err != nil {
		return false, false
	}
	return data == "1", true
}

func (c *AccessCache) SetRecurringActive(ctx context.Context, ownerID string, active bool) error {
	return c.client.Set(ctx, recurringKey(ownerID), boolValue(active), c.ttl)
}

// InvalidateOwner drops every cached answer for one owner. Callers run it
// after the surrounding transaction commits.
func (c *AccessCache) InvalidateOwner(ctx context.Context, ownerID string) error {
	return c.client.Del(ctx, boundariesKey(ownerID), checkerKey(ownerID), recurringKey(ownerID))
}

func boolValue(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
