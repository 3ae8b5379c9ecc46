package adapter

import (
	"context"
	"time"
)

// CachedWindow is the cached answer to a subscription window lookup.
// Found=false is a cached negative: the owner has no window at all.
type CachedWindow struct {
	Found   bool       `json:"found"`
	StartAt *time.Time `json:"start_at,omitempty"`
	EndAt   *time.Time `json:"end_at,omitempty"`
}

// WindowCache caches per-owner subscription window answers. Getters return
// (value, ok); a miss is not an error. Set/Invalidate failures are for the
// caller to log and ignore, the database stays authoritative.
type WindowCache interface {
	GetWindow(ctx context.Context, ownerID string) (*CachedWindow, bool)
	SetWindow(ctx context.Context, ownerID string, w *CachedWindow) error
	GetActive(ctx context.Context, ownerID string) (bool, bool)
	SetActive(ctx context.Context, ownerID string, active bool) error
	GetRecurringActive(ctx context.Context, ownerID string) (bool, bool)
	SetRecurringActive(ctx context.Context, ownerID string, active bool) error
	InvalidateOwner(ctx context.Context, ownerID string) error
}
