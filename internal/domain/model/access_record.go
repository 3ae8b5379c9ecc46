package model

import "time"

// AccessState is the explicit reconciliation state of an AccessRecord.
// A placeholder is created when a revoke event arrives before its matching
// grant; it carries no owner/product until the grant fills it in.
type AccessState string

const (
	AccessStatePlaceholder AccessState = "placeholder"
	AccessStateResolved    AccessState = "resolved"
)

// AccessRecord is the durable entitlement row, keyed by the shop order id.
// GrantedAt/RevokedAt are event timestamps from the shop, not processing
// timestamps; they drive the out-of-turn conflict resolution.
type AccessRecord struct {
	ID        string // UUID
	OrderID   string // externally supplied idempotency key (may be a synthetic promo key)
	OwnerID   *string
	ProductID *string
	StartAt   time.Time
	EndAt     *time.Time // nil = unbounded access
	GrantedAt *time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *AccessRecord) State() AccessState {
	if a.OwnerID == nil && a.ProductID == nil {
		return AccessStatePlaceholder
	}
	return AccessStateResolved
}

// ShouldApply is the out-of-turn guard shared by the grant and revoke paths:
// an event wins only if it is strictly newer than both recorded event times.
// Equal timestamps lose, so of two distinct events with the same event time
// the first writer wins.
func (a *AccessRecord) ShouldApply(eventTime time.Time) bool {
	grantedInPast := a.GrantedAt == nil || a.GrantedAt.Before(eventTime)
	revokedInPast := a.RevokedAt == nil || a.RevokedAt.Before(eventTime)
	return grantedInPast && revokedInPast
}

// ActiveAt reports whether the record grants access at the given instant.
func (a *AccessRecord) ActiveAt(at time.Time) bool {
	if a.RevokedAt != nil {
		return false
	}
	if a.StartAt.After(at) {
		return false
	}
	if a.EndAt != nil && a.EndAt.Before(at) {
		return false
	}
	return true
}
