package adapter

import "context"

// NotificationDispatcher pushes fire-and-forget events to the CRM side
// channel. Implementations must never fail the calling transaction; callers
// dispatch only after commit.
type NotificationDispatcher interface {
	NotifyAccessGranted(ctx context.Context, ownerID, orderID string)
	NotifyChargeAttempt(ctx context.Context, ownerID, attemptID string)
}
