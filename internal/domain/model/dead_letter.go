package model

import "time"

// DeadLetter persists an inbound shop event we failed to process, so the
// upstream system can retry or a human can replay it.
type DeadLetter struct {
	ID        string // ULID
	EventType string // order-checkedout | order-refunded | promo-access
	RawData   []byte // raw request payload as received
	Details   string // error + stack
	CreatedAt time.Time
}
