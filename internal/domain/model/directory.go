package model

import "time"

// Owner is the minimal projection of a user that access and billing need.
// Full account management lives elsewhere; we only resolve foreign keys.
type Owner struct {
	ID        string // UUID
	Username  string // email in practice
	FirstName string
	LastName  string
	Phone     string
	CreatedAt time.Time
}

type ProductKind string

const (
	ProductKindSubscription ProductKind = "subscription"
	ProductKindCourse       ProductKind = "course"
)

// Product is a sellable item; LifetimeDays drives recurring billing periods
// and promo access windows.
type Product struct {
	ID           string // UUID
	ShopID       string // id in the external shop
	Name         string
	Kind         ProductKind
	LifetimeDays int
	CreatedAt    time.Time
}
