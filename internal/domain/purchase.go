package domain

import "time"

// Purchase is the immutable record of a completed sale. AmountCents is the
// drop's price copied at purchase time, never recomputed later.
type Purchase struct {
	ID            string
	DropID        string
	UserID        string
	ReservationID string
	AmountCents   int64
	CreatedAt     time.Time
}

// RecentPurchaser is a display projection of a purchase joined to its actor,
// used for the purchase-completed notification and the drops listing.
type RecentPurchaser struct {
	Username    string
	PurchasedAt time.Time
}
