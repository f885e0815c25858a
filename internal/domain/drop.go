package domain

import "time"

// Drop represents a time-boxed batch of limited inventory. TotalStock is
// immutable after creation; availability is always derived from counts.
type Drop struct {
	ID         string
	Name       string
	PriceCents int64
	TotalStock int
	StartsAt   time.Time
	EndsAt     *time.Time
	CreatedAt  time.Time
}

// ActiveAt reports whether the drop can take reservations at the given
// instant: the sale window has opened and, when an end is set, not closed.
func (d Drop) ActiveAt(now time.Time) bool {
	if now.Before(d.StartsAt) {
		return false
	}
	if d.EndsAt != nil && !now.Before(*d.EndsAt) {
		return false
	}
	return true
}
