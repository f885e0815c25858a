package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusExpired   ReservationStatus = "expired"
	ReservationStatusCompleted ReservationStatus = "completed"
)

// Reservation is one actor's temporary claim on one unit of a drop.
// Expired and completed are terminal states.
type Reservation struct {
	ID        string
	DropID    string
	UserID    string
	Status    ReservationStatus
	ExpiresAt time.Time
	CreatedAt time.Time
}
