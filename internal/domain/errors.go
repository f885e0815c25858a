package domain

import "errors"

var (
	ErrInvalidUsername     = errors.New("username must be 3-50 alphanumeric characters")
	ErrInvalidID           = errors.New("invalid id")
	ErrInvalidPrice        = errors.New("price must be non-negative with at most 2 decimal places")
	ErrInvalidStock        = errors.New("total stock must be non-negative")
	ErrDropNameRequired    = errors.New("drop name required")
	ErrDropNotFound        = errors.New("drop not found")
	ErrDropNotActive       = errors.New("this drop is not currently active")
	ErrOutOfStock          = errors.New("this item is sold out")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrReservationExpired  = errors.New("your reservation has expired")
	ErrUnauthorized        = errors.New("this reservation belongs to another user")
	ErrConcurrentUpdate    = errors.New("another user just took this item, please try again")
)
