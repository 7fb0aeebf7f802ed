package domain

import "errors"

// Sentinel errors shared by services and repositories.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidField     = errors.New("invalid field")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Registration errors, in the order Enroll checks them.
var (
	ErrUnknownUser           = errors.New("unknown user")
	ErrUnknownEvent          = errors.New("unknown event")
	ErrEventClosed           = errors.New("event is closed")
	ErrEventFull             = errors.New("event is full")
	ErrDuplicateRegistration = errors.New("already registered for this event")
	ErrInvalidPaymentMode    = errors.New("invalid payment mode")
	ErrInvalidBus            = errors.New("bus does not belong to this event")

	ErrUnknownReservation   = errors.New("unknown reservation code")
	ErrReservationCodeTaken = errors.New("reservation code already in use")
	ErrCodeSpaceExhausted   = errors.New("could not allocate a reservation code")
)
