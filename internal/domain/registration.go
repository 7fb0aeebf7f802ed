package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// PaymentMode is how a participant pays for the event.
type PaymentMode string

const (
	PaymentCash   PaymentMode = "espece"
	PaymentOnline PaymentMode = "en ligne"
	PaymentNone   PaymentMode = ""
)

// Valid reports whether m is one of the accepted payment modes.
func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentCash, PaymentOnline, PaymentNone:
		return true
	}
	return false
}

// Reservation codes are 8-digit integers.
const (
	MinReservationCode int64 = 10_000_000
	MaxReservationCode int64 = 99_999_999
)

// ValidReservationCode reports whether code has exactly eight digits.
func ValidReservationCode(code int64) bool {
	return code >= MinReservationCode && code <= MaxReservationCode
}

// Registration is one user's enrollment in one event. It is never updated in place.
type Registration struct {
	Code          int64       `json:"code_reservation"`
	EventID       int64       `json:"id_event"`
	UserID        int64       `json:"created_by"`
	Drink         bool        `json:"boisson"`
	PaymentMode   PaymentMode `json:"mode_paiement"`
	OutboundBusID *int64      `json:"id_bus_aller"`
	ReturnBusID   *int64      `json:"id_bus_retour"`
	EventName     string      `json:"nom_event"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Record returns the registration as a flat map keyed by column name.
func (r *Registration) Record() map[string]any {
	rec := map[string]any{
		"code_reservation": r.Code,
		"id_event":         r.EventID,
		"created_by":       r.UserID,
		"boisson":          r.Drink,
		"mode_paiement":    string(r.PaymentMode),
		"id_bus_aller":     nil,
		"id_bus_retour":    nil,
		"nom_event":        r.EventName,
		"created_at":       r.CreatedAt,
	}
	if r.OutboundBusID != nil {
		rec["id_bus_aller"] = *r.OutboundBusID
	}
	if r.ReturnBusID != nil {
		rec["id_bus_retour"] = *r.ReturnBusID
	}
	return rec
}

// RegistrationFromRecord parses the map produced by Record (or decoded from JSON).
// Integer fields must hold integral numbers and the payment mode must be valid.
func RegistrationFromRecord(rec map[string]any) (*Registration, error) {
	r := &Registration{}
	var err error
	if r.Code, err = intField(rec, "code_reservation"); err != nil {
		return nil, err
	}
	if !ValidReservationCode(r.Code) {
		return nil, fmt.Errorf("%w: code_reservation must have 8 digits", ErrInvalidInput)
	}
	if r.EventID, err = intField(rec, "id_event"); err != nil {
		return nil, err
	}
	if r.UserID, err = intField(rec, "created_by"); err != nil {
		return nil, err
	}
	if r.OutboundBusID, err = optionalIntField(rec, "id_bus_aller"); err != nil {
		return nil, err
	}
	if r.ReturnBusID, err = optionalIntField(rec, "id_bus_retour"); err != nil {
		return nil, err
	}

	switch v := rec["boisson"].(type) {
	case bool:
		r.Drink = v
	case nil:
	default:
		return nil, fmt.Errorf("%w: boisson must be a boolean", ErrInvalidInput)
	}

	switch v := rec["mode_paiement"].(type) {
	case string:
		r.PaymentMode = PaymentMode(v)
	case PaymentMode:
		r.PaymentMode = v
	case nil:
	default:
		return nil, ErrInvalidPaymentMode
	}
	if !r.PaymentMode.Valid() {
		return nil, ErrInvalidPaymentMode
	}

	if name, ok := rec["nom_event"].(string); ok {
		r.EventName = name
	}

	switch v := rec["created_at"].(type) {
	case time.Time:
		r.CreatedAt = v
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("%w: created_at: %v", ErrInvalidInput, err)
		}
		r.CreatedAt = t
	case nil:
	default:
		return nil, fmt.Errorf("%w: created_at must be a timestamp", ErrInvalidInput)
	}
	return r, nil
}

func intField(rec map[string]any, key string) (int64, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidInput, key)
	}
	n, ok := toInt64(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidInput, key)
	}
	return n, nil
}

func optionalIntField(rec map[string]any, key string) (*int64, error) {
	v, ok := rec[key]
	if !ok || v == nil {
		return nil, nil
	}
	n, ok := toInt64(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an integer", ErrInvalidInput, key)
	}
	return &n, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, so the upper bound is exclusive.
		if n != math.Trunc(n) || n >= 1<<63 || n < -(1<<63) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

// RegistrationField names a column registrations may be looked up by.
type RegistrationField string

const (
	RegistrationByCode    RegistrationField = "code_reservation"
	RegistrationByUserID  RegistrationField = "created_by"
	RegistrationByEventID RegistrationField = "id_event"
)

// RegistrationRepository defines storage operations for registrations.
type RegistrationRepository interface {
	GetBy(ctx context.Context, field RegistrationField, value any) ([]*Registration, error)
	Create(ctx context.Context, reg *Registration) error
	Delete(ctx context.Context, code int64) (bool, error)
	CountByEvent(ctx context.Context, eventID int64) (int, error)
	ExistsByUserEvent(ctx context.Context, userID, eventID int64) (bool, error)
	ExistsByCode(ctx context.Context, code int64) (bool, error)
}

// EnrollInput carries the choices a participant makes when enrolling.
type EnrollInput struct {
	UserID        int64
	EventID       int64
	Drink         bool
	PaymentMode   PaymentMode
	OutboundBusID *int64
	ReturnBusID   *int64
}

// RegistrationService owns the (user, event) registration relation and reservation codes.
type RegistrationService interface {
	Enroll(ctx context.Context, in EnrollInput) (*Registration, error)
	Cancel(ctx context.Context, code, requesterID int64) error
	// FindByCode returns nil, nil when no registration has this code.
	FindByCode(ctx context.Context, code int64) (*Registration, error)
	ListForEvent(ctx context.Context, eventID int64) ([]*Registration, error)
	ListForUser(ctx context.Context, userID int64) ([]*Registration, error)
	CountForEvent(ctx context.Context, eventID int64) (int, error)
	IsEnrolled(ctx context.Context, userID, eventID int64) (bool, error)
}
