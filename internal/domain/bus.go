package domain

import (
	"context"
	"strings"
	"time"
)

// Direction tells whether a bus goes to the event or brings people back.
type Direction string

const (
	DirectionOutbound Direction = "aller"
	DirectionReturn   Direction = "retour"
)

// Valid reports whether d is one of the two directions.
func (d Direction) Valid() bool {
	return d == DirectionOutbound || d == DirectionReturn
}

// Bus is a transport option attached to one event.
type Bus struct {
	ID            int64     `json:"id"`
	EventID       int64     `json:"id_event"`
	Direction     Direction `json:"sens"`
	Stop          string    `json:"description"`
	DepartureTime time.Time `json:"heure_depart"`
	CapacityMax   int       `json:"capacite_max"`
}

// NewBus returns a new Bus. ID is set by the repository on create.
func NewBus(eventID int64, direction Direction, stop string, departure time.Time, capacityMax int) *Bus {
	return &Bus{
		EventID:       eventID,
		Direction:     direction,
		Stop:          stop,
		DepartureTime: departure,
		CapacityMax:   capacityMax,
	}
}

// Validate returns the list of bound violations; empty means valid.
func (b *Bus) Validate() []string {
	var errs []string
	if !b.Direction.Valid() {
		errs = append(errs, "direction must be aller or retour")
	}
	if strings.TrimSpace(b.Stop) == "" {
		errs = append(errs, "stop description is required")
	}
	if b.DepartureTime.IsZero() {
		errs = append(errs, "departure time is required")
	}
	if b.CapacityMax <= 0 {
		errs = append(errs, "capacity must be positive")
	}
	return errs
}

// BusField names a column buses may be looked up by.
type BusField string

const (
	BusByID      BusField = "id"
	BusByEventID BusField = "event_id"
)

// BusRepository defines the interface for bus storage.
type BusRepository interface {
	GetBy(ctx context.Context, field BusField, value any) ([]*Bus, error)
	Create(ctx context.Context, bus *Bus) error
	Delete(ctx context.Context, id int64) (bool, error)
}
