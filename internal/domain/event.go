package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// EventStatus summarizes whether an event still accepts registrations.
type EventStatus string

const (
	StatusOpen   EventStatus = "en_cours"
	StatusFull   EventStatus = "complet"
	StatusPassed EventStatus = "passe"
)

// Valid reports whether s is one of the known statuses.
func (s EventStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusFull, StatusPassed:
		return true
	}
	return false
}

const (
	maxTitleLen    = 100
	maxLocationLen = 100
)

// Event is an association event participants can register for.
type Event struct {
	ID          int64       `json:"id"`
	Title       string      `json:"titre"`
	Location    string      `json:"adresse"`
	Description string      `json:"description"`
	Date        time.Time   `json:"date_event"`
	CapacityMax int         `json:"capacite_max"`
	CreatedBy   int64       `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
	FareCents   int64       `json:"tarif_centimes"`
	Status      EventStatus `json:"statut"`
}

// NewEvent returns an open Event. ID is set by the repository on create.
func NewEvent(title, location, description string, date time.Time, capacityMax int, fareCents int64, createdBy int64, createdAt time.Time) *Event {
	return &Event{
		Title:       title,
		Location:    location,
		Description: description,
		Date:        date,
		CapacityMax: capacityMax,
		FareCents:   fareCents,
		CreatedBy:   createdBy,
		CreatedAt:   createdAt,
		Status:      StatusOpen,
	}
}

// Validate returns the list of bound violations; empty means valid.
func (e *Event) Validate() []string {
	var errs []string
	if t := strings.TrimSpace(e.Title); t == "" || len([]rune(t)) > maxTitleLen {
		errs = append(errs, fmt.Sprintf("title must be 1 to %d characters", maxTitleLen))
	}
	if l := strings.TrimSpace(e.Location); l == "" || len([]rune(l)) > maxLocationLen {
		errs = append(errs, fmt.Sprintf("location must be 1 to %d characters", maxLocationLen))
	}
	if e.Date.IsZero() {
		errs = append(errs, "date is required")
	}
	if e.CapacityMax <= 0 {
		errs = append(errs, "capacity must be positive")
	}
	if e.FareCents < 0 {
		errs = append(errs, "fare must not be negative")
	}
	return errs
}

// Fare formats the fare with two decimals, e.g. "12.50".
func (e *Event) Fare() string {
	return fmt.Sprintf("%d.%02d", e.FareCents/100, e.FareCents%100)
}

// EventField names a column events may be looked up by.
type EventField string

const (
	EventByID        EventField = "id"
	EventByTitle     EventField = "title"
	EventByStatus    EventField = "status"
	EventByCreatedBy EventField = "created_by"
)

// EventRepository defines the interface for event storage.
type EventRepository interface {
	GetBy(ctx context.Context, field EventField, value any) ([]*Event, error)
	List(ctx context.Context) ([]*Event, error)
	// LockByID reads the event and holds a row lock until the enclosing transaction ends.
	LockByID(ctx context.Context, id int64) (*Event, error)
	Create(ctx context.Context, event *Event) error
	Update(ctx context.Context, event *Event) error
	UpdateStatus(ctx context.Context, id int64, status EventStatus) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// CatalogService manages events, their buses and their status.
type CatalogService interface {
	CreateEvent(ctx context.Context, requester *User, event *Event) error
	UpdateEvent(ctx context.Context, requester *User, event *Event) error
	GetEvent(ctx context.Context, id int64) (*Event, error)
	ListEvents(ctx context.Context) ([]*Event, error)
	ListEventsByStatus(ctx context.Context, status EventStatus) ([]*Event, error)
	DeleteEvent(ctx context.Context, requester *User, id int64) error

	CreateBus(ctx context.Context, requester *User, bus *Bus) error
	ListBuses(ctx context.Context, eventID int64) ([]*Bus, error)
	DeleteBus(ctx context.Context, requester *User, id int64) error

	RecomputeStatus(ctx context.Context, eventID int64) (EventStatus, error)
	RefreshStatuses(ctx context.Context) error
}
