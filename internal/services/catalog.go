package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"studentevents/internal/domain"
)

type catalogService struct {
	store  domain.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewCatalogService creates a CatalogService. now decides what "today" is; nil means time.Now.
func NewCatalogService(store domain.Store, logger *slog.Logger, now func() time.Time) domain.CatalogService {
	if now == nil {
		now = time.Now
	}
	return &catalogService{store: store, logger: logger, now: now}
}

func invalid(errs []string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(errs, "; "))
}

func (s *catalogService) CreateEvent(ctx context.Context, requester *domain.User, event *domain.Event) error {
	if err := requireAdmin(requester); err != nil {
		return err
	}
	if errs := event.Validate(); len(errs) > 0 {
		return invalid(errs)
	}
	event.Title = strings.TrimSpace(event.Title)
	event.Location = strings.TrimSpace(event.Location)
	event.CreatedBy = requester.ID
	event.CreatedAt = s.now()
	event.Status = domain.StatusOpen
	if err := s.store.Events().Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("event created", "event_id", event.ID, "by", requester.ID)

	if status, err := s.RecomputeStatus(ctx, event.ID); err != nil {
		s.logger.Error("recompute status after create", "event_id", event.ID, "error", err)
	} else {
		event.Status = status
	}
	return nil
}

func (s *catalogService) UpdateEvent(ctx context.Context, requester *domain.User, event *domain.Event) error {
	if err := requireAdmin(requester); err != nil {
		return err
	}
	if errs := event.Validate(); len(errs) > 0 {
		return invalid(errs)
	}
	if err := s.store.Events().Update(ctx, event); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrUnknownEvent
		}
		return fmt.Errorf("update event: %w", err)
	}
	if status, err := s.RecomputeStatus(ctx, event.ID); err != nil {
		s.logger.Error("recompute status after update", "event_id", event.ID, "error", err)
	} else {
		event.Status = status
	}
	return nil
}

func (s *catalogService) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	return getEvent(ctx, s.store, id)
}

func getEvent(ctx context.Context, store domain.Store, id int64) (*domain.Event, error) {
	events, err := store.Events().GetBy(ctx, domain.EventByID, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if len(events) == 0 {
		return nil, domain.ErrUnknownEvent
	}
	return events[0], nil
}

func (s *catalogService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	events, err := s.store.Events().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *catalogService) ListEventsByStatus(ctx context.Context, status domain.EventStatus) ([]*domain.Event, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, string(status))
	}
	events, err := s.store.Events().GetBy(ctx, domain.EventByStatus, string(status))
	if err != nil {
		return nil, fmt.Errorf("list events by status: %w", err)
	}
	return events, nil
}

func (s *catalogService) DeleteEvent(ctx context.Context, requester *domain.User, id int64) error {
	if err := requireAdmin(requester); err != nil {
		return err
	}
	deleted, err := s.store.Events().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if !deleted {
		return domain.ErrUnknownEvent
	}
	s.logger.Info("event deleted", "event_id", id, "by", requester.ID)
	return nil
}

func (s *catalogService) CreateBus(ctx context.Context, requester *domain.User, bus *domain.Bus) error {
	if err := requireAdmin(requester); err != nil {
		return err
	}
	if errs := bus.Validate(); len(errs) > 0 {
		return invalid(errs)
	}
	if _, err := s.GetEvent(ctx, bus.EventID); err != nil {
		return err
	}
	bus.Stop = strings.TrimSpace(bus.Stop)
	if err := s.store.Buses().Create(ctx, bus); err != nil {
		return fmt.Errorf("create bus: %w", err)
	}
	s.logger.Info("bus created", "bus_id", bus.ID, "event_id", bus.EventID, "direction", bus.Direction)
	return nil
}

func (s *catalogService) ListBuses(ctx context.Context, eventID int64) ([]*domain.Bus, error) {
	buses, err := s.store.Buses().GetBy(ctx, domain.BusByEventID, eventID)
	if err != nil {
		return nil, fmt.Errorf("list buses: %w", err)
	}
	return buses, nil
}

func (s *catalogService) DeleteBus(ctx context.Context, requester *domain.User, id int64) error {
	if err := requireAdmin(requester); err != nil {
		return err
	}
	deleted, err := s.store.Buses().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete bus: %w", err)
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

// RecomputeStatus derives the event status from its date and registration count
// and persists it when it changed.
func (s *catalogService) RecomputeStatus(ctx context.Context, eventID int64) (domain.EventStatus, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return "", err
	}
	return s.recompute(ctx, event)
}

func (s *catalogService) recompute(ctx context.Context, event *domain.Event) (domain.EventStatus, error) {
	if event.Status == domain.StatusPassed {
		return event.Status, nil
	}
	count := 0
	if !isPast(event.Date, s.now()) {
		n, err := s.store.Registrations().CountByEvent(ctx, event.ID)
		if err != nil {
			return "", fmt.Errorf("count registrations: %w", err)
		}
		count = n
	}
	next := nextStatus(event, count, s.now())
	if next == event.Status {
		return next, nil
	}
	if err := s.store.Events().UpdateStatus(ctx, event.ID, next); err != nil {
		return "", fmt.Errorf("update status: %w", err)
	}
	s.logger.Info("event status changed", "event_id", event.ID, "from", event.Status, "to", next, "count", count)
	event.Status = next
	return next, nil
}

// RefreshStatuses recomputes every event that is not yet passe, so date-driven
// transitions happen without waiting for an enrollment.
func (s *catalogService) RefreshStatuses(ctx context.Context) error {
	events, err := s.store.Events().List(ctx)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	var errs []error
	for _, e := range events {
		if e.Status == domain.StatusPassed {
			continue
		}
		if _, err := s.recompute(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("event %d: %w", e.ID, err))
		}
	}
	return errors.Join(errs...)
}

// nextStatus is the status machine: passe is absorbing, then date, then capacity.
func nextStatus(event *domain.Event, count int, now time.Time) domain.EventStatus {
	switch {
	case event.Status == domain.StatusPassed:
		return domain.StatusPassed
	case isPast(event.Date, now):
		return domain.StatusPassed
	case event.CapacityMax > 0 && count >= event.CapacityMax:
		return domain.StatusFull
	default:
		return domain.StatusOpen
	}
}

// isPast reports whether date falls on a calendar day before now's. Event dates are
// civil dates (a DATE column scans as UTC midnight), so their own year, month and day
// are taken as-is and only now is read in its location. Converting date into now's
// zone would move it to the previous day west of UTC.
func isPast(date, now time.Time) bool {
	y, m, d := date.Date()
	ty, tm, td := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Before(time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC))
}
