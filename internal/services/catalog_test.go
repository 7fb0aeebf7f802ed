package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentevents/internal/domain"
)

var (
	admin       = &domain.User{ID: 5, IsAdmin: true}
	participant = &domain.User{ID: 1}
)

func newCatalogFixture() (*memStore, *catalogService) {
	store := newMemStore()
	return store, NewCatalogService(store, discardLogger(), fixedClock).(*catalogService)
}

func TestNextStatus(t *testing.T) {
	future := today.AddDate(0, 0, 3)
	tests := []struct {
		name   string
		status domain.EventStatus
		date   time.Time
		count  int
		want   domain.EventStatus
	}{
		{name: "open with room", status: domain.StatusOpen, date: future, count: 1, want: domain.StatusOpen},
		{name: "reaches capacity", status: domain.StatusOpen, date: future, count: 2, want: domain.StatusFull},
		{name: "over capacity", status: domain.StatusOpen, date: future, count: 3, want: domain.StatusFull},
		{name: "full reopens", status: domain.StatusFull, date: future, count: 1, want: domain.StatusOpen},
		{name: "date passed", status: domain.StatusOpen, date: today.AddDate(0, 0, -1), count: 0, want: domain.StatusPassed},
		{name: "full event passes", status: domain.StatusFull, date: today.AddDate(0, 0, -1), count: 2, want: domain.StatusPassed},
		{name: "passe is absorbing", status: domain.StatusPassed, date: future, count: 0, want: domain.StatusPassed},
		{name: "later today is not past", status: domain.StatusOpen, date: today.Add(-11 * time.Hour), count: 0, want: domain.StatusOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &domain.Event{Status: tt.status, Date: tt.date, CapacityMax: 2}
			assert.Equal(t, tt.want, nextStatus(event, tt.count, today))
		})
	}
}

func TestIsPast(t *testing.T) {
	montreal := time.FixedZone("UTC-5", -5*3600)
	tokyo := time.FixedZone("UTC+9", 9*3600)
	day := time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		date time.Time
		now  time.Time
		want bool
	}{
		{name: "same day", date: day, now: today, want: false},
		{name: "day before", date: day.AddDate(0, 0, -1), now: today, want: true},
		{name: "evening west of UTC", date: day, now: time.Date(2025, 10, 15, 20, 0, 0, 0, montreal), want: false},
		{name: "morning east of UTC", date: day, now: time.Date(2025, 10, 15, 7, 0, 0, 0, tokyo), want: false},
		{name: "next local day east of UTC", date: day, now: time.Date(2025, 10, 16, 1, 0, 0, 0, tokyo), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isPast(tt.date, tt.now))
		})
	}
}

func TestCatalogService_CreateEvent(t *testing.T) {
	store, svc := newCatalogFixture()
	ctx := context.Background()

	event := domain.NewEvent("  Gala  ", "Salle A", "Soiree", today.AddDate(0, 1, 0), 100, 1550, 0, time.Time{})
	require.NoError(t, svc.CreateEvent(ctx, admin, event))

	assert.NotZero(t, event.ID)
	assert.Equal(t, "Gala", event.Title)
	assert.Equal(t, admin.ID, event.CreatedBy)
	assert.Equal(t, today, event.CreatedAt)
	assert.Equal(t, domain.StatusOpen, event.Status)

	got, err := svc.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "15.50", got.Fare())
	assert.Len(t, store.events, 1)
}

func TestCatalogService_CreateEvent_PastDateBecomesPasse(t *testing.T) {
	store, svc := newCatalogFixture()

	event := domain.NewEvent("Old", "Salle A", "", today.AddDate(0, 0, -2), 10, 0, 0, time.Time{})
	require.NoError(t, svc.CreateEvent(context.Background(), admin, event))

	assert.Equal(t, domain.StatusPassed, event.Status)
	assert.Equal(t, domain.StatusPassed, store.events[event.ID].Status)
}

func TestCatalogService_CreateEvent_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		requester *domain.User
		event     *domain.Event
		wantErr   error
	}{
		{
			name:      "not admin",
			requester: participant,
			event:     domain.NewEvent("Gala", "Salle A", "", today, 10, 0, 0, today),
			wantErr:   domain.ErrForbidden,
		},
		{
			name:    "nil requester",
			event:   domain.NewEvent("Gala", "Salle A", "", today, 10, 0, 0, today),
			wantErr: domain.ErrForbidden,
		},
		{
			name:      "empty title",
			requester: admin,
			event:     domain.NewEvent(" ", "Salle A", "", today, 10, 0, 0, today),
			wantErr:   domain.ErrInvalidInput,
		},
		{
			name:      "zero capacity",
			requester: admin,
			event:     domain.NewEvent("Gala", "Salle A", "", today, 0, 0, 0, today),
			wantErr:   domain.ErrInvalidInput,
		},
		{
			name:      "negative fare",
			requester: admin,
			event:     domain.NewEvent("Gala", "Salle A", "", today, 10, -1, 0, today),
			wantErr:   domain.ErrInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, svc := newCatalogFixture()
			err := svc.CreateEvent(context.Background(), tt.requester, tt.event)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, store.events)
		})
	}
}

func TestCatalogService_UpdateEvent(t *testing.T) {
	store, svc := newCatalogFixture()
	ctx := context.Background()
	store.seedEvent(10, 1, today.AddDate(0, 0, 3), domain.StatusFull)
	store.regs[12345678] = &domain.Registration{Code: 12345678, EventID: 10, UserID: 1}

	event, err := svc.GetEvent(ctx, 10)
	require.NoError(t, err)
	event.CapacityMax = 5
	event.Title = "Renamed"
	require.NoError(t, svc.UpdateEvent(ctx, admin, event))

	assert.Equal(t, domain.StatusOpen, event.Status)
	assert.Equal(t, "Renamed", store.events[10].Title)
	assert.Equal(t, domain.StatusOpen, store.events[10].Status)

	missing := domain.NewEvent("Ghost", "Nowhere", "", today, 1, 0, 0, today)
	missing.ID = 404
	assert.ErrorIs(t, svc.UpdateEvent(ctx, admin, missing), domain.ErrUnknownEvent)
	assert.ErrorIs(t, svc.UpdateEvent(ctx, participant, event), domain.ErrForbidden)
}

func TestCatalogService_DeleteEvent_Cascades(t *testing.T) {
	store, svc := newCatalogFixture()
	ctx := context.Background()
	store.seedEvent(10, 5, today.AddDate(0, 0, 3), domain.StatusOpen)
	store.seedBus(30, 10, domain.DirectionOutbound)
	store.regs[12345678] = &domain.Registration{Code: 12345678, EventID: 10, UserID: 1}

	assert.ErrorIs(t, svc.DeleteEvent(ctx, participant, 10), domain.ErrForbidden)
	require.NoError(t, svc.DeleteEvent(ctx, admin, 10))

	assert.Empty(t, store.events)
	assert.Empty(t, store.buses)
	assert.Empty(t, store.regs)
	assert.ErrorIs(t, svc.DeleteEvent(ctx, admin, 10), domain.ErrUnknownEvent)
}

func TestCatalogService_ListEventsByStatus(t *testing.T) {
	store, svc := newCatalogFixture()
	ctx := context.Background()
	store.seedEvent(10, 5, today.AddDate(0, 0, 3), domain.StatusOpen)
	store.seedEvent(11, 5, today.AddDate(0, 0, 3), domain.StatusFull)
	store.seedEvent(12, 5, today.AddDate(0, 0, 4), domain.StatusOpen)

	open, err := svc.ListEventsByStatus(ctx, domain.StatusOpen)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, int64(10), open[0].ID)
	assert.Equal(t, int64(12), open[1].ID)

	all, err := svc.ListEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = svc.ListEventsByStatus(ctx, "ouvert")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCatalogService_GetEvent_Unknown(t *testing.T) {
	_, svc := newCatalogFixture()
	_, err := svc.GetEvent(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrUnknownEvent)
}

func TestCatalogService_Buses(t *testing.T) {
	store, svc := newCatalogFixture()
	ctx := context.Background()
	store.seedEvent(10, 5, today.AddDate(0, 0, 3), domain.StatusOpen)

	bus := domain.NewBus(10, domain.DirectionOutbound, " Gare centrale ", today.AddDate(0, 0, 3), 50)
	require.NoError(t, svc.CreateBus(ctx, admin, bus))
	assert.NotZero(t, bus.ID)
	assert.Equal(t, "Gare centrale", bus.Stop)

	buses, err := svc.ListBuses(ctx, 10)
	require.NoError(t, err)
	require.Len(t, buses, 1)
	assert.Equal(t, domain.DirectionOutbound, buses[0].Direction)

	assert.ErrorIs(t, svc.CreateBus(ctx, participant, bus), domain.ErrForbidden)
	assert.ErrorIs(t, svc.CreateBus(ctx, admin, domain.NewBus(10, "aller-retour", "Gare", today, 50)), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.CreateBus(ctx, admin, domain.NewBus(99, domain.DirectionReturn, "Gare", today, 50)), domain.ErrUnknownEvent)

	require.NoError(t, svc.DeleteBus(ctx, admin, bus.ID))
	assert.ErrorIs(t, svc.DeleteBus(ctx, admin, bus.ID), domain.ErrNotFound)
}

func TestCatalogService_RecomputeStatus_WritesOnlyOnChange(t *testing.T) {
	store, svc := newCatalogFixture()
	ctx := context.Background()
	store.seedEvent(10, 2, today.AddDate(0, 0, 3), domain.StatusOpen)
	store.statusErr = errors.New("should not be written")

	status, err := svc.RecomputeStatus(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, status)

	store.regs[11111111] = &domain.Registration{Code: 11111111, EventID: 10, UserID: 1}
	store.regs[22222222] = &domain.Registration{Code: 22222222, EventID: 10, UserID: 2}
	_, err = svc.RecomputeStatus(ctx, 10)
	assert.Error(t, err)

	store.statusErr = nil
	status, err = svc.RecomputeStatus(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFull, status)
	assert.Equal(t, domain.StatusFull, store.events[10].Status)

	_, err = svc.RecomputeStatus(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrUnknownEvent)
}

func TestCatalogService_RefreshStatuses(t *testing.T) {
	store, svc := newCatalogFixture()
	store.seedEvent(10, 5, today.AddDate(0, 0, -3), domain.StatusOpen)
	store.seedEvent(11, 5, today.AddDate(0, 0, -3), domain.StatusFull)
	store.seedEvent(12, 1, today.AddDate(0, 0, 3), domain.StatusOpen)
	store.seedEvent(13, 5, today.AddDate(0, 0, 3), domain.StatusPassed)
	store.regs[12345678] = &domain.Registration{Code: 12345678, EventID: 12, UserID: 1}

	require.NoError(t, svc.RefreshStatuses(context.Background()))

	assert.Equal(t, domain.StatusPassed, store.events[10].Status)
	assert.Equal(t, domain.StatusPassed, store.events[11].Status)
	assert.Equal(t, domain.StatusFull, store.events[12].Status)
	assert.Equal(t, domain.StatusPassed, store.events[13].Status)
}

func TestCatalogService_RefreshStatuses_JoinsErrors(t *testing.T) {
	store, svc := newCatalogFixture()
	store.seedEvent(10, 5, today.AddDate(0, 0, -3), domain.StatusOpen)
	store.seedEvent(11, 5, today.AddDate(0, 0, -3), domain.StatusOpen)
	store.statusErr = domain.ErrStoreUnavailable

	err := svc.RefreshStatuses(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "event 10")
	assert.Contains(t, err.Error(), "event 11")
}
