package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"time"

	"studentevents/internal/domain"
)

var today = time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return today }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory domain.Store. WithinTx snapshots the data and
// restores it when fn fails, mirroring a rollback.
type memStore struct {
	users  map[int64]*domain.User
	events map[int64]*domain.Event
	buses  map[int64]*domain.Bus
	regs   map[int64]*domain.Registration
	nextID int64

	countErr     error
	statusErr    error
	createRegErr error
	txCount      int
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[int64]*domain.User),
		events: make(map[int64]*domain.Event),
		buses:  make(map[int64]*domain.Bus),
		regs:   make(map[int64]*domain.Registration),
		nextID: 1000,
	}
}

func (m *memStore) Users() domain.UserRepository                 { return memUsers{m} }
func (m *memStore) Events() domain.EventRepository               { return memEvents{m} }
func (m *memStore) Buses() domain.BusRepository                  { return memBuses{m} }
func (m *memStore) Registrations() domain.RegistrationRepository { return memRegs{m} }

func (m *memStore) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	m.txCount++
	users, events, buses, regs := cloneMap(m.users), cloneMap(m.events), cloneMap(m.buses), cloneMap(m.regs)
	if err := fn(m); err != nil {
		m.users, m.events, m.buses, m.regs = users, events, buses, regs
		return err
	}
	return nil
}

func cloneMap[T any](src map[int64]*T) map[int64]*T {
	dst := make(map[int64]*T, len(src))
	for k, v := range src {
		cp := *v
		dst[k] = &cp
	}
	return dst
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) seedUser(id int64, email string, admin bool) *domain.User {
	u := &domain.User{ID: id, Pseudo: "user" + email, FirstName: "First", LastName: "Last", Email: email, IsAdmin: admin, CreatedAt: today}
	m.users[id] = u
	return u
}

func (m *memStore) seedEvent(id int64, capacity int, date time.Time, status domain.EventStatus) *domain.Event {
	e := &domain.Event{ID: id, Title: "Event", Location: "Campus", Date: date, CapacityMax: capacity, CreatedBy: 1, CreatedAt: today, Status: status}
	m.events[id] = e
	return e
}

func (m *memStore) seedBus(id, eventID int64, direction domain.Direction) *domain.Bus {
	b := &domain.Bus{ID: id, EventID: eventID, Direction: direction, Stop: "Gare", DepartureTime: today, CapacityMax: 50}
	m.buses[id] = b
	return b
}

func (m *memStore) countFor(eventID int64) int {
	n := 0
	for _, r := range m.regs {
		if r.EventID == eventID {
			n++
		}
	}
	return n
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

func sortedByID[T any](items map[int64]*T, keep func(*T) bool) []*T {
	keys := make([]int64, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]*T, 0)
	for _, k := range keys {
		if keep(items[k]) {
			cp := *items[k]
			out = append(out, &cp)
		}
	}
	return out
}

type memUsers struct{ m *memStore }

func (r memUsers) GetBy(ctx context.Context, field domain.UserField, value any) ([]*domain.User, error) {
	var keep func(*domain.User) bool
	switch field {
	case domain.UserByID:
		id, _ := asInt64(value)
		keep = func(u *domain.User) bool { return u.ID == id }
	case domain.UserByEmail:
		keep = func(u *domain.User) bool { return u.Email == value }
	case domain.UserByPseudo:
		keep = func(u *domain.User) bool { return u.Pseudo == value }
	default:
		return nil, domain.ErrInvalidField
	}
	return sortedByID(r.m.users, keep), nil
}

func (r memUsers) Create(ctx context.Context, u *domain.User) error {
	for _, existing := range r.m.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	u.ID = r.m.id()
	cp := *u
	r.m.users[u.ID] = &cp
	return nil
}

func (r memUsers) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := r.m.users[id]; !ok {
		return false, nil
	}
	delete(r.m.users, id)
	for code, reg := range r.m.regs {
		if reg.UserID == id {
			delete(r.m.regs, code)
		}
	}
	return true, nil
}

type memEvents struct{ m *memStore }

func (r memEvents) GetBy(ctx context.Context, field domain.EventField, value any) ([]*domain.Event, error) {
	var keep func(*domain.Event) bool
	switch field {
	case domain.EventByID:
		id, _ := asInt64(value)
		keep = func(e *domain.Event) bool { return e.ID == id }
	case domain.EventByTitle:
		keep = func(e *domain.Event) bool { return e.Title == value }
	case domain.EventByStatus:
		keep = func(e *domain.Event) bool { return string(e.Status) == value }
	case domain.EventByCreatedBy:
		id, _ := asInt64(value)
		keep = func(e *domain.Event) bool { return e.CreatedBy == id }
	default:
		return nil, domain.ErrInvalidField
	}
	return sortedByID(r.m.events, keep), nil
}

func (r memEvents) List(ctx context.Context) ([]*domain.Event, error) {
	return sortedByID(r.m.events, func(*domain.Event) bool { return true }), nil
}

func (r memEvents) LockByID(ctx context.Context, id int64) (*domain.Event, error) {
	e, ok := r.m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r memEvents) Create(ctx context.Context, e *domain.Event) error {
	e.ID = r.m.id()
	cp := *e
	r.m.events[e.ID] = &cp
	return nil
}

func (r memEvents) Update(ctx context.Context, e *domain.Event) error {
	existing, ok := r.m.events[e.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cp := *e
	cp.Status = existing.Status
	cp.CreatedBy = existing.CreatedBy
	cp.CreatedAt = existing.CreatedAt
	r.m.events[e.ID] = &cp
	return nil
}

func (r memEvents) UpdateStatus(ctx context.Context, id int64, status domain.EventStatus) error {
	if r.m.statusErr != nil {
		return r.m.statusErr
	}
	e, ok := r.m.events[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = status
	return nil
}

func (r memEvents) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := r.m.events[id]; !ok {
		return false, nil
	}
	delete(r.m.events, id)
	for bid, b := range r.m.buses {
		if b.EventID == id {
			delete(r.m.buses, bid)
		}
	}
	for code, reg := range r.m.regs {
		if reg.EventID == id {
			delete(r.m.regs, code)
		}
	}
	return true, nil
}

type memBuses struct{ m *memStore }

func (r memBuses) GetBy(ctx context.Context, field domain.BusField, value any) ([]*domain.Bus, error) {
	id, _ := asInt64(value)
	switch field {
	case domain.BusByID:
		return sortedByID(r.m.buses, func(b *domain.Bus) bool { return b.ID == id }), nil
	case domain.BusByEventID:
		return sortedByID(r.m.buses, func(b *domain.Bus) bool { return b.EventID == id }), nil
	}
	return nil, domain.ErrInvalidField
}

func (r memBuses) Create(ctx context.Context, b *domain.Bus) error {
	if _, ok := r.m.events[b.EventID]; !ok {
		return domain.ErrUnknownEvent
	}
	b.ID = r.m.id()
	cp := *b
	r.m.buses[b.ID] = &cp
	return nil
}

func (r memBuses) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := r.m.buses[id]; !ok {
		return false, nil
	}
	delete(r.m.buses, id)
	return true, nil
}

type memRegs struct{ m *memStore }

func (r memRegs) GetBy(ctx context.Context, field domain.RegistrationField, value any) ([]*domain.Registration, error) {
	id, _ := asInt64(value)
	var keep func(*domain.Registration) bool
	switch field {
	case domain.RegistrationByCode:
		keep = func(reg *domain.Registration) bool { return reg.Code == id }
	case domain.RegistrationByUserID:
		keep = func(reg *domain.Registration) bool { return reg.UserID == id }
	case domain.RegistrationByEventID:
		keep = func(reg *domain.Registration) bool { return reg.EventID == id }
	default:
		return nil, domain.ErrInvalidField
	}
	return sortedByID(r.m.regs, keep), nil
}

func (r memRegs) Create(ctx context.Context, reg *domain.Registration) error {
	if r.m.createRegErr != nil {
		return r.m.createRegErr
	}
	if _, ok := r.m.regs[reg.Code]; ok {
		return domain.ErrReservationCodeTaken
	}
	for _, existing := range r.m.regs {
		if existing.EventID == reg.EventID && existing.UserID == reg.UserID {
			return domain.ErrDuplicateRegistration
		}
	}
	cp := *reg
	r.m.regs[reg.Code] = &cp
	return nil
}

func (r memRegs) Delete(ctx context.Context, code int64) (bool, error) {
	if _, ok := r.m.regs[code]; !ok {
		return false, nil
	}
	delete(r.m.regs, code)
	return true, nil
}

func (r memRegs) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	if r.m.countErr != nil {
		return 0, r.m.countErr
	}
	return r.m.countFor(eventID), nil
}

func (r memRegs) ExistsByUserEvent(ctx context.Context, userID, eventID int64) (bool, error) {
	for _, reg := range r.m.regs {
		if reg.UserID == userID && reg.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (r memRegs) ExistsByCode(ctx context.Context, code int64) (bool, error) {
	_, ok := r.m.regs[code]
	return ok, nil
}

// fakeEmailService records the mails it was asked to send.
type fakeEmailService struct {
	welcomes      []*domain.WelcomeEmailData
	confirmations []*domain.ConfirmationEmailData
	err           error
}

func (f *fakeEmailService) SendWelcome(ctx context.Context, data *domain.WelcomeEmailData) error {
	f.welcomes = append(f.welcomes, data)
	return f.err
}

func (f *fakeEmailService) SendRegistrationConfirmation(ctx context.Context, data *domain.ConfirmationEmailData) error {
	f.confirmations = append(f.confirmations, data)
	return f.err
}

// fakePasswordHasher implements domain.PasswordHasher for tests.
type fakePasswordHasher struct{}

func (fakePasswordHasher) GenerateSalt() (string, error) { return "salt", nil }
func (fakePasswordHasher) Hash(salt, password string) (string, error) {
	return "hash:" + salt + ":" + password, nil
}
func (fakePasswordHasher) Compare(hash, salt, password string) error {
	if hash != "hash:"+salt+":"+password {
		return errors.New("mismatch")
	}
	return nil
}

// fakeRenderer and fakeMailer back the email service tests.
type fakeRenderer struct {
	err  error
	last string
}

func (f *fakeRenderer) Render(templateName string, data any) (string, string, string, error) {
	f.last = templateName
	if f.err != nil {
		return "", "", "", f.err
	}
	return "subject " + templateName, "<p>" + templateName + "</p>", templateName, nil
}

type sentMail struct{ to, subject, html, text string }

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(to, subject, html, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, html, text})
	return nil
}
