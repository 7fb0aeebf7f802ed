package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"studentevents/internal/domain"
)

const maxCodeAttempts = 10

type registrationService struct {
	store   domain.Store
	catalog domain.CatalogService
	emails  domain.EmailService
	logger  *slog.Logger
	now     func() time.Time
	codes   func() (int64, error)
}

// NewRegistrationService creates the RegistrationService. Status recomputation goes
// through catalog; emails may be nil to skip confirmation mails.
func NewRegistrationService(
	store domain.Store,
	catalog domain.CatalogService,
	emails domain.EmailService,
	logger *slog.Logger,
	now func() time.Time,
) domain.RegistrationService {
	if now == nil {
		now = time.Now
	}
	return &registrationService{
		store:   store,
		catalog: catalog,
		emails:  emails,
		logger:  logger,
		now:     now,
		codes:   randomReservationCode,
	}
}

func (s *registrationService) Enroll(ctx context.Context, in domain.EnrollInput) (*domain.Registration, error) {
	var (
		user  *domain.User
		event *domain.Event
		reg   *domain.Registration
	)
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		users, err := tx.Users().GetBy(ctx, domain.UserByID, in.UserID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if len(users) == 0 {
			return domain.ErrUnknownUser
		}
		user = users[0]

		event, err = tx.Events().LockByID(ctx, in.EventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrUnknownEvent
			}
			return fmt.Errorf("lock event: %w", err)
		}
		if event.Status == domain.StatusPassed || isPast(event.Date, s.now()) {
			return domain.ErrEventClosed
		}

		count, err := tx.Registrations().CountByEvent(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("count registrations: %w", err)
		}
		if count >= event.CapacityMax {
			return domain.ErrEventFull
		}

		enrolled, err := tx.Registrations().ExistsByUserEvent(ctx, user.ID, event.ID)
		if err != nil {
			return fmt.Errorf("check registration: %w", err)
		}
		if enrolled {
			return domain.ErrDuplicateRegistration
		}

		if !in.PaymentMode.Valid() {
			return domain.ErrInvalidPaymentMode
		}
		if err := checkBus(ctx, tx, in.OutboundBusID, event.ID, domain.DirectionOutbound); err != nil {
			return err
		}
		if err := checkBus(ctx, tx, in.ReturnBusID, event.ID, domain.DirectionReturn); err != nil {
			return err
		}

		code, err := s.allocateCode(ctx, tx)
		if err != nil {
			return err
		}
		reg = &domain.Registration{
			Code:          code,
			EventID:       event.ID,
			UserID:        user.ID,
			Drink:         in.Drink,
			PaymentMode:   in.PaymentMode,
			OutboundBusID: in.OutboundBusID,
			ReturnBusID:   in.ReturnBusID,
			EventName:     event.Title,
			CreatedAt:     s.now(),
		}
		return tx.Registrations().Create(ctx, reg)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("registration created", "code", reg.Code, "event_id", reg.EventID, "user_id", reg.UserID)

	s.afterCommit(ctx, reg.EventID)
	if s.emails != nil {
		data := &domain.ConfirmationEmailData{
			Email:           user.Email,
			Pseudo:          user.Pseudo,
			EventTitle:      event.Title,
			EventDate:       event.Date,
			EventLocation:   event.Location,
			ReservationCode: reg.Code,
			Drink:           reg.Drink,
			PaymentMode:     reg.PaymentMode,
		}
		if err := s.emails.SendRegistrationConfirmation(ctx, data); err != nil {
			s.logger.Warn("confirmation email undelivered", "code", reg.Code, "error", err)
		}
	}
	return reg, nil
}

// checkBus verifies that an optional bus belongs to the event and runs in the expected direction.
func checkBus(ctx context.Context, tx domain.Store, busID *int64, eventID int64, direction domain.Direction) error {
	if busID == nil {
		return nil
	}
	buses, err := tx.Buses().GetBy(ctx, domain.BusByID, *busID)
	if err != nil {
		return fmt.Errorf("get bus: %w", err)
	}
	if len(buses) == 0 || buses[0].EventID != eventID || buses[0].Direction != direction {
		return domain.ErrInvalidBus
	}
	return nil
}

func (s *registrationService) allocateCode(ctx context.Context, tx domain.Store) (int64, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.codes()
		if err != nil {
			return 0, fmt.Errorf("generate reservation code: %w", err)
		}
		taken, err := tx.Registrations().ExistsByCode(ctx, code)
		if err != nil {
			return 0, fmt.Errorf("check reservation code: %w", err)
		}
		if !taken {
			return code, nil
		}
		s.logger.Debug("reservation code collision", "attempt", attempt)
	}
	return 0, domain.ErrCodeSpaceExhausted
}

// randomReservationCode draws uniformly from the 8-digit range.
func randomReservationCode() (int64, error) {
	span := big.NewInt(domain.MaxReservationCode - domain.MinReservationCode + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, err
	}
	return domain.MinReservationCode + n.Int64(), nil
}

func (s *registrationService) Cancel(ctx context.Context, code, requesterID int64) error {
	var eventID int64
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		regs, err := tx.Registrations().GetBy(ctx, domain.RegistrationByCode, code)
		if err != nil {
			return fmt.Errorf("get registration: %w", err)
		}
		if len(regs) == 0 {
			return domain.ErrUnknownReservation
		}
		reg := regs[0]
		if reg.UserID != requesterID {
			users, err := tx.Users().GetBy(ctx, domain.UserByID, requesterID)
			if err != nil {
				return fmt.Errorf("get requester: %w", err)
			}
			if len(users) == 0 || !users[0].IsAdmin {
				return domain.ErrForbidden
			}
		}
		deleted, err := tx.Registrations().Delete(ctx, code)
		if err != nil {
			return fmt.Errorf("delete registration: %w", err)
		}
		if !deleted {
			return domain.ErrUnknownReservation
		}
		eventID = reg.EventID
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("registration cancelled", "code", code, "event_id", eventID, "by", requesterID)
	s.afterCommit(ctx, eventID)
	return nil
}

// afterCommit refreshes the event status; failures are logged only.
func (s *registrationService) afterCommit(ctx context.Context, eventID int64) {
	if _, err := s.catalog.RecomputeStatus(ctx, eventID); err != nil {
		s.logger.Error("recompute status", "event_id", eventID, "error", err)
	}
}

func (s *registrationService) FindByCode(ctx context.Context, code int64) (*domain.Registration, error) {
	regs, err := s.store.Registrations().GetBy(ctx, domain.RegistrationByCode, code)
	if err != nil {
		return nil, fmt.Errorf("get registration: %w", err)
	}
	if len(regs) == 0 {
		return nil, nil
	}
	return regs[0], nil
}

func (s *registrationService) ListForEvent(ctx context.Context, eventID int64) ([]*domain.Registration, error) {
	regs, err := s.store.Registrations().GetBy(ctx, domain.RegistrationByEventID, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

func (s *registrationService) ListForUser(ctx context.Context, userID int64) ([]*domain.Registration, error) {
	regs, err := s.store.Registrations().GetBy(ctx, domain.RegistrationByUserID, userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

func (s *registrationService) CountForEvent(ctx context.Context, eventID int64) (int, error) {
	n, err := s.store.Registrations().CountByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}

func (s *registrationService) IsEnrolled(ctx context.Context, userID, eventID int64) (bool, error) {
	ok, err := s.store.Registrations().ExistsByUserEvent(ctx, userID, eventID)
	if err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return ok, nil
}
