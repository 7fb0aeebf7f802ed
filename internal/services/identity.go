package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"studentevents/internal/domain"
)

const minPasswordLen = 8

var emailRegexp = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type identityService struct {
	store   domain.Store
	catalog domain.CatalogService
	hasher  domain.PasswordHasher
	emails  domain.EmailService
	logger  *slog.Logger
	now     func() time.Time
}

// NewIdentityService creates an IdentityService. Deleting an account frees its seats,
// so affected event statuses are recomputed through catalog. emails may be nil to
// skip welcome mails.
func NewIdentityService(
	store domain.Store,
	catalog domain.CatalogService,
	hasher domain.PasswordHasher,
	emails domain.EmailService,
	logger *slog.Logger,
) domain.IdentityService {
	return &identityService{
		store:   store,
		catalog: catalog,
		hasher:  hasher,
		emails:  emails,
		logger:  logger,
		now:     time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *identityService) Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	in.Pseudo = strings.TrimSpace(in.Pseudo)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)

	if in.Pseudo == "" || in.FirstName == "" || in.LastName == "" {
		return nil, fmt.Errorf("%w: pseudo, first name and last name are required", domain.ErrInvalidInput)
	}
	if !emailRegexp.MatchString(in.Email) {
		return nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}

	existing, err := s.store.Users().GetBy(ctx, domain.UserByEmail, in.Email)
	if err != nil {
		return nil, fmt.Errorf("look up email: %w", err)
	}
	if len(existing) > 0 {
		return nil, domain.ErrDuplicateEmail
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(salt, in.Password)
	if err != nil {
		return nil, err
	}

	user := domain.NewUser(in.Pseudo, in.FirstName, in.LastName, in.Email, in.IsAdmin, s.now())
	user.PasswordHash = hash
	user.Salt = salt
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("account created", "user_id", user.ID, "admin", user.IsAdmin)

	if s.emails != nil {
		data := &domain.WelcomeEmailData{Email: user.Email, Pseudo: user.Pseudo, FirstName: user.FirstName}
		if err := s.emails.SendWelcome(ctx, data); err != nil {
			s.logger.Warn("welcome email undelivered", "user_id", user.ID, "error", err)
		}
	}
	return user, nil
}

func (s *identityService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	users, err := s.store.Users().GetBy(ctx, domain.UserByEmail, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("look up email: %w", err)
	}
	if len(users) == 0 {
		return nil, domain.ErrInvalidCredentials
	}
	user := users[0]
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *identityService) Delete(ctx context.Context, targetID int64, requester *domain.User) error {
	if err := requireAdmin(requester); err != nil {
		return err
	}
	var eventIDs []int64
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		regs, err := tx.Registrations().GetBy(ctx, domain.RegistrationByUserID, targetID)
		if err != nil {
			return fmt.Errorf("list registrations: %w", err)
		}
		seen := make(map[int64]bool, len(regs))
		for _, reg := range regs {
			if !seen[reg.EventID] {
				seen[reg.EventID] = true
				eventIDs = append(eventIDs, reg.EventID)
			}
		}
		deleted, err := tx.Users().Delete(ctx, targetID)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if !deleted {
			return domain.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("account deleted", "user_id", targetID, "by", requester.ID, "registrations_freed", len(eventIDs))

	// The cascade freed seats; full events may reopen.
	if s.catalog != nil {
		for _, eventID := range eventIDs {
			if _, err := s.catalog.RecomputeStatus(ctx, eventID); err != nil {
				s.logger.Error("recompute status", "event_id", eventID, "error", err)
			}
		}
	}
	return nil
}

func (s *identityService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	users, err := s.store.Users().GetBy(ctx, domain.UserByID, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if len(users) == 0 {
		return nil, domain.ErrUserNotFound
	}
	return users[0], nil
}

func requireAdmin(u *domain.User) error {
	if u == nil || !u.IsAdmin {
		return domain.ErrForbidden
	}
	return nil
}
