package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is a registered participant or administrator.
type User struct {
	ID           int64     `json:"id"`
	Pseudo       string    `json:"pseudo"`
	LastName     string    `json:"nom"`
	FirstName    string    `json:"prenom"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	IsAdmin      bool      `json:"administrateur"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser returns a new User with the given fields. ID is set by the repository on create.
func NewUser(pseudo, firstName, lastName, email string, isAdmin bool, createdAt time.Time) *User {
	return &User{
		Pseudo:    pseudo,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		IsAdmin:   isAdmin,
		CreatedAt: createdAt,
	}
}

// UserField names a column users may be looked up by.
type UserField string

const (
	UserByID     UserField = "id"
	UserByEmail  UserField = "email"
	UserByPseudo UserField = "pseudo"
)

// PasswordHasher handles salt generation, hashing, and verification.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues session tokens for an authenticated user.
type TokenIssuer interface {
	Issue(userID int64, email string, isAdmin bool, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a session token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID int64, err error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	GetBy(ctx context.Context, field UserField, value any) ([]*User, error)
	Create(ctx context.Context, user *User) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Pseudo    string
	FirstName string
	LastName  string
	Email     string
	Password  string
	IsAdmin   bool
}

// IdentityService handles account creation, authentication and removal.
type IdentityService interface {
	Register(ctx context.Context, in RegisterInput) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	Delete(ctx context.Context, targetID int64, requester *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
}
