package domain

import "context"

// Store groups the repositories and runs work inside a single transaction.
type Store interface {
	Users() UserRepository
	Events() EventRepository
	Buses() BusRepository
	Registrations() RegistrationRepository
	// WithinTx runs fn against a Store bound to one transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
