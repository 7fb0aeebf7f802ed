package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"studentevents/internal/domain"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories run the same
// queries inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type store struct {
	db *sql.DB
	q  DBTX
}

// NewStore returns a domain.Store backed by the given connection pool.
func NewStore(db *sql.DB) domain.Store {
	return &store{db: db, q: db}
}

func (s *store) Users() domain.UserRepository                 { return NewUserRepository(s.q) }
func (s *store) Events() domain.EventRepository               { return NewEventRepository(s.q) }
func (s *store) Buses() domain.BusRepository                  { return NewBusRepository(s.q) }
func (s *store) Registrations() domain.RegistrationRepository { return NewRegistrationRepository(s.q) }

func (s *store) WithinTx(ctx context.Context, fn func(tx domain.Store) error) (err error) {
	if _, nested := s.q.(*sql.Tx); nested {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", classify(err))
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&store{db: s.db, q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", classify(err))
	}
	return nil
}
