package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"studentevents/internal/domain"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	classConnection         = "08"
)

// classify maps connection-level failures to domain.ErrStoreUnavailable and
// leaves every other error untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == classConnection {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return err
}

// constraintViolation returns the violated constraint name when err is a pq
// error with the given SQLSTATE.
func constraintViolation(err error, code pq.ErrorCode) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == code {
		return pqErr.Constraint, true
	}
	return "", false
}

// column resolves a lookup field to its column name. Only whitelisted fields
// ever reach SQL text.
func column[F ~string](columns map[F]string, field F) (string, error) {
	col, ok := columns[field]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidField, string(field))
	}
	return col, nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
