package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"studentevents/internal/domain"
)

const (
	constraintRegistrationPKey      = "inscription_pkey"
	constraintRegistrationEventUser = "inscription_event_user_key"
)

var registrationFieldColumns = map[domain.RegistrationField]string{
	domain.RegistrationByCode:    "code_reservation",
	domain.RegistrationByUserID:  "created_by",
	domain.RegistrationByEventID: "id_event",
}

type registrationRepository struct {
	DB DBTX
}

// NewRegistrationRepository returns a domain.RegistrationRepository implemented with Postgres.
func NewRegistrationRepository(db DBTX) domain.RegistrationRepository {
	return &registrationRepository{DB: db}
}

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	query := `
		INSERT INTO inscription (code_reservation, id_event, created_by, boisson, mode_paiement, id_bus_aller, id_bus_retour, nom_event, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.DB.ExecContext(ctx, query,
		reg.Code, reg.EventID, reg.UserID, reg.Drink, string(reg.PaymentMode),
		nullInt64(reg.OutboundBusID), nullInt64(reg.ReturnBusID), reg.EventName, reg.CreatedAt,
	)
	if err == nil {
		return nil
	}
	if constraint, ok := constraintViolation(err, codeUniqueViolation); ok {
		switch constraint {
		case constraintRegistrationEventUser:
			return domain.ErrDuplicateRegistration
		case constraintRegistrationPKey:
			return domain.ErrReservationCodeTaken
		}
		return err
	}
	if constraint, ok := constraintViolation(err, codeForeignKeyViolation); ok {
		switch constraint {
		case "inscription_id_bus_aller_fkey", "inscription_id_bus_retour_fkey":
			return domain.ErrInvalidBus
		case "inscription_id_event_fkey":
			return domain.ErrUnknownEvent
		case "inscription_created_by_fkey":
			return domain.ErrUnknownUser
		}
		return err
	}
	return classify(err)
}

func (r *registrationRepository) GetBy(ctx context.Context, field domain.RegistrationField, value any) ([]*domain.Registration, error) {
	col, err := column(registrationFieldColumns, field)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT code_reservation, id_event, created_by, boisson, mode_paiement, id_bus_aller, id_bus_retour, nom_event, created_at
		FROM inscription
		WHERE %s = $1
		ORDER BY created_at, code_reservation
	`, col)
	rows, err := r.DB.QueryContext(ctx, query, value)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	regs := make([]*domain.Registration, 0)
	for rows.Next() {
		reg := &domain.Registration{}
		var mode string
		var outbound, ret sql.NullInt64
		if err := rows.Scan(&reg.Code, &reg.EventID, &reg.UserID, &reg.Drink, &mode, &outbound, &ret, &reg.EventName, &reg.CreatedAt); err != nil {
			return nil, err
		}
		reg.PaymentMode = domain.PaymentMode(mode)
		if outbound.Valid {
			reg.OutboundBusID = &outbound.Int64
		}
		if ret.Valid {
			reg.ReturnBusID = &ret.Int64
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return regs, nil
}

func (r *registrationRepository) Delete(ctx context.Context, code int64) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM inscription WHERE code_reservation = $1`, code)
	if err != nil {
		return false, classify(err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *registrationRepository) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM inscription WHERE id_event = $1`, eventID).Scan(&n)
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func (r *registrationRepository) ExistsByUserEvent(ctx context.Context, userID, eventID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM inscription WHERE created_by = $1 AND id_event = $2)`
	if err := r.DB.QueryRowContext(ctx, query, userID, eventID).Scan(&exists); err != nil {
		return false, classify(err)
	}
	return exists, nil
}

func (r *registrationRepository) ExistsByCode(ctx context.Context, code int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM inscription WHERE code_reservation = $1)`
	if err := r.DB.QueryRowContext(ctx, query, code).Scan(&exists); err != nil {
		return false, classify(err)
	}
	return exists, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
