package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"studentevents/internal/domain"
)

const eventColumns = `id, titre, adresse, description, date_event, capacite_max, created_by, created_at, (tarif * 100)::BIGINT, statut`

var eventFieldColumns = map[domain.EventField]string{
	domain.EventByID:        "id",
	domain.EventByTitle:     "titre",
	domain.EventByStatus:    "statut",
	domain.EventByCreatedBy: "created_by",
}

type eventRepository struct {
	DB DBTX
}

// NewEventRepository returns a domain.EventRepository implemented with Postgres.
func NewEventRepository(db DBTX) domain.EventRepository {
	return &eventRepository{DB: db}
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var desc sql.NullString
	var status string
	err := row.Scan(&e.ID, &e.Title, &e.Location, &desc, &e.Date, &e.CapacityMax, &e.CreatedBy, &e.CreatedAt, &e.FareCents, &status)
	if err != nil {
		return nil, err
	}
	e.Description = desc.String
	e.Status = domain.EventStatus(status)
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	if e.Status == "" {
		e.Status = domain.StatusOpen
	}
	query := `
		INSERT INTO evenement (titre, adresse, description, date_event, capacite_max, created_by, created_at, tarif, statut)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, e.Title, e.Location, e.Description, e.Date, e.CapacityMax, e.CreatedBy, e.CreatedAt, e.Fare(), string(e.Status)).Scan(&e.ID)
	if err != nil {
		if _, ok := constraintViolation(err, codeForeignKeyViolation); ok {
			return domain.ErrUnknownUser
		}
		return classify(err)
	}
	return nil
}

func (r *eventRepository) GetBy(ctx context.Context, field domain.EventField, value any) ([]*domain.Event, error) {
	col, err := column(eventFieldColumns, field)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM evenement WHERE %s = $1 ORDER BY date_event, id`, eventColumns, col)
	return r.list(ctx, query, value)
}

func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM evenement ORDER BY date_event, id`, eventColumns)
	return r.list(ctx, query)
}

func (r *eventRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return events, nil
}

func (r *eventRepository) LockByID(ctx context.Context, id int64) (*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM evenement WHERE id = $1 FOR UPDATE`, eventColumns)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, classify(err)
	}
	return e, nil
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE evenement
		SET titre = $1, adresse = $2, description = $3, date_event = $4, capacite_max = $5, tarif = $6
		WHERE id = $7
	`
	result, err := r.DB.ExecContext(ctx, query, e.Title, e.Location, e.Description, e.Date, e.CapacityMax, e.Fare(), e.ID)
	if err != nil {
		return classify(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) UpdateStatus(ctx context.Context, id int64, status domain.EventStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: status %q", domain.ErrInvalidInput, string(status))
	}
	result, err := r.DB.ExecContext(ctx, `UPDATE evenement SET statut = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return classify(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the event; buses and registrations go with it through ON DELETE CASCADE.
func (r *eventRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM evenement WHERE id = $1`, id)
	if err != nil {
		return false, classify(err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
