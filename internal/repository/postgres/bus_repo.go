package postgres

import (
	"context"
	"fmt"

	"studentevents/internal/domain"
)

var busFieldColumns = map[domain.BusField]string{
	domain.BusByID:      "id",
	domain.BusByEventID: "id_event",
}

type busRepository struct {
	DB DBTX
}

// NewBusRepository returns a domain.BusRepository implemented with Postgres.
func NewBusRepository(db DBTX) domain.BusRepository {
	return &busRepository{DB: db}
}

func (r *busRepository) Create(ctx context.Context, b *domain.Bus) error {
	query := `
		INSERT INTO bus (id_event, sens, description, heure_depart, capacite_max)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, b.EventID, string(b.Direction), b.Stop, b.DepartureTime, b.CapacityMax).Scan(&b.ID)
	if err != nil {
		if _, ok := constraintViolation(err, codeForeignKeyViolation); ok {
			return domain.ErrUnknownEvent
		}
		return classify(err)
	}
	return nil
}

func (r *busRepository) GetBy(ctx context.Context, field domain.BusField, value any) ([]*domain.Bus, error) {
	col, err := column(busFieldColumns, field)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT id, id_event, sens, description, heure_depart, capacite_max
		FROM bus
		WHERE %s = $1
		ORDER BY heure_depart, id
	`, col)
	rows, err := r.DB.QueryContext(ctx, query, value)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	buses := make([]*domain.Bus, 0)
	for rows.Next() {
		b := &domain.Bus{}
		var direction string
		if err := rows.Scan(&b.ID, &b.EventID, &direction, &b.Stop, &b.DepartureTime, &b.CapacityMax); err != nil {
			return nil, err
		}
		b.Direction = domain.Direction(direction)
		buses = append(buses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return buses, nil
}

func (r *busRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM bus WHERE id = $1`, id)
	if err != nil {
		return false, classify(err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
