package postgres

import (
	"context"
	"fmt"

	"studentevents/internal/domain"
)

const userColumns = `id, pseudo, nom, prenom, email, mot_de_passe, sel, administrateur, created_at`

var userFieldColumns = map[domain.UserField]string{
	domain.UserByID:     "id",
	domain.UserByEmail:  "email",
	domain.UserByPseudo: "pseudo",
}

type userRepository struct {
	DB DBTX
}

// NewUserRepository returns a domain.UserRepository implemented with Postgres.
func NewUserRepository(db DBTX) domain.UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO utilisateur (pseudo, nom, prenom, email, mot_de_passe, sel, administrateur, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, u.Pseudo, u.LastName, u.FirstName, u.Email, u.PasswordHash, u.Salt, u.IsAdmin, u.CreatedAt).Scan(&u.ID)
	if err != nil {
		if _, ok := constraintViolation(err, codeUniqueViolation); ok {
			return domain.ErrDuplicateEmail
		}
		return classify(err)
	}
	return nil
}

func (r *userRepository) GetBy(ctx context.Context, field domain.UserField, value any) ([]*domain.User, error) {
	col, err := column(userFieldColumns, field)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM utilisateur WHERE %s = $1 ORDER BY id`, userColumns, col)
	rows, err := r.DB.QueryContext(ctx, query, value)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		u := &domain.User{}
		if err := rows.Scan(&u.ID, &u.Pseudo, &u.LastName, &u.FirstName, &u.Email, &u.PasswordHash, &u.Salt, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return users, nil
}

func (r *userRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM utilisateur WHERE id = $1`, id)
	if err != nil {
		if constraint, ok := constraintViolation(err, codeForeignKeyViolation); ok && constraint == "evenement_created_by_fkey" {
			return false, fmt.Errorf("%w: user still owns events", domain.ErrInvalidInput)
		}
		return false, classify(err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
