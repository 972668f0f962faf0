package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cortexdesk/cortexdesk/internal/domain"
)

// UserRepository encapsulates account persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates repository.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, status, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Status,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email)=LOWER($1)`, email)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	const query = `
        SELECT id, name, email, password_hash, role, status, created_at, updated_at
        FROM users WHERE role=$1 AND status='ACTIVE' ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.Status,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
