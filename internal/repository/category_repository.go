package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cortexdesk/cortexdesk/internal/domain"
)

// CategoryRepository encapsulates catalog persistence. The lifecycle
// engine only ever reads active entries; writes come from admin CRUD.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	ListActive(ctx context.Context) ([]domain.Category, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository instantiates repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

const categoryColumns = `id, code, name, description, sla_hours, is_active, created_at, updated_at`

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (code, name, description, sla_hours, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		category.Code,
		category.Name,
		category.Description,
		category.SlaHours,
		category.IsActive,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	const query = `
        UPDATE categories SET code=$1, name=$2, description=$3, sla_hours=$4, is_active=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		category.Code,
		category.Name,
		category.Description,
		category.SlaHours,
		category.IsActive,
		category.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	return r.fetchSingle(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id=$1`, id)
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	return r.fetchSingle(ctx, `SELECT `+categoryColumns+` FROM categories WHERE LOWER(name)=LOWER($1)`, name)
}

func (r *categoryRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Category, error) {
	var cat domain.Category
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&cat.ID,
		&cat.Code,
		&cat.Name,
		&cat.Description,
		&cat.SlaHours,
		&cat.IsActive,
		&cat.CreatedAt,
		&cat.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	return r.list(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
}

func (r *categoryRepository) ListActive(ctx context.Context) ([]domain.Category, error) {
	return r.list(ctx, `SELECT `+categoryColumns+` FROM categories WHERE is_active ORDER BY created_at`)
}

func (r *categoryRepository) list(ctx context.Context, query string) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var cat domain.Category
		if err := rows.Scan(
			&cat.ID,
			&cat.Code,
			&cat.Name,
			&cat.Description,
			&cat.SlaHours,
			&cat.IsActive,
			&cat.CreatedAt,
			&cat.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, cat)
	}
	return result, rows.Err()
}
