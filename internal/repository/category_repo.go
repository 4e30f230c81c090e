package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-finance-tracker/internal/model"
	"go-finance-tracker/pkg/apierror"
)

type CategoryRepository struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (model.Category, error) {
	var c model.Category
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, name, kind, created_at, updated_at
		 FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Kind, &c.CreatedAt, &c.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Category{}, apierror.New("NOT_FOUND", "category not found", id, http.StatusNotFound)
	}
	if err != nil {
		return model.Category{}, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID string) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, name, kind, created_at, updated_at
		 FROM categories WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Kind, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Create(ctx context.Context, c model.Category) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO categories (id, user_id, name, kind, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.UserID, c.Name, c.Kind, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) Update(ctx context.Context, c model.Category) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE categories SET name = $2, kind = $3, updated_at = $4 WHERE id = $1`,
		c.ID, c.Name, c.Kind, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.New("NOT_FOUND", "category not found", c.ID, http.StatusNotFound)
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.New("NOT_FOUND", "category not found", id, http.StatusNotFound)
	}
	return nil
}
