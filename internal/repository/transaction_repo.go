package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-finance-tracker/internal/model"
	"go-finance-tracker/pkg/apierror"
)

type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func (r *TransactionRepository) FindByID(ctx context.Context, id string) (model.Transaction, error) {
	var t model.Transaction
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, category_id, amount_cents, note, occurred_on, created_at, updated_at
		 FROM transactions WHERE id = $1`, id).
		Scan(&t.ID, &t.UserID, &t.CategoryID, &t.AmountCents, &t.Note, &t.OccurredOn, &t.CreatedAt, &t.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Transaction{}, apierror.New("NOT_FOUND", "transaction not found", id, http.StatusNotFound)
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("find transaction by id: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, limit int, offset int) ([]model.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, category_id, amount_cents, note, occurred_on, created_at, updated_at
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY occurred_on DESC, created_at DESC
		 LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]model.Transaction, 0)
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.AmountCents, &t.Note, &t.OccurredOn, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (r *TransactionRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}

func (r *TransactionRepository) Create(ctx context.Context, t model.Transaction) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO transactions (id, user_id, category_id, amount_cents, note, occurred_on, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.UserID, t.CategoryID, t.AmountCents, t.Note, t.OccurredOn, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) Update(ctx context.Context, t model.Transaction) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE transactions
		 SET category_id = $2, amount_cents = $3, note = $4, occurred_on = $5, updated_at = $6
		 WHERE id = $1`,
		t.ID, t.CategoryID, t.AmountCents, t.Note, t.OccurredOn, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.New("NOT_FOUND", "transaction not found", t.ID, http.StatusNotFound)
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.New("NOT_FOUND", "transaction not found", id, http.StatusNotFound)
	}
	return nil
}

// SummaryByCategory aggregates a user's transactions per category inside
// the date range, both bounds inclusive.
func (r *TransactionRepository) SummaryByCategory(ctx context.Context, userID string, from time.Time, to time.Time) ([]model.CategorySummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.name, c.kind, COALESCE(SUM(t.amount_cents), 0), COUNT(t.id)
		 FROM transactions t
		 JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = $1 AND t.occurred_on BETWEEN $2 AND $3
		 GROUP BY c.id, c.name, c.kind
		 ORDER BY c.name`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("summarize transactions: %w", err)
	}
	defer rows.Close()

	summaries := make([]model.CategorySummary, 0)
	for rows.Next() {
		var s model.CategorySummary
		if err := rows.Scan(&s.CategoryID, &s.CategoryName, &s.Kind, &s.TotalCents, &s.Count); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
