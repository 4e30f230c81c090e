package model

import "time"

const (
	CategoryKindIncome  = "income"
	CategoryKindExpense = "expense"
)

type Category struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction amounts are stored in cents to avoid floating-point drift.
type Transaction struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	CategoryID string    `json:"category_id"`
	AmountCents int64    `json:"amount_cents"`
	Note       string    `json:"note,omitempty"`
	OccurredOn time.Time `json:"occurred_on"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CategorySummary struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Kind         string `json:"kind"`
	TotalCents   int64  `json:"total_cents"`
	Count        int    `json:"count"`
}

type SummaryReport struct {
	From          time.Time         `json:"from"`
	To            time.Time         `json:"to"`
	IncomeCents   int64             `json:"income_cents"`
	ExpenseCents  int64             `json:"expense_cents"`
	NetCents      int64             `json:"net_cents"`
	ByCategory    []CategorySummary `json:"by_category"`
}
