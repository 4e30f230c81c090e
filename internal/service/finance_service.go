package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-finance-tracker/internal/model"
	"go-finance-tracker/pkg/apierror"
)

type categoryStore interface {
	FindByID(ctx context.Context, id string) (model.Category, error)
	ListByUser(ctx context.Context, userID string) ([]model.Category, error)
	Create(ctx context.Context, c model.Category) error
	Update(ctx context.Context, c model.Category) error
	Delete(ctx context.Context, id string) error
}

type transactionStore interface {
	FindByID(ctx context.Context, id string) (model.Transaction, error)
	ListByUser(ctx context.Context, userID string, limit int, offset int) ([]model.Transaction, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, t model.Transaction) error
	Update(ctx context.Context, t model.Transaction) error
	Delete(ctx context.Context, id string) error
	SummaryByCategory(ctx context.Context, userID string, from time.Time, to time.Time) ([]model.CategorySummary, error)
}

// FinanceService is the ledger behind the protected routes. Every
// operation is scoped to the authenticated owner; foreign records are
// reported as not found rather than forbidden to avoid existence leaks.
type FinanceService struct {
	categories   categoryStore
	transactions transactionStore
}

func NewFinanceService(categories categoryStore, transactions transactionStore) *FinanceService {
	return &FinanceService{categories: categories, transactions: transactions}
}

func (s *FinanceService) CreateCategory(ctx context.Context, userID string, req model.CategoryRequest) (model.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.Category{}, apierror.New("BAD_REQUEST", "category name is required", "name", http.StatusBadRequest)
	}
	if req.Kind != model.CategoryKindIncome && req.Kind != model.CategoryKindExpense {
		return model.Category{}, apierror.New("BAD_REQUEST", "kind must be income or expense", req.Kind, http.StatusBadRequest)
	}

	now := time.Now().UTC()
	category := model.Category{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Kind:      req.Kind,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return model.Category{}, err
	}
	return category, nil
}

func (s *FinanceService) ListCategories(ctx context.Context, userID string) ([]model.Category, error) {
	return s.categories.ListByUser(ctx, userID)
}

func (s *FinanceService) UpdateCategory(ctx context.Context, userID string, categoryID string, req model.CategoryRequest) (model.Category, error) {
	category, err := s.ownedCategory(ctx, userID, categoryID)
	if err != nil {
		return model.Category{}, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		category.Name = name
	}
	if req.Kind != "" {
		if req.Kind != model.CategoryKindIncome && req.Kind != model.CategoryKindExpense {
			return model.Category{}, apierror.New("BAD_REQUEST", "kind must be income or expense", req.Kind, http.StatusBadRequest)
		}
		category.Kind = req.Kind
	}
	category.UpdatedAt = time.Now().UTC()

	if err := s.categories.Update(ctx, category); err != nil {
		return model.Category{}, err
	}
	return category, nil
}

func (s *FinanceService) DeleteCategory(ctx context.Context, userID string, categoryID string) error {
	if _, err := s.ownedCategory(ctx, userID, categoryID); err != nil {
		return err
	}
	return s.categories.Delete(ctx, categoryID)
}

func (s *FinanceService) CreateTransaction(ctx context.Context, userID string, req model.TransactionRequest) (model.Transaction, error) {
	occurredOn, err := parseDate(req.OccurredOn)
	if err != nil {
		return model.Transaction{}, err
	}
	if req.AmountCents == 0 {
		return model.Transaction{}, apierror.New("BAD_REQUEST", "amount_cents must be non-zero", "amount_cents", http.StatusBadRequest)
	}
	if _, err := s.ownedCategory(ctx, userID, req.CategoryID); err != nil {
		return model.Transaction{}, err
	}

	now := time.Now().UTC()
	transaction := model.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		CategoryID:  req.CategoryID,
		AmountCents: req.AmountCents,
		Note:        strings.TrimSpace(req.Note),
		OccurredOn:  occurredOn,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.transactions.Create(ctx, transaction); err != nil {
		return model.Transaction{}, err
	}
	return transaction, nil
}

func (s *FinanceService) ListTransactions(ctx context.Context, userID string, page int, limit int) ([]model.Transaction, *model.Meta, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	transactions, err := s.transactions.ListByUser(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, nil, err
	}

	total, err := s.transactions.CountByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	meta := &model.Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}
	return transactions, meta, nil
}

func (s *FinanceService) UpdateTransaction(ctx context.Context, userID string, transactionID string, req model.TransactionRequest) (model.Transaction, error) {
	transaction, err := s.ownedTransaction(ctx, userID, transactionID)
	if err != nil {
		return model.Transaction{}, err
	}

	if req.CategoryID != "" && req.CategoryID != transaction.CategoryID {
		if _, err := s.ownedCategory(ctx, userID, req.CategoryID); err != nil {
			return model.Transaction{}, err
		}
		transaction.CategoryID = req.CategoryID
	}
	if req.AmountCents != 0 {
		transaction.AmountCents = req.AmountCents
	}
	if req.Note != "" {
		transaction.Note = strings.TrimSpace(req.Note)
	}
	if req.OccurredOn != "" {
		occurredOn, err := parseDate(req.OccurredOn)
		if err != nil {
			return model.Transaction{}, err
		}
		transaction.OccurredOn = occurredOn
	}
	transaction.UpdatedAt = time.Now().UTC()

	if err := s.transactions.Update(ctx, transaction); err != nil {
		return model.Transaction{}, err
	}
	return transaction, nil
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, userID string, transactionID string) error {
	if _, err := s.ownedTransaction(ctx, userID, transactionID); err != nil {
		return err
	}
	return s.transactions.Delete(ctx, transactionID)
}

func (s *FinanceService) Summary(ctx context.Context, userID string, fromRaw string, toRaw string) (model.SummaryReport, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := now

	var err error
	if fromRaw != "" {
		if from, err = parseDate(fromRaw); err != nil {
			return model.SummaryReport{}, err
		}
	}
	if toRaw != "" {
		if to, err = parseDate(toRaw); err != nil {
			return model.SummaryReport{}, err
		}
	}
	if to.Before(from) {
		return model.SummaryReport{}, apierror.New("BAD_REQUEST", "to must not precede from", "", http.StatusBadRequest)
	}

	byCategory, err := s.transactions.SummaryByCategory(ctx, userID, from, to)
	if err != nil {
		return model.SummaryReport{}, err
	}

	report := model.SummaryReport{From: from, To: to, ByCategory: byCategory}
	for _, summary := range byCategory {
		switch summary.Kind {
		case model.CategoryKindIncome:
			report.IncomeCents += summary.TotalCents
		case model.CategoryKindExpense:
			report.ExpenseCents += summary.TotalCents
		}
	}
	report.NetCents = report.IncomeCents - report.ExpenseCents

	return report, nil
}

func (s *FinanceService) ownedCategory(ctx context.Context, userID string, categoryID string) (model.Category, error) {
	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		return model.Category{}, err
	}
	if category.UserID != userID {
		return model.Category{}, apierror.New("NOT_FOUND", "category not found", categoryID, http.StatusNotFound)
	}
	return category, nil
}

func (s *FinanceService) ownedTransaction(ctx context.Context, userID string, transactionID string) (model.Transaction, error) {
	transaction, err := s.transactions.FindByID(ctx, transactionID)
	if err != nil {
		return model.Transaction{}, err
	}
	if transaction.UserID != userID {
		return model.Transaction{}, apierror.New("NOT_FOUND", "transaction not found", transactionID, http.StatusNotFound)
	}
	return transaction, nil
}

func parseDate(raw string) (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apierror.New("BAD_REQUEST", "date must be YYYY-MM-DD", raw, http.StatusBadRequest)
	}
	return parsed, nil
}
