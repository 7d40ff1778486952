package service

import (
	"context"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SummaryService computes financial summaries over a date window
type SummaryService struct {
	transactionRepo domain.TransactionRepository
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(transactionRepo domain.TransactionRepository) *SummaryService {
	return &SummaryService{transactionRepo: transactionRepo}
}

// GetSummary summarizes every transaction of the owner within the inclusive window.
// Nil bounds leave that side of the window open.
func (s *SummaryService) GetSummary(ctx context.Context, ownerID uuid.UUID, dateFrom, dateTo *time.Time) (*domain.Summary, error) {
	if dateFrom != nil && dateTo != nil && dateFrom.After(*dateTo) {
		return nil, domain.ErrInvalidDateRange
	}

	transactions, err := s.transactionRepo.ListInRange(ctx, ownerID, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}

	return Aggregate(transactions), nil
}

// Aggregate folds transactions into totals, balance and a per-category-name breakdown.
//
// Breakdown entries take kind and color from the joined category of the first transaction seen
// for that name. The join is read live, so this is the category's current metadata.
func Aggregate(transactions []*domain.Transaction) *domain.Summary {
	summary := domain.NewSummary()

	for _, t := range transactions {
		switch t.Kind {
		case domain.KindIncome:
			summary.TotalIncome = summary.TotalIncome.Add(t.Amount)
		case domain.KindExpense:
			summary.TotalExpenses = summary.TotalExpenses.Add(t.Amount)
		}

		name, kind, color := "", t.Kind, ""
		if t.Category != nil {
			name, kind, color = t.Category.Name, t.Category.Kind, t.Category.Color
		}

		entry, ok := summary.CategoryBreakdown[name]
		if !ok {
			entry = &domain.CategoryTotal{Amount: decimal.Zero, Kind: kind, Color: color}
			summary.CategoryBreakdown[name] = entry
		}
		entry.Amount = entry.Amount.Add(t.Amount)
	}

	summary.Balance = summary.TotalIncome.Sub(summary.TotalExpenses)
	summary.TransactionCount = len(transactions)
	return summary
}
