package service

import (
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ledgerFixture struct {
	categoryRepo    *testutil.MockCategoryRepository
	transactionRepo *testutil.MockTransactionRepository
	enforcer        *ConsistencyEnforcer
	categories      *CategoryService
	transactions    *TransactionService
	summaries       *SummaryService
	ownerID         uuid.UUID
}

func newLedgerFixture() *ledgerFixture {
	categoryRepo := testutil.NewMockCategoryRepository()
	transactionRepo := testutil.NewMockTransactionRepository(categoryRepo)
	enforcer := NewConsistencyEnforcer(categoryRepo)
	return &ledgerFixture{
		categoryRepo:    categoryRepo,
		transactionRepo: transactionRepo,
		enforcer:        enforcer,
		categories:      NewCategoryService(categoryRepo, transactionRepo),
		transactions:    NewTransactionService(transactionRepo, enforcer),
		summaries:       NewSummaryService(transactionRepo),
		ownerID:         uuid.New(),
	}
}

func (f *ledgerFixture) addCategory(owner uuid.UUID, name string, kind domain.Kind) *domain.Category {
	return f.categoryRepo.AddCategory(&domain.Category{
		OwnerID: owner,
		Name:    name,
		Kind:    kind,
	})
}

func (f *ledgerFixture) addTransaction(category *domain.Category, amount string, occurredAt time.Time) *domain.Transaction {
	return f.transactionRepo.AddTransaction(&domain.Transaction{
		OwnerID:     category.OwnerID,
		Amount:      decimal.RequireFromString(amount),
		Kind:        category.Kind,
		Description: category.Name,
		OccurredAt:  occurredAt,
		CategoryID:  category.ID,
	})
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}

func kindPtr(k domain.Kind) *domain.Kind {
	return &k
}

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}
