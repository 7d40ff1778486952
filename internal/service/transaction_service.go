package service

import (
	"context"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionService handles transaction-related business logic
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	enforcer        *ConsistencyEnforcer
	now             func() time.Time
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(transactionRepo domain.TransactionRepository, enforcer *ConsistencyEnforcer) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		enforcer:        enforcer,
		now:             time.Now,
	}
}

// CreateTransactionInput holds the input for creating a transaction
type CreateTransactionInput struct {
	Amount      decimal.Decimal
	Kind        domain.Kind
	Description string
	OccurredAt  *time.Time
	CategoryID  uuid.UUID
}

// UpdateTransactionInput holds a partial transaction update. Nil fields are left unchanged.
type UpdateTransactionInput struct {
	Amount      *decimal.Decimal
	Kind        *domain.Kind
	Description *string
	OccurredAt  *time.Time
	CategoryID  *uuid.UUID
}

// CreateTransaction validates and stores a new transaction, returning it joined with its category
func (s *TransactionService) CreateTransaction(ctx context.Context, ownerID uuid.UUID, input CreateTransactionInput) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	description, err := domain.NormalizeDescription(input.Description)
	if err != nil {
		return nil, err
	}
	if !input.Kind.Valid() {
		return nil, domain.ErrInvalidKind
	}

	validated, err := s.enforcer.ValidateTransactionWrite(ctx, ownerID, TransactionFields{
		CategoryID: &input.CategoryID,
		Kind:       &input.Kind,
	}, nil)
	if err != nil {
		return nil, err
	}

	occurredAt := s.now().UTC()
	if input.OccurredAt != nil {
		occurredAt = input.OccurredAt.UTC()
	}

	transaction := &domain.Transaction{
		OwnerID:     ownerID,
		Amount:      input.Amount.Round(domain.AmountScale),
		Kind:        validated.Kind,
		Description: description,
		OccurredAt:  occurredAt,
		CategoryID:  validated.Category.ID,
	}

	return s.transactionRepo.Create(ctx, transaction)
}

// GetTransactions returns one page of the owner's filtered transactions
func (s *TransactionService) GetTransactions(ctx context.Context, ownerID uuid.UUID, filter *domain.TransactionFilter) (*domain.PaginatedTransactions, error) {
	if filter == nil {
		filter = &domain.TransactionFilter{}
	}
	filter.Normalize()
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return nil, domain.ErrInvalidDateRange
	}
	return s.transactionRepo.List(ctx, ownerID, filter)
}

// GetTransactionByID retrieves one of the owner's transactions
func (s *TransactionService) GetTransactionByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Transaction, error) {
	return s.transactionRepo.GetByID(ctx, ownerID, id)
}

// UpdateTransaction applies a partial update. Changes to kind or category are re-validated
// against the (possibly new) category first.
func (s *TransactionService) UpdateTransaction(ctx context.Context, ownerID, id uuid.UUID, input UpdateTransactionInput) (*domain.Transaction, error) {
	existing, err := s.transactionRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.Category = nil

	if input.Amount != nil {
		if err := domain.ValidateAmount(*input.Amount); err != nil {
			return nil, err
		}
		updated.Amount = input.Amount.Round(domain.AmountScale)
	}
	if input.Description != nil {
		description, err := domain.NormalizeDescription(*input.Description)
		if err != nil {
			return nil, err
		}
		updated.Description = description
	}
	if input.OccurredAt != nil {
		updated.OccurredAt = input.OccurredAt.UTC()
	}

	fields := TransactionFields{CategoryID: input.CategoryID, Kind: input.Kind}
	if fields.touchesInvariant() {
		validated, err := s.enforcer.ValidateTransactionWrite(ctx, ownerID, fields, existing)
		if err != nil {
			return nil, err
		}
		updated.Kind = validated.Kind
		updated.CategoryID = validated.Category.ID
	}

	return s.transactionRepo.Update(ctx, &updated)
}

// DeleteTransaction deletes one of the owner's transactions
func (s *TransactionService) DeleteTransaction(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.transactionRepo.Delete(ctx, ownerID, id)
}

// CountByCategory counts the owner's transactions referencing a category
func (s *TransactionService) CountByCategory(ctx context.Context, ownerID, categoryID uuid.UUID) (int64, error) {
	return s.transactionRepo.CountByCategory(ctx, ownerID, categoryID)
}
