package service

import (
	"context"
	"errors"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/google/uuid"
)

// TransactionFields holds the candidate values of a transaction write.
// Nil fields keep the existing transaction's value on update.
type TransactionFields struct {
	CategoryID *uuid.UUID
	Kind       *domain.Kind
}

// ValidatedTransaction is the resolved category and kind a write may persist
type ValidatedTransaction struct {
	Category *domain.Category
	Kind     domain.Kind
}

// ConsistencyEnforcer checks the cross-entity invariants of transaction writes:
// the category exists, belongs to the owner, and has the same kind as the transaction.
type ConsistencyEnforcer struct {
	categoryRepo domain.CategoryRepository
}

// NewConsistencyEnforcer creates a new ConsistencyEnforcer
func NewConsistencyEnforcer(categoryRepo domain.CategoryRepository) *ConsistencyEnforcer {
	return &ConsistencyEnforcer{categoryRepo: categoryRepo}
}

// ValidateTransactionWrite resolves the effective category and kind from candidate, falling back to
// existing for fields the candidate leaves unset. It performs no writes.
func (e *ConsistencyEnforcer) ValidateTransactionWrite(ctx context.Context, ownerID uuid.UUID, candidate TransactionFields, existing *domain.Transaction) (*ValidatedTransaction, error) {
	var categoryID uuid.UUID
	switch {
	case candidate.CategoryID != nil:
		categoryID = *candidate.CategoryID
	case existing != nil:
		categoryID = existing.CategoryID
	default:
		return nil, domain.ErrCategoryNotFound
	}

	var kind domain.Kind
	switch {
	case candidate.Kind != nil:
		kind = *candidate.Kind
	case existing != nil:
		kind = existing.Kind
	default:
		return nil, domain.ErrInvalidKind
	}
	if !kind.Valid() {
		return nil, domain.ErrInvalidKind
	}

	// Categories of other owners are reported as absent
	category, err := e.categoryRepo.GetByID(ctx, ownerID, categoryID)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}

	if category.Kind != kind {
		return nil, domain.ErrKindMismatch
	}

	return &ValidatedTransaction{Category: category, Kind: kind}, nil
}

// touchesInvariant reports whether an update changes a field the enforcer guards
func (f TransactionFields) touchesInvariant() bool {
	return f.CategoryID != nil || f.Kind != nil
}
