package domain

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxDescriptionLength = 100
	AmountScale          = 2

	// NUMERIC(14,2) leaves 12 digits before the decimal point
	MaxAmountIntegerDigits = 12
)

type Transaction struct {
	ID          uuid.UUID           `json:"id"`
	OwnerID     uuid.UUID           `json:"ownerId"`
	Amount      decimal.Decimal     `json:"amount"`
	Kind        Kind                `json:"kind"`
	Description string              `json:"description"`
	OccurredAt  time.Time           `json:"occurredAt"`
	CategoryID  uuid.UUID           `json:"categoryId"`
	Category    *CategoryProjection `json:"category,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// TransactionFilter narrows a transaction listing. Nil fields do not filter.
type TransactionFilter struct {
	Kind       *Kind
	CategoryID *uuid.UUID
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int32
	PageSize   int32
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Normalize fills in default pagination values and clamps the page size
func (f *TransactionFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}

// Offset returns the zero-based index of the first item on the page
func (f *TransactionFilter) Offset() int64 {
	return int64(f.Page-1) * int64(f.PageSize)
}

// Matches reports whether t satisfies every set field of the filter
func (f *TransactionFilter) Matches(t *Transaction) bool {
	if f.Kind != nil && t.Kind != *f.Kind {
		return false
	}
	if f.CategoryID != nil && t.CategoryID != *f.CategoryID {
		return false
	}
	return InRange(t.OccurredAt, f.DateFrom, f.DateTo)
}

// InRange reports whether ts lies within the inclusive bounds; nil bounds are open
func InRange(ts time.Time, from, to *time.Time) bool {
	if from != nil && ts.Before(*from) {
		return false
	}
	if to != nil && ts.After(*to) {
		return false
	}
	return true
}

type PaginatedTransactions struct {
	Items     []*Transaction `json:"items"`
	Total     int64          `json:"total"`
	Page      int32          `json:"page"`
	PageSize  int32          `json:"pageSize"`
	PageCount int32          `json:"pageCount"`
}

// PageCount returns ceil(total / pageSize)
func PageCount(total int64, pageSize int32) int32 {
	if pageSize <= 0 {
		return 0
	}
	pages := total / int64(pageSize)
	if total%int64(pageSize) > 0 {
		pages++
	}
	return int32(pages)
}

// ValidateAmount requires a positive amount that fits NUMERIC(14,2) exactly
func ValidateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	// Checked from digits and exponent before any rescale
	digits, exp := amount.NumDigits(), int(amount.Exponent())
	if digits+exp > MaxAmountIntegerDigits {
		return ErrInvalidAmount
	}
	if extra := -exp - AmountScale; extra > 0 && extra >= digits {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(AmountScale)) {
		return ErrInvalidAmount
	}
	return nil
}

// NormalizeDescription trims and validates a transaction description
func NormalizeDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", ErrDescriptionRequired
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return "", ErrDescriptionTooLong
	}
	return description, nil
}

// TransactionRepository persists transactions. Every read joins the live category projection.
type TransactionRepository interface {
	Create(ctx context.Context, transaction *Transaction) (*Transaction, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Transaction, error)
	List(ctx context.Context, ownerID uuid.UUID, filter *TransactionFilter) (*PaginatedTransactions, error)
	ListInRange(ctx context.Context, ownerID uuid.UUID, from, to *time.Time) ([]*Transaction, error)
	Update(ctx context.Context, transaction *Transaction) (*Transaction, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	CountByCategory(ctx context.Context, ownerID, categoryID uuid.UUID) (int64, error)
}
