package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// Every read joins the live category so the projection is never stale
const transactionSelect = `
	SELECT t.id, t.user_id, t.amount, t.kind, t.description, t.occurred_at, t.category_id,
	       t.created_at, t.updated_at, c.name, c.kind, c.color, c.icon`

const transactionJoin = `
	JOIN categories c ON c.id = t.category_id AND c.user_id = t.user_id`

// Ties on occurred_at fall back to insertion order so pages never overlap
const transactionOrder = `
	ORDER BY t.occurred_at DESC, t.seq ASC`

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create inserts a transaction only if its category exists for the owner with the same kind
func (r *TransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		WITH t AS (
			INSERT INTO transactions (user_id, amount, kind, description, occurred_at, category_id)
			SELECT $1::uuid, $2::numeric, $3::text, $4::text, $5::timestamptz, cat.id
			FROM categories cat
			WHERE cat.id = $6 AND cat.user_id = $1 AND cat.kind = $3
			RETURNING *
		)`+transactionSelect+`
		FROM t`+transactionJoin,
		pgUUID(transaction.OwnerID), amount, string(transaction.Kind), transaction.Description,
		transaction.OccurredAt, pgUUID(transaction.CategoryID),
	)
	created, err := scanTransaction(row)
	if err != nil {
		if isNoRows(err) {
			return nil, r.categoryRejection(ctx, transaction.OwnerID, transaction.CategoryID)
		}
		if isPgForeignKeyViolation(err) {
			return nil, domain.ErrCategoryNotFound
		}
		if isPgNumericOutOfRange(err) {
			return nil, domain.ErrInvalidAmount
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a transaction by its ID within an owner's ledger
func (r *TransactionRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, transactionSelect+`
		FROM transactions t`+transactionJoin+`
		WHERE t.id = $1 AND t.user_id = $2`,
		pgUUID(id), pgUUID(ownerID),
	)
	transaction, err := scanTransaction(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// List returns one page of the owner's filtered transactions with the total match count.
// The count and the page are read concurrently.
func (r *TransactionRepository) List(ctx context.Context, ownerID uuid.UUID, filter *domain.TransactionFilter) (*domain.PaginatedTransactions, error) {
	f := domain.TransactionFilter{}
	if filter != nil {
		f = *filter
	}
	f.Normalize()

	where, args := buildTransactionWhere(ownerID, &f)

	var (
		total int64
		items []*domain.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT COUNT(*) FROM transactions t WHERE `+where, args...).Scan(&total)
	})
	g.Go(func() error {
		pageArgs := append(append([]any{}, args...), f.PageSize, f.Offset())
		query := fmt.Sprintf("%s FROM transactions t%s WHERE %s%s LIMIT $%d OFFSET $%d",
			transactionSelect, transactionJoin, where, transactionOrder, len(args)+1, len(args)+2)
		var err error
		items, err = r.query(gctx, query, pageArgs...)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.PaginatedTransactions{
		Items:     items,
		Total:     total,
		Page:      f.Page,
		PageSize:  f.PageSize,
		PageCount: domain.PageCount(total, f.PageSize),
	}, nil
}

// ListInRange returns every transaction of the owner within the inclusive window
func (r *TransactionRepository) ListInRange(ctx context.Context, ownerID uuid.UUID, from, to *time.Time) ([]*domain.Transaction, error) {
	where, args := buildTransactionWhere(ownerID, &domain.TransactionFilter{DateFrom: from, DateTo: to})
	return r.query(ctx, transactionSelect+` FROM transactions t`+transactionJoin+` WHERE `+where+transactionOrder, args...)
}

// Update replaces the mutable fields of a transaction, re-checking the category in the same statement
func (r *TransactionRepository) Update(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		WITH t AS (
			UPDATE transactions
			SET amount = $3, kind = $4, description = $5, occurred_at = $6, category_id = $7, updated_at = NOW()
			WHERE id = $1 AND user_id = $2
			  AND EXISTS (
			      SELECT 1 FROM categories cat
			      WHERE cat.id = $7 AND cat.user_id = $2 AND cat.kind = $4)
			RETURNING *
		)`+transactionSelect+`
		FROM t`+transactionJoin,
		pgUUID(transaction.ID), pgUUID(transaction.OwnerID),
		amount, string(transaction.Kind), transaction.Description, transaction.OccurredAt,
		pgUUID(transaction.CategoryID),
	)
	updated, err := scanTransaction(row)
	if err != nil {
		if isNoRows(err) {
			if _, getErr := r.GetByID(ctx, transaction.OwnerID, transaction.ID); getErr != nil {
				return nil, getErr
			}
			return nil, r.categoryRejection(ctx, transaction.OwnerID, transaction.CategoryID)
		}
		if isPgForeignKeyViolation(err) {
			return nil, domain.ErrCategoryNotFound
		}
		if isPgNumericOutOfRange(err) {
			return nil, domain.ErrInvalidAmount
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a transaction
func (r *TransactionRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, pgUUID(id), pgUUID(ownerID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// CountByCategory counts the owner's transactions referencing a category
func (r *TransactionRepository) CountByCategory(ctx context.Context, ownerID, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM transactions
		WHERE user_id = $1 AND category_id = $2`,
		pgUUID(ownerID), pgUUID(categoryID),
	).Scan(&count)
	return count, err
}

func (r *TransactionRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*domain.Transaction{}
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, transaction)
	}
	return result, rows.Err()
}

// categoryRejection explains why a guarded write matched no category: it is
// missing for the owner, or its kind differs from the transaction's.
func (r *TransactionRepository) categoryRejection(ctx context.Context, ownerID, categoryID uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1 AND user_id = $2)`,
		pgUUID(categoryID), pgUUID(ownerID),
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrCategoryNotFound
	}
	return domain.ErrKindMismatch
}

// buildTransactionWhere renders the filter as a WHERE clause over alias t with positional args
func buildTransactionWhere(ownerID uuid.UUID, filter *domain.TransactionFilter) (string, []any) {
	conditions := []string{"t.user_id = $1"}
	args := []any{pgUUID(ownerID)}

	add := func(condition string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.Kind != nil {
		add("t.kind = $%d", string(*filter.Kind))
	}
	if filter.CategoryID != nil {
		add("t.category_id = $%d", pgUUID(*filter.CategoryID))
	}
	if filter.DateFrom != nil {
		add("t.occurred_at >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("t.occurred_at <= $%d", *filter.DateTo)
	}

	return strings.Join(conditions, " AND "), args
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		id, ownerID, categoryID pgtype.UUID
		amount                  pgtype.Numeric
		kind, categoryKind      string
		t                       domain.Transaction
		projection              domain.CategoryProjection
	)
	err := row.Scan(
		&id, &ownerID, &amount, &kind, &t.Description, &t.OccurredAt, &categoryID,
		&t.CreatedAt, &t.UpdatedAt,
		&projection.Name, &categoryKind, &projection.Color, &projection.Icon,
	)
	if err != nil {
		return nil, err
	}
	t.ID = pgUUIDToUUID(id)
	t.OwnerID = pgUUIDToUUID(ownerID)
	t.CategoryID = pgUUIDToUUID(categoryID)
	t.Amount = pgNumericToDecimal(amount)
	t.Kind = domain.Kind(kind)
	t.OccurredAt = t.OccurredAt.UTC()
	projection.Kind = domain.Kind(categoryKind)
	t.Category = &projection
	return &t, nil
}
