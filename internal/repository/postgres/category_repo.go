package postgres

import (
	"context"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const categoryColumns = `id, user_id, name, kind, color, icon, created_at, updated_at`

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO categories (user_id, name, kind, color, icon)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+categoryColumns,
		pgUUID(category.OwnerID), category.Name, string(category.Kind), category.Color, category.Icon,
	)
	created, err := scanCategory(row)
	if err != nil {
		// Check for unique constraint violation
		if isPgUniqueViolation(err) {
			return nil, domain.ErrDuplicateCategoryName
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a category by its ID within an owner's ledger
func (r *CategoryRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Category, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE id = $1 AND user_id = $2`,
		pgUUID(id), pgUUID(ownerID),
	)
	category, err := scanCategory(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// GetAllByOwner retrieves all of an owner's categories sorted by kind then name
func (r *CategoryRepository) GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE user_id = $1
		ORDER BY kind, name`,
		pgUUID(ownerID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}

// Update replaces the mutable fields of a category. A kind change only applies while
// no transaction references the category, checked in the same statement.
func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE categories
		SET name = $3, kind = $4, color = $5, icon = $6, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		  AND (kind = $4 OR NOT EXISTS (
		      SELECT 1 FROM transactions t
		      WHERE t.category_id = categories.id AND t.user_id = categories.user_id))
		RETURNING `+categoryColumns,
		pgUUID(category.ID), pgUUID(category.OwnerID),
		category.Name, string(category.Kind), category.Color, category.Icon,
	)
	updated, err := scanCategory(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrDuplicateCategoryName
		}
		if isNoRows(err) {
			if _, getErr := r.GetByID(ctx, category.OwnerID, category.ID); getErr != nil {
				return nil, getErr
			}
			return nil, domain.ErrKindMismatch
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a category. The transactions foreign key rejects the delete while references exist.
func (r *CategoryRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, pgUUID(id), pgUUID(ownerID))
	if err != nil {
		if isPgForeignKeyViolation(err) {
			return domain.ErrCategoryHasReferences
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var (
		id, ownerID pgtype.UUID
		kind        string
		c           domain.Category
	)
	if err := row.Scan(&id, &ownerID, &c.Name, &kind, &c.Color, &c.Icon, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ID = pgUUIDToUUID(id)
	c.OwnerID = pgUUIDToUUID(ownerID)
	c.Kind = domain.Kind(kind)
	return &c, nil
}
