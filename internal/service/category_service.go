package service

import (
	"context"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CategoryService handles category business logic
type CategoryService struct {
	categoryRepo    domain.CategoryRepository
	transactionRepo domain.TransactionRepository
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository, transactionRepo domain.TransactionRepository) *CategoryService {
	return &CategoryService{
		categoryRepo:    categoryRepo,
		transactionRepo: transactionRepo,
	}
}

// CreateCategoryInput holds the input for creating a category
type CreateCategoryInput struct {
	Name  string
	Kind  domain.Kind
	Color *string
	Icon  *string
}

// UpdateCategoryInput holds a partial category update. Nil fields are left unchanged.
type UpdateCategoryInput struct {
	Name  *string
	Kind  *domain.Kind
	Color *string
	Icon  *string
}

// CreateCategory creates a new category for the owner
func (s *CategoryService) CreateCategory(ctx context.Context, ownerID uuid.UUID, input CreateCategoryInput) (*domain.Category, error) {
	name, err := domain.NormalizeCategoryName(input.Name)
	if err != nil {
		return nil, err
	}
	if !input.Kind.Valid() {
		return nil, domain.ErrInvalidKind
	}

	color := domain.DefaultCategoryColor
	if input.Color != nil {
		if err := domain.ValidateColor(*input.Color); err != nil {
			return nil, err
		}
		color = *input.Color
	}

	icon := domain.DefaultCategoryIcon
	if input.Icon != nil && *input.Icon != "" {
		if err := domain.ValidateIcon(*input.Icon); err != nil {
			return nil, err
		}
		icon = *input.Icon
	}

	category := &domain.Category{
		OwnerID: ownerID,
		Name:    name,
		Kind:    input.Kind,
		Color:   color,
		Icon:    icon,
	}

	// The (owner, name) unique index decides duplicates, including concurrent ones
	return s.categoryRepo.Create(ctx, category)
}

// GetCategories lists the owner's categories sorted by kind then name
func (s *CategoryService) GetCategories(ctx context.Context, ownerID uuid.UUID) ([]*domain.Category, error) {
	return s.categoryRepo.GetAllByOwner(ctx, ownerID)
}

// GetCategoryByID retrieves one of the owner's categories
func (s *CategoryService) GetCategoryByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Category, error) {
	return s.categoryRepo.GetByID(ctx, ownerID, id)
}

// UpdateCategory applies a partial update to a category
func (s *CategoryService) UpdateCategory(ctx context.Context, ownerID, id uuid.UUID, input UpdateCategoryInput) (*domain.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := domain.NormalizeCategoryName(*input.Name)
		if err != nil {
			return nil, err
		}
		category.Name = name
	}

	if input.Kind != nil && *input.Kind != category.Kind {
		if !input.Kind.Valid() {
			return nil, domain.ErrInvalidKind
		}
		// Linked transactions must keep matching their category's kind
		count, err := s.transactionRepo.CountByCategory(ctx, ownerID, id)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, domain.ErrKindMismatch
		}
		category.Kind = *input.Kind
	}

	if input.Color != nil {
		if err := domain.ValidateColor(*input.Color); err != nil {
			return nil, err
		}
		category.Color = *input.Color
	}

	if input.Icon != nil {
		if *input.Icon == "" {
			category.Icon = domain.DefaultCategoryIcon
		} else {
			if err := domain.ValidateIcon(*input.Icon); err != nil {
				return nil, err
			}
			category.Icon = *input.Icon
		}
	}

	return s.categoryRepo.Update(ctx, category)
}

// DeleteCategory deletes a category that no transaction references
func (s *CategoryService) DeleteCategory(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.categoryRepo.GetByID(ctx, ownerID, id); err != nil {
		return err
	}

	count, err := s.transactionRepo.CountByCategory(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Debug().Str("owner_id", ownerID.String()).Str("category_id", id.String()).Int64("references", count).Msg("Category delete blocked")
		return domain.ErrCategoryHasReferences
	}

	// The foreign key still rejects a transaction created between the count and the delete
	return s.categoryRepo.Delete(ctx, ownerID, id)
}

// CanDeleteResponse contains information about whether a category can be safely deleted
type CanDeleteResponse struct {
	HasTransactions  bool  `json:"hasTransactions"`
	TransactionCount int64 `json:"transactionCount"`
}

// CanDelete reports how many transactions reference a category
func (s *CategoryService) CanDelete(ctx context.Context, ownerID, id uuid.UUID) (*CanDeleteResponse, error) {
	if _, err := s.categoryRepo.GetByID(ctx, ownerID, id); err != nil {
		return nil, err
	}

	count, err := s.transactionRepo.CountByCategory(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	return &CanDeleteResponse{
		HasTransactions:  count > 0,
		TransactionCount: count,
	}, nil
}
