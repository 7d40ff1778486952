package domain

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Kind discriminates income from expense. Categories and transactions share it.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Validation constants
const (
	MaxCategoryNameLength = 30
	MaxCategoryIconLength = 5
	DefaultCategoryColor  = "#3B82F6"
	DefaultCategoryIcon   = "💰"
)

var hexColorPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

type Category struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"ownerId"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CategoryProjection is the read-only view of a category joined onto a transaction.
// It is always loaded at read time and never stored with the transaction.
type CategoryProjection struct {
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Projection returns the display projection of the category
func (c *Category) Projection() *CategoryProjection {
	return &CategoryProjection{
		Name:  c.Name,
		Kind:  c.Kind,
		Color: c.Color,
		Icon:  c.Icon,
	}
}

// NormalizeCategoryName trims and validates a category name
func NormalizeCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	if utf8.RuneCountInString(name) > MaxCategoryNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

// ValidateColor checks for a 3 or 6 digit hex color with a leading '#'
func ValidateColor(color string) error {
	if !hexColorPattern.MatchString(color) {
		return ErrInvalidColor
	}
	return nil
}

// ValidateIcon checks the icon length in characters
func ValidateIcon(icon string) error {
	if utf8.RuneCountInString(icon) > MaxCategoryIconLength {
		return ErrIconTooLong
	}
	return nil
}

type CategoryRepository interface {
	Create(ctx context.Context, category *Category) (*Category, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Category, error)
	GetAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Category, error)
	Update(ctx context.Context, category *Category) (*Category, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
