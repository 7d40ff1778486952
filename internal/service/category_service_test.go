package service

import (
	"context"
	"testing"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCategory_Defaults(t *testing.T) {
	f := newLedgerFixture()

	category, err := f.categories.CreateCategory(context.Background(), f.ownerID, CreateCategoryInput{
		Name: "  Groceries  ",
		Kind: domain.KindExpense,
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, category.ID)
	assert.Equal(t, "Groceries", category.Name)
	assert.Equal(t, domain.DefaultCategoryColor, category.Color)
	assert.Equal(t, domain.DefaultCategoryIcon, category.Icon)
	assert.Equal(t, f.ownerID, category.OwnerID)
}

func TestCreateCategory_Validation(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	tests := []struct {
		name    string
		input   CreateCategoryInput
		wantErr error
	}{
		{"blank name", CreateCategoryInput{Name: "   ", Kind: domain.KindExpense}, domain.ErrNameRequired},
		{"name too long", CreateCategoryInput{Name: "abcdefghijklmnopqrstuvwxyz12345", Kind: domain.KindExpense}, domain.ErrNameTooLong},
		{"unknown kind", CreateCategoryInput{Name: "Food", Kind: domain.Kind("transfer")}, domain.ErrInvalidKind},
		{"bad color", CreateCategoryInput{Name: "Food", Kind: domain.KindExpense, Color: strPtr("blue")}, domain.ErrInvalidColor},
		{"missing hash", CreateCategoryInput{Name: "Food", Kind: domain.KindExpense, Color: strPtr("10B981")}, domain.ErrInvalidColor},
		{"icon too long", CreateCategoryInput{Name: "Food", Kind: domain.KindExpense, Icon: strPtr("abcdef")}, domain.ErrIconTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.categories.CreateCategory(ctx, f.ownerID, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	categories, err := f.categories.GetCategories(ctx, f.ownerID)
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestCreateCategory_DuplicateName(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	_, err := f.categories.CreateCategory(ctx, f.ownerID, CreateCategoryInput{Name: "Travel", Kind: domain.KindExpense})
	require.NoError(t, err)

	_, err = f.categories.CreateCategory(ctx, f.ownerID, CreateCategoryInput{Name: "Travel", Kind: domain.KindIncome})
	assert.ErrorIs(t, err, domain.ErrDuplicateCategoryName)
	assert.Equal(t, domain.ErrorKindDuplicateName, domain.ErrorKind(err))

	categories, err := f.categories.GetCategories(ctx, f.ownerID)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestCreateCategory_SameNameDifferentOwners(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	_, err := f.categories.CreateCategory(ctx, f.ownerID, CreateCategoryInput{Name: "Travel", Kind: domain.KindExpense})
	require.NoError(t, err)

	_, err = f.categories.CreateCategory(ctx, uuid.New(), CreateCategoryInput{Name: "Travel", Kind: domain.KindExpense})
	assert.NoError(t, err)
}

func TestGetCategories_SortedByKindThenName(t *testing.T) {
	f := newLedgerFixture()
	f.addCategory(f.ownerID, "Salary", domain.KindIncome)
	f.addCategory(f.ownerID, "Rent", domain.KindExpense)
	f.addCategory(f.ownerID, "Bonus", domain.KindIncome)
	f.addCategory(f.ownerID, "Food", domain.KindExpense)
	f.addCategory(uuid.New(), "Other", domain.KindExpense)

	categories, err := f.categories.GetCategories(context.Background(), f.ownerID)
	require.NoError(t, err)

	var names []string
	for _, c := range categories {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Food", "Rent", "Bonus", "Salary"}, names)
}

func TestGetCategoryByID_OtherOwner(t *testing.T) {
	f := newLedgerFixture()
	other := f.addCategory(uuid.New(), "Food", domain.KindExpense)

	_, err := f.categories.GetCategoryByID(context.Background(), f.ownerID, other.ID)
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestUpdateCategory_Partial(t *testing.T) {
	f := newLedgerFixture()
	food := f.addCategory(f.ownerID, "Food", domain.KindExpense)

	updated, err := f.categories.UpdateCategory(context.Background(), f.ownerID, food.ID, UpdateCategoryInput{
		Color: strPtr("#10B981"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Food", updated.Name)
	assert.Equal(t, domain.KindExpense, updated.Kind)
	assert.Equal(t, "#10B981", updated.Color)
}

func TestUpdateCategory_BlankIconResetsToDefault(t *testing.T) {
	f := newLedgerFixture()
	food := f.addCategory(f.ownerID, "Food", domain.KindExpense)

	updated, err := f.categories.UpdateCategory(context.Background(), f.ownerID, food.ID, UpdateCategoryInput{
		Icon: strPtr("🍔"),
	})
	require.NoError(t, err)
	assert.Equal(t, "🍔", updated.Icon)

	updated, err = f.categories.UpdateCategory(context.Background(), f.ownerID, food.ID, UpdateCategoryInput{
		Icon: strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategoryIcon, updated.Icon)
}

func TestUpdateCategory_RenameToExistingName(t *testing.T) {
	f := newLedgerFixture()
	f.addCategory(f.ownerID, "Food", domain.KindExpense)
	rent := f.addCategory(f.ownerID, "Rent", domain.KindExpense)

	_, err := f.categories.UpdateCategory(context.Background(), f.ownerID, rent.ID, UpdateCategoryInput{
		Name: strPtr("Food"),
	})

	assert.ErrorIs(t, err, domain.ErrDuplicateCategoryName)
}

func TestUpdateCategory_KindChange(t *testing.T) {
	t.Run("allowed without transactions", func(t *testing.T) {
		f := newLedgerFixture()
		misc := f.addCategory(f.ownerID, "Misc", domain.KindExpense)

		updated, err := f.categories.UpdateCategory(context.Background(), f.ownerID, misc.ID, UpdateCategoryInput{
			Kind: kindPtr(domain.KindIncome),
		})

		require.NoError(t, err)
		assert.Equal(t, domain.KindIncome, updated.Kind)
	})

	t.Run("rejected while transactions reference it", func(t *testing.T) {
		f := newLedgerFixture()
		food := f.addCategory(f.ownerID, "Food", domain.KindExpense)
		f.addTransaction(food, "20.00", day(2025, 3, 1))

		_, err := f.categories.UpdateCategory(context.Background(), f.ownerID, food.ID, UpdateCategoryInput{
			Kind: kindPtr(domain.KindIncome),
		})

		assert.ErrorIs(t, err, domain.ErrKindMismatch)
		stored, err := f.categories.GetCategoryByID(context.Background(), f.ownerID, food.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.KindExpense, stored.Kind)
	})
}

func TestDeleteCategory_Unreferenced(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	travel := f.addCategory(f.ownerID, "Travel", domain.KindExpense)

	require.NoError(t, f.categories.DeleteCategory(ctx, f.ownerID, travel.ID))

	_, err := f.categories.GetCategoryByID(ctx, f.ownerID, travel.ID)
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestDeleteCategory_BlockedByTransactions(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	food := f.addCategory(f.ownerID, "Food", domain.KindExpense)
	f.addTransaction(food, "8.40", day(2025, 2, 10))

	err := f.categories.DeleteCategory(ctx, f.ownerID, food.ID)
	assert.ErrorIs(t, err, domain.ErrCategoryHasReferences)
	assert.Equal(t, domain.ErrorKindHasReferences, domain.ErrorKind(err))

	categories, err := f.categories.GetCategories(ctx, f.ownerID)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Food", categories[0].Name)
}

func TestDeleteCategory_ReferenceAddedAfterCount(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	food := f.addCategory(f.ownerID, "Food", domain.KindExpense)

	// A transaction lands between the reference check and the delete
	f.transactionRepo.CountByCategoryFn = func(ownerID, categoryID uuid.UUID) (int64, error) {
		f.addTransaction(food, "3.00", day(2025, 2, 11))
		return 0, nil
	}

	err := f.categories.DeleteCategory(ctx, f.ownerID, food.ID)
	assert.ErrorIs(t, err, domain.ErrCategoryHasReferences)

	_, err = f.categories.GetCategoryByID(ctx, f.ownerID, food.ID)
	assert.NoError(t, err)
}

func TestDeleteCategory_NotFound(t *testing.T) {
	f := newLedgerFixture()

	err := f.categories.DeleteCategory(context.Background(), f.ownerID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestCanDelete(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	food := f.addCategory(f.ownerID, "Food", domain.KindExpense)
	travel := f.addCategory(f.ownerID, "Travel", domain.KindExpense)
	f.addTransaction(food, "1.00", day(2025, 1, 1))
	f.addTransaction(food, "2.00", day(2025, 1, 2))

	resp, err := f.categories.CanDelete(ctx, f.ownerID, food.ID)
	require.NoError(t, err)
	assert.True(t, resp.HasTransactions)
	assert.Equal(t, int64(2), resp.TransactionCount)

	resp, err = f.categories.CanDelete(ctx, f.ownerID, travel.ID)
	require.NoError(t, err)
	assert.False(t, resp.HasTransactions)
	assert.Zero(t, resp.TransactionCount)
}
