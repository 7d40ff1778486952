package service

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportTransactions_UploadsCSV(t *testing.T) {
	f := newLedgerFixture()
	storage := testutil.NewMockExportStorage()
	svc := NewExportService(f.transactionRepo, storage)

	food := f.addCategory(f.ownerID, "Food", domain.KindExpense)
	salary := f.addCategory(f.ownerID, "Salary", domain.KindIncome)
	f.addTransaction(food, "12.5", day(2025, 1, 10))
	f.addTransaction(salary, "3000", day(2025, 1, 31))

	result, err := svc.ExportTransactions(context.Background(), f.ownerID, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TransactionCount)
	assert.True(t, strings.HasPrefix(result.Key, "exports/"+f.ownerID.String()+"/"))
	assert.True(t, strings.HasSuffix(result.Key, ".csv"))
	assert.Contains(t, result.URL, "https://exports.test/")
	assert.Equal(t, "text/csv", storage.ContentTypes[result.Key])

	rows, err := csv.NewReader(strings.NewReader(string(storage.Objects[result.Key]))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"occurred_at", "kind", "category", "description", "amount"}, rows[0])
	assert.Equal(t, []string{"2025-01-31T12:00:00Z", "income", "Salary", "Salary", "3000.00"}, rows[1])
	assert.Equal(t, []string{"2025-01-10T12:00:00Z", "expense", "Food", "Food", "12.50"}, rows[2])
}

func TestExportTransactions_Window(t *testing.T) {
	f := newLedgerFixture()
	storage := testutil.NewMockExportStorage()
	svc := NewExportService(f.transactionRepo, storage)

	food := f.addCategory(f.ownerID, "Food", domain.KindExpense)
	f.addTransaction(food, "1.00", day(2025, 1, 10))
	f.addTransaction(food, "2.00", day(2025, 3, 10))

	from, to := day(2025, 3, 1), day(2025, 3, 31)
	result, err := svc.ExportTransactions(context.Background(), f.ownerID, &from, &to)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TransactionCount)

	_, err = svc.ExportTransactions(context.Background(), f.ownerID, &to, &from)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestExportTransactions_UploadFailure(t *testing.T) {
	f := newLedgerFixture()
	storage := testutil.NewMockExportStorage()
	storage.UploadFn = func(key string, data []byte) error {
		return errors.New("bucket unavailable")
	}
	svc := NewExportService(f.transactionRepo, storage)

	_, err := svc.ExportTransactions(context.Background(), f.ownerID, nil, nil)

	require.Error(t, err)
	assert.Empty(t, storage.Objects)
}

func TestRenderCSV_QuotesFields(t *testing.T) {
	transactions := []*domain.Transaction{{
		Amount:      dec("4.00"),
		Kind:        domain.KindExpense,
		Description: `Coffee, "large"`,
		OccurredAt:  day(2025, 1, 1),
		Category:    &domain.CategoryProjection{Name: "Food"},
	}}

	data, err := RenderCSV(transactions)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"Coffee, ""large"""`)
}

func TestRenderCSV_NeutralizesFormulas(t *testing.T) {
	transactions := []*domain.Transaction{{
		Amount:      dec("10.00"),
		Kind:        domain.KindExpense,
		Description: `=HYPERLINK("http://evil.test","x")`,
		OccurredAt:  day(2025, 1, 1),
		Category:    &domain.CategoryProjection{Name: "@Misc"},
	}, {
		Amount:      dec("3.00"),
		Kind:        domain.KindExpense,
		Description: "-5 discount",
		OccurredAt:  day(2025, 1, 2),
		Category:    &domain.CategoryProjection{Name: "Food"},
	}}

	data, err := RenderCSV(transactions)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "'@Misc", records[1][2])
	assert.Equal(t, `'=HYPERLINK("http://evil.test","x")`, records[1][3])
	assert.Equal(t, "Food", records[2][2])
	assert.Equal(t, "'-5 discount", records[2][3])
	assert.Equal(t, "10.00", records[1][4])
}
