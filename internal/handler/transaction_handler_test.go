package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTransaction_Success(t *testing.T) {
	f := newHandlerFixture()
	salary := f.addCategory("Salary", domain.KindIncome)

	body := fmt.Sprintf(`{"amount":"5000","kind":"income","description":" January pay ","occurredAt":"2025-01-31","categoryId":%q}`, salary.ID)
	rec := f.do(t, f.transactions.CreateTransaction, http.MethodPost, "/api/v1/transactions", body, "")

	require.Equal(t, http.StatusCreated, rec.Code)
	var response TransactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "5000.00", response.Amount)
	assert.Equal(t, "income", response.Kind)
	assert.Equal(t, "January pay", response.Description)
	assert.Equal(t, "2025-01-31T00:00:00Z", response.OccurredAt)
	assert.Equal(t, salary.ID.String(), response.CategoryID)
	require.NotNil(t, response.Category)
	assert.Equal(t, "Salary", response.Category.Name)
	assert.Equal(t, domain.DefaultCategoryColor, response.Category.Color)
}

func TestCreateTransaction_KindMismatch(t *testing.T) {
	f := newHandlerFixture()
	food := f.addCategory("Food", domain.KindExpense)

	body := fmt.Sprintf(`{"amount":"10","kind":"income","description":"Refund","categoryId":%q}`, food.ID)
	rec := f.do(t, f.transactions.CreateTransaction, http.MethodPost, "/api/v1/transactions", body, "")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, domain.ErrorKindTypeMismatch, decodeProblem(t, rec).Kind)
	assert.Equal(t, 0, f.transactionRepo.Count())
}

func TestCreateTransaction_Rejections(t *testing.T) {
	f := newHandlerFixture()
	food := f.addCategory("Food", domain.KindExpense)
	foreign := f.categoryRepo.AddCategory(&domain.Category{OwnerID: uuid.New(), Name: "Food", Kind: domain.KindExpense})

	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"non-numeric amount", fmt.Sprintf(`{"amount":"ten","kind":"expense","description":"x","categoryId":%q}`, food.ID), http.StatusBadRequest, "amount"},
		{"zero amount", fmt.Sprintf(`{"amount":"0","kind":"expense","description":"x","categoryId":%q}`, food.ID), http.StatusBadRequest, "amount"},
		{"three decimals", fmt.Sprintf(`{"amount":"1.005","kind":"expense","description":"x","categoryId":%q}`, food.ID), http.StatusBadRequest, "amount"},
		{"amount beyond column precision", fmt.Sprintf(`{"amount":"1000000000000","kind":"expense","description":"x","categoryId":%q}`, food.ID), http.StatusBadRequest, "amount"},
		{"huge exponent amount", fmt.Sprintf(`{"amount":"1e5000000","kind":"expense","description":"x","categoryId":%q}`, food.ID), http.StatusBadRequest, "amount"},
		{"blank description", fmt.Sprintf(`{"amount":"1","kind":"expense","description":"  ","categoryId":%q}`, food.ID), http.StatusBadRequest, "description"},
		{"bad kind", fmt.Sprintf(`{"amount":"1","kind":"gift","description":"x","categoryId":%q}`, food.ID), http.StatusBadRequest, "kind"},
		{"bad category id", `{"amount":"1","kind":"expense","description":"x","categoryId":"nope"}`, http.StatusBadRequest, "categoryId"},
		{"bad date", fmt.Sprintf(`{"amount":"1","kind":"expense","description":"x","occurredAt":"31/01/2025","categoryId":%q}`, food.ID), http.StatusBadRequest, "occurredAt"},
		{"missing category", fmt.Sprintf(`{"amount":"1","kind":"expense","description":"x","categoryId":%q}`, uuid.New()), http.StatusNotFound, ""},
		{"other owner's category", fmt.Sprintf(`{"amount":"1","kind":"expense","description":"x","categoryId":%q}`, foreign.ID), http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, f.transactions.CreateTransaction, http.MethodPost, "/api/v1/transactions", tt.body, "")

			require.Equal(t, tt.status, rec.Code)
			if tt.field != "" {
				problem := decodeProblem(t, rec)
				require.Len(t, problem.Errors, 1)
				assert.Equal(t, tt.field, problem.Errors[0].Field)
			}
		})
	}
	assert.Equal(t, 0, f.transactionRepo.Count())
}

func TestGetTransactions_FiltersAndPagination(t *testing.T) {
	f := newHandlerFixture()
	food := f.addCategory("Food", domain.KindExpense)
	salary := f.addCategory("Salary", domain.KindIncome)
	for d := 1; d <= 12; d++ {
		f.addTransaction(food, "10", time.Date(2025, 3, d, 9, 0, 0, 0, time.UTC))
	}
	f.addTransaction(salary, "3000", time.Date(2025, 3, 31, 9, 0, 0, 0, time.UTC))

	decode := func(t *testing.T, target string) PaginatedTransactionsResponse {
		rec := f.do(t, f.transactions.GetTransactions, http.MethodGet, target, "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var page PaginatedTransactionsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		return page
	}

	t.Run("defaults to first page of ten, newest first", func(t *testing.T) {
		page := decode(t, "/api/v1/transactions")
		assert.Equal(t, int64(13), page.Total)
		assert.Equal(t, int32(1), page.Page)
		assert.Equal(t, int32(domain.DefaultPageSize), page.PageSize)
		assert.Equal(t, int32(2), page.PageCount)
		require.Len(t, page.Items, 10)
		assert.Equal(t, "Salary", page.Items[0].Description)
	})

	t.Run("kind filter", func(t *testing.T) {
		page := decode(t, "/api/v1/transactions?kind=income")
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("category filter", func(t *testing.T) {
		page := decode(t, "/api/v1/transactions?categoryId="+food.ID.String()+"&pageSize=5&page=3")
		assert.Equal(t, int64(12), page.Total)
		assert.Equal(t, int32(3), page.PageCount)
		assert.Len(t, page.Items, 2)
	})

	t.Run("date-only dateTo includes the whole day", func(t *testing.T) {
		page := decode(t, "/api/v1/transactions?dateFrom=2025-03-10&dateTo=2025-03-12")
		assert.Equal(t, int64(3), page.Total)
	})

	t.Run("page size is clamped", func(t *testing.T) {
		page := decode(t, "/api/v1/transactions?pageSize=1000")
		assert.Equal(t, int32(domain.MaxPageSize), page.PageSize)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		page := decode(t, "/api/v1/transactions?page=9")
		assert.Empty(t, page.Items)
		assert.Equal(t, int64(13), page.Total)
	})
}

func TestGetTransactions_InvalidQuery(t *testing.T) {
	f := newHandlerFixture()

	for _, target := range []string{
		"/api/v1/transactions?kind=gift",
		"/api/v1/transactions?categoryId=nope",
		"/api/v1/transactions?dateFrom=yesterday",
		"/api/v1/transactions?page=0",
		"/api/v1/transactions?pageSize=-1",
		"/api/v1/transactions?dateFrom=2025-02-01&dateTo=2025-01-01",
	} {
		t.Run(target, func(t *testing.T) {
			rec := f.do(t, f.transactions.GetTransactions, http.MethodGet, target, "", "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateTransaction(t *testing.T) {
	f := newHandlerFixture()
	food := f.addCategory("Food", domain.KindExpense)
	rent := f.addCategory("Rent", domain.KindExpense)
	salary := f.addCategory("Salary", domain.KindIncome)
	tx := f.addTransaction(food, "20", time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC))
	id := tx.ID.String()

	t.Run("amount only", func(t *testing.T) {
		rec := f.do(t, f.transactions.UpdateTransaction, http.MethodPut, "/api/v1/transactions/"+id, `{"amount":"25.5"}`, id)
		require.Equal(t, http.StatusOK, rec.Code)
		var response TransactionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "25.50", response.Amount)
		assert.Equal(t, "Food", response.Category.Name)
	})

	t.Run("move to same-kind category", func(t *testing.T) {
		body := fmt.Sprintf(`{"categoryId":%q}`, rent.ID)
		rec := f.do(t, f.transactions.UpdateTransaction, http.MethodPut, "/api/v1/transactions/"+id, body, id)
		require.Equal(t, http.StatusOK, rec.Code)
		var response TransactionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "Rent", response.Category.Name)
	})

	t.Run("move to other-kind category without kind", func(t *testing.T) {
		body := fmt.Sprintf(`{"categoryId":%q}`, salary.ID)
		rec := f.do(t, f.transactions.UpdateTransaction, http.MethodPut, "/api/v1/transactions/"+id, body, id)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("move with matching kind", func(t *testing.T) {
		body := fmt.Sprintf(`{"categoryId":%q,"kind":"income"}`, salary.ID)
		rec := f.do(t, f.transactions.UpdateTransaction, http.MethodPut, "/api/v1/transactions/"+id, body, id)
		require.Equal(t, http.StatusOK, rec.Code)
		var response TransactionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "income", response.Kind)
	})

	t.Run("blank occurredAt keeps the date", func(t *testing.T) {
		rec := f.do(t, f.transactions.UpdateTransaction, http.MethodPut, "/api/v1/transactions/"+id, `{"occurredAt":""}`, id)
		require.Equal(t, http.StatusOK, rec.Code)
		var response TransactionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, "2025-04-02T08:00:00Z", response.OccurredAt)
	})

	t.Run("oversized amount", func(t *testing.T) {
		rec := f.do(t, f.transactions.UpdateTransaction, http.MethodPut, "/api/v1/transactions/"+id, `{"amount":"1e14"}`, id)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		problem := decodeProblem(t, rec)
		require.Len(t, problem.Errors, 1)
		assert.Equal(t, "amount", problem.Errors[0].Field)
	})

	t.Run("missing transaction", func(t *testing.T) {
		other := uuid.New().String()
		rec := f.do(t, f.transactions.UpdateTransaction, http.MethodPut, "/api/v1/transactions/"+other, `{"amount":"1"}`, other)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetAndDeleteTransaction(t *testing.T) {
	f := newHandlerFixture()
	food := f.addCategory("Food", domain.KindExpense)
	tx := f.addTransaction(food, "20", time.Now())
	id := tx.ID.String()

	rec := f.do(t, f.transactions.GetTransaction, http.MethodGet, "/api/v1/transactions/"+id, "", id)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, f.transactions.DeleteTransaction, http.MethodDelete, "/api/v1/transactions/"+id, "", id)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, f.transactions.GetTransaction, http.MethodGet, "/api/v1/transactions/"+id, "", id)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, f.transactions.DeleteTransaction, http.MethodDelete, "/api/v1/transactions/"+id, "", id)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSummary(t *testing.T) {
	f := newHandlerFixture()
	salary := f.addCategory("Salary", domain.KindIncome)
	food := f.addCategory("Food", domain.KindExpense)
	rent := f.addCategory("Rent", domain.KindExpense)
	f.addTransaction(salary, "5000", time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC))
	f.addTransaction(food, "120.40", time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC))
	f.addTransaction(food, "79.60", time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC))
	f.addTransaction(rent, "1500", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	f.addTransaction(rent, "1500", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	rec := f.do(t, f.transactions.GetSummary, http.MethodGet, "/api/v1/transactions/summary?dateFrom=2025-01-01&dateTo=2025-01-31", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var summary SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "5000.00", summary.TotalIncome)
	assert.Equal(t, "1700.00", summary.TotalExpenses)
	assert.Equal(t, "3300.00", summary.Balance)
	assert.Equal(t, 4, summary.TransactionCount)
	require.Contains(t, summary.CategoryBreakdown, "Food")
	assert.Equal(t, "200.00", summary.CategoryBreakdown["Food"].Amount)
	assert.Equal(t, "expense", summary.CategoryBreakdown["Food"].Kind)
}

func TestGetSummary_Empty(t *testing.T) {
	f := newHandlerFixture()

	rec := f.do(t, f.transactions.GetSummary, http.MethodGet, "/api/v1/transactions/summary", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var summary SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "0.00", summary.Balance)
	assert.Empty(t, summary.CategoryBreakdown)
	assert.Equal(t, 0, summary.TransactionCount)
}

func TestExportTransactions(t *testing.T) {
	f := newHandlerFixture()
	food := f.addCategory("Food", domain.KindExpense)
	f.addTransaction(food, "12.5", time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC))

	rec := f.do(t, f.transactions.ExportTransactions, http.MethodPost, "/api/v1/transactions/export?dateFrom=2025-01-01", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var response ExportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 1, response.TransactionCount)
	assert.True(t, strings.HasPrefix(response.Key, "exports/"+f.ownerID.String()+"/"))
	assert.Contains(t, response.URL, "https://exports.test/")
	assert.Contains(t, string(f.storage.Objects[response.Key]), `"12.50"`)
}

func TestExportTransactions_Disabled(t *testing.T) {
	f := newHandlerFixture()
	f.transactions = NewTransactionHandler(
		service.NewTransactionService(f.transactionRepo, service.NewConsistencyEnforcer(f.categoryRepo)),
		service.NewSummaryService(f.transactionRepo),
		nil,
	)

	rec := f.do(t, f.transactions.ExportTransactions, http.MethodPost, "/api/v1/transactions/export", "", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestExportTransactions_UploadFailure(t *testing.T) {
	f := newHandlerFixture()
	f.storage.UploadFn = func(key string, data []byte) error {
		return errors.New("bucket unavailable")
	}

	rec := f.do(t, f.transactions.ExportTransactions, http.MethodPost, "/api/v1/transactions/export", "", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "bucket unavailable")
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in       string
		endOfDay bool
		want     time.Time
	}{
		{"2025-01-31", false, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)},
		{"2025-01-31", true, time.Date(2025, 1, 31, 23, 59, 59, 999999999, time.UTC)},
		{"2025-01-31T10:00:00+02:00", true, time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseDate(tt.in, tt.endOfDay)
		require.NoError(t, err)
		assert.True(t, tt.want.Equal(got), "parseDate(%q, %v) = %v", tt.in, tt.endOfDay, got)
	}

	_, err := parseDate("Jan 31", false)
	assert.Error(t, err)
}

func TestGetSummary_MonthShorthand(t *testing.T) {
	f := newHandlerFixture()
	food := f.addCategory("Food", domain.KindExpense)
	f.addTransaction(food, "10", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	f.addTransaction(food, "20", time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC))
	f.addTransaction(food, "40", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	rec := f.do(t, f.transactions.GetSummary, http.MethodGet, "/api/v1/transactions/summary?month=2024-02", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var summary SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "30.00", summary.TotalExpenses)
	assert.Equal(t, 2, summary.TransactionCount)

	for _, target := range []string{
		"/api/v1/transactions/summary?month=2024-2",
		"/api/v1/transactions/summary?month=2024-02&dateFrom=2024-02-01",
	} {
		rec := f.do(t, f.transactions.GetSummary, http.MethodGet, target, "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}
