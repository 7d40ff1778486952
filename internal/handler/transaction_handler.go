package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/middleware"
	"github.com/dafibh/ledger/ledger-backend/internal/service"
	"github.com/dafibh/ledger/ledger-backend/internal/util"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const dateOnlyLayout = "2006-01-02"

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
	summaryService     *service.SummaryService
	exportService      *service.ExportService
}

// NewTransactionHandler creates a new TransactionHandler. exportService may be nil when
// export storage is not configured.
func NewTransactionHandler(transactionService *service.TransactionService, summaryService *service.SummaryService, exportService *service.ExportService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		summaryService:     summaryService,
		exportService:      exportService,
	}
}

// CreateTransactionRequest represents the create transaction request body
type CreateTransactionRequest struct {
	Amount      string  `json:"amount"`
	Kind        string  `json:"kind"`
	Description string  `json:"description"`
	OccurredAt  *string `json:"occurredAt,omitempty"`
	CategoryID  string  `json:"categoryId"`
}

// UpdateTransactionRequest represents the update transaction request body. Omitted fields are unchanged.
type UpdateTransactionRequest struct {
	Amount      *string `json:"amount,omitempty"`
	Kind        *string `json:"kind,omitempty"`
	Description *string `json:"description,omitempty"`
	OccurredAt  *string `json:"occurredAt,omitempty"`
	CategoryID  *string `json:"categoryId,omitempty"`
}

// TransactionCategoryResponse is the category joined onto a transaction at read time
type TransactionCategoryResponse struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID          string                       `json:"id"`
	Amount      string                       `json:"amount"`
	Kind        string                       `json:"kind"`
	Description string                       `json:"description"`
	OccurredAt  string                       `json:"occurredAt"`
	CategoryID  string                       `json:"categoryId"`
	Category    *TransactionCategoryResponse `json:"category,omitempty"`
	CreatedAt   string                       `json:"createdAt"`
	UpdatedAt   string                       `json:"updatedAt"`
}

// PaginatedTransactionsResponse represents one page of transactions
type PaginatedTransactionsResponse struct {
	Items     []TransactionResponse `json:"items"`
	Total     int64                 `json:"total"`
	Page      int32                 `json:"page"`
	PageSize  int32                 `json:"pageSize"`
	PageCount int32                 `json:"pageCount"`
}

// CategoryTotalResponse is one entry of the summary breakdown
type CategoryTotalResponse struct {
	Amount string `json:"amount"`
	Kind   string `json:"kind"`
	Color  string `json:"color"`
}

// SummaryResponse represents aggregated totals over a date window
type SummaryResponse struct {
	TotalIncome       string                           `json:"totalIncome"`
	TotalExpenses     string                           `json:"totalExpenses"`
	Balance           string                           `json:"balance"`
	CategoryBreakdown map[string]CategoryTotalResponse `json:"categoryBreakdown"`
	TransactionCount  int                              `json:"transactionCount"`
}

// ExportResponse points at an uploaded CSV export
type ExportResponse struct {
	Key              string `json:"key"`
	URL              string `json:"url"`
	ExpiresAt        string `json:"expiresAt"`
	TransactionCount int    `json:"transactionCount"`
}

// CreateTransaction godoc
// @Summary Create a transaction
// @Description Create a new income or expense transaction. The kind must match the category's kind.
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTransactionRequest true "Transaction creation request"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Router /transactions [post]
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category ID must be a valid UUID"},
		})
	}

	var occurredAt *time.Time
	if req.OccurredAt != nil && *req.OccurredAt != "" {
		parsed, err := parseDate(*req.OccurredAt, false)
		if err != nil {
			return NewValidationError(c, "Invalid occurredAt", []ValidationError{
				{Field: "occurredAt", Message: "Must be RFC3339 or YYYY-MM-DD"},
			})
		}
		occurredAt = &parsed
	}

	transaction, err := h.transactionService.CreateTransaction(c.Request().Context(), ownerID, service.CreateTransactionInput{
		Amount:      amount,
		Kind:        domain.Kind(req.Kind),
		Description: req.Description,
		OccurredAt:  occurredAt,
		CategoryID:  categoryID,
	})
	if err != nil {
		return respondError(c, err, ownerID, "create transaction")
	}

	log.Info().Str("owner_id", ownerID.String()).Str("transaction_id", transaction.ID.String()).Str("amount", transaction.Amount.StringFixed(2)).Msg("Transaction created")

	return c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// GetTransactions godoc
// @Summary List transactions
// @Description List the caller's transactions, newest first, with optional filters and pagination
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param kind query string false "Filter by kind (income or expense)"
// @Param categoryId query string false "Filter by category ID"
// @Param dateFrom query string false "Inclusive lower bound (RFC3339 or YYYY-MM-DD)"
// @Param dateTo query string false "Inclusive upper bound (RFC3339 or YYYY-MM-DD)"
// @Param month query string false "Calendar month YYYY-MM, instead of dateFrom/dateTo"
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 10, max 100)"
// @Success 200 {object} PaginatedTransactionsResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /transactions [get]
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	filter := &domain.TransactionFilter{
		Page:     1,
		PageSize: domain.DefaultPageSize,
	}

	if kindStr := c.QueryParam("kind"); kindStr != "" {
		kind := domain.Kind(kindStr)
		if !kind.Valid() {
			return NewValidationError(c, "Invalid kind (must be 'income' or 'expense')", nil)
		}
		filter.Kind = &kind
	}

	if categoryStr := c.QueryParam("categoryId"); categoryStr != "" {
		categoryID, err := uuid.Parse(categoryStr)
		if err != nil {
			return NewValidationError(c, "Invalid categoryId", nil)
		}
		filter.CategoryID = &categoryID
	}

	dateFrom, dateTo, err := parseDateWindow(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	filter.DateFrom, filter.DateTo = dateFrom, dateTo

	if pageStr := c.QueryParam("page"); pageStr != "" {
		var page int32
		if _, err := parseIntParam(pageStr, &page); err != nil || page < 1 {
			return NewValidationError(c, "Invalid page (must be positive integer)", nil)
		}
		filter.Page = page
	}

	if pageSizeStr := c.QueryParam("pageSize"); pageSizeStr != "" {
		var pageSize int32
		if _, err := parseIntParam(pageSizeStr, &pageSize); err != nil || pageSize < 1 {
			return NewValidationError(c, "Invalid pageSize (must be positive integer)", nil)
		}
		if pageSize > domain.MaxPageSize {
			pageSize = domain.MaxPageSize
		}
		filter.PageSize = pageSize
	}

	result, err := h.transactionService.GetTransactions(c.Request().Context(), ownerID, filter)
	if err != nil {
		return respondError(c, err, ownerID, "get transactions")
	}

	items := make([]TransactionResponse, len(result.Items))
	for i, transaction := range result.Items {
		items[i] = toTransactionResponse(transaction)
	}

	return c.JSON(http.StatusOK, PaginatedTransactionsResponse{
		Items:     items,
		Total:     result.Total,
		Page:      result.Page,
		PageSize:  result.PageSize,
		PageCount: result.PageCount,
	})
}

// GetTransaction handles GET /api/v1/transactions/:id
// @Summary Get a transaction
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	transaction, err := h.transactionService.GetTransactionByID(c.Request().Context(), ownerID, id)
	if err != nil {
		return respondError(c, err, ownerID, "get transaction")
	}

	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// UpdateTransaction handles PUT /api/v1/transactions/:id
// @Summary Update a transaction
// @Description Partially update a transaction. Kind and category changes are checked against the category.
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Param request body UpdateTransactionRequest true "Transaction update request"
// @Success 200 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Router /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	var req UpdateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	var input service.UpdateTransactionInput
	input.Description = req.Description

	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return NewValidationError(c, "Invalid amount", []ValidationError{
				{Field: "amount", Message: "Must be a valid decimal number"},
			})
		}
		input.Amount = &amount
	}

	if req.Kind != nil {
		kind := domain.Kind(*req.Kind)
		input.Kind = &kind
	}

	if req.CategoryID != nil {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "categoryId", Message: "Category ID must be a valid UUID"},
			})
		}
		input.CategoryID = &categoryID
	}

	// A blank occurredAt counts as omitted, same as on create
	if req.OccurredAt != nil && *req.OccurredAt != "" {
		parsed, err := parseDate(*req.OccurredAt, false)
		if err != nil {
			return NewValidationError(c, "Invalid occurredAt", []ValidationError{
				{Field: "occurredAt", Message: "Must be RFC3339 or YYYY-MM-DD"},
			})
		}
		input.OccurredAt = &parsed
	}

	transaction, err := h.transactionService.UpdateTransaction(c.Request().Context(), ownerID, id, input)
	if err != nil {
		return respondError(c, err, ownerID, "update transaction")
	}

	log.Info().Str("owner_id", ownerID.String()).Str("transaction_id", transaction.ID.String()).Msg("Transaction updated")

	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// DeleteTransaction handles DELETE /api/v1/transactions/:id
// @Summary Delete a transaction
// @Tags transactions
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if err := h.transactionService.DeleteTransaction(c.Request().Context(), ownerID, id); err != nil {
		return respondError(c, err, ownerID, "delete transaction")
	}

	log.Info().Str("owner_id", ownerID.String()).Str("transaction_id", id.String()).Msg("Transaction deleted")

	return c.NoContent(http.StatusNoContent)
}

// GetSummary godoc
// @Summary Summarize transactions
// @Description Totals, balance and per-category breakdown over an optional inclusive date window
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param dateFrom query string false "Inclusive lower bound (RFC3339 or YYYY-MM-DD)"
// @Param dateTo query string false "Inclusive upper bound (RFC3339 or YYYY-MM-DD)"
// @Param month query string false "Calendar month YYYY-MM, instead of dateFrom/dateTo"
// @Success 200 {object} SummaryResponse
// @Failure 400 {object} ProblemDetails
// @Router /transactions/summary [get]
func (h *TransactionHandler) GetSummary(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	dateFrom, dateTo, err := parseDateWindow(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	summary, err := h.summaryService.GetSummary(c.Request().Context(), ownerID, dateFrom, dateTo)
	if err != nil {
		return respondError(c, err, ownerID, "get summary")
	}

	return c.JSON(http.StatusOK, toSummaryResponse(summary))
}

// ExportTransactions godoc
// @Summary Export transactions as CSV
// @Description Upload the caller's transactions in the window as CSV and return a time-limited download link
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param dateFrom query string false "Inclusive lower bound (RFC3339 or YYYY-MM-DD)"
// @Param dateTo query string false "Inclusive upper bound (RFC3339 or YYYY-MM-DD)"
// @Param month query string false "Calendar month YYYY-MM, instead of dateFrom/dateTo"
// @Success 200 {object} ExportResponse
// @Failure 400 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /transactions/export [post]
func (h *TransactionHandler) ExportTransactions(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	if h.exportService == nil {
		return NewUnavailableError(c, "Export storage is not configured")
	}

	dateFrom, dateTo, err := parseDateWindow(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	result, err := h.exportService.ExportTransactions(c.Request().Context(), ownerID, dateFrom, dateTo)
	if err != nil {
		return respondError(c, err, ownerID, "export transactions")
	}

	return c.JSON(http.StatusOK, ExportResponse{
		Key:              result.Key,
		URL:              result.URL,
		ExpiresAt:        result.ExpiresAt.UTC().Format(time.RFC3339),
		TransactionCount: result.TransactionCount,
	})
}

// parseDate accepts RFC3339 or YYYY-MM-DD. A date-only value is the start of that UTC day,
// or its last instant when endOfDay is set.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateOnlyLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// parseDateWindow reads dateFrom/dateTo, or month=YYYY-MM as shorthand for that whole month
func parseDateWindow(c echo.Context) (*time.Time, *time.Time, error) {
	if s := c.QueryParam("month"); s != "" {
		if c.QueryParam("dateFrom") != "" || c.QueryParam("dateTo") != "" {
			return nil, nil, errors.New("month cannot be combined with dateFrom or dateTo")
		}
		year, month, err := util.ParseMonth(s)
		if err != nil {
			return nil, nil, errors.New("invalid month format (use YYYY-MM)")
		}
		start, end := util.MonthBounds(year, month)
		return &start, &end, nil
	}

	var dateFrom, dateTo *time.Time
	if s := c.QueryParam("dateFrom"); s != "" {
		parsed, err := parseDate(s, false)
		if err != nil {
			return nil, nil, errors.New("invalid dateFrom format (use RFC3339 or YYYY-MM-DD)")
		}
		dateFrom = &parsed
	}
	if s := c.QueryParam("dateTo"); s != "" {
		parsed, err := parseDate(s, true)
		if err != nil {
			return nil, nil, errors.New("invalid dateTo format (use RFC3339 or YYYY-MM-DD)")
		}
		dateTo = &parsed
	}
	return dateFrom, dateTo, nil
}

// parseIntParam parses a string to int32
func parseIntParam(s string, out *int32) (bool, error) {
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return false, errors.New("invalid integer")
	}
	*out = int32(v)
	return true, nil
}

func toTransactionResponse(transaction *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:          transaction.ID.String(),
		Amount:      transaction.Amount.StringFixed(domain.AmountScale),
		Kind:        string(transaction.Kind),
		Description: transaction.Description,
		OccurredAt:  transaction.OccurredAt.UTC().Format(time.RFC3339),
		CategoryID:  transaction.CategoryID.String(),
		CreatedAt:   transaction.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   transaction.UpdatedAt.Format(time.RFC3339),
	}
	if transaction.Category != nil {
		resp.Category = &TransactionCategoryResponse{
			Name:  transaction.Category.Name,
			Kind:  string(transaction.Category.Kind),
			Color: transaction.Category.Color,
			Icon:  transaction.Category.Icon,
		}
	}
	return resp
}

func toSummaryResponse(summary *domain.Summary) SummaryResponse {
	breakdown := make(map[string]CategoryTotalResponse, len(summary.CategoryBreakdown))
	for name, total := range summary.CategoryBreakdown {
		breakdown[name] = CategoryTotalResponse{
			Amount: total.Amount.StringFixed(domain.AmountScale),
			Kind:   string(total.Kind),
			Color:  total.Color,
		}
	}
	return SummaryResponse{
		TotalIncome:       summary.TotalIncome.StringFixed(domain.AmountScale),
		TotalExpenses:     summary.TotalExpenses.StringFixed(domain.AmountScale),
		Balance:           summary.Balance.StringFixed(domain.AmountScale),
		CategoryBreakdown: breakdown,
		TransactionCount:  summary.TransactionCount,
	}
}
