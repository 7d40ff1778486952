package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Kind     string            `json:"kind,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://ledger.app/errors/validation"
	ErrorTypeNotFound     = "https://ledger.app/errors/not-found"
	ErrorTypeUnauthorized = "https://ledger.app/errors/unauthorized"
	ErrorTypeConflict     = "https://ledger.app/errors/conflict"
	ErrorTypeTypeMismatch = "https://ledger.app/errors/type-mismatch"
	ErrorTypeUnavailable  = "https://ledger.app/errors/unavailable"
	ErrorTypeInternal     = "https://ledger.app/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Kind:     domain.ErrorKindValidation,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Kind:     domain.ErrorKindNotFound,
	})
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, ProblemDetails{
		Type:     ErrorTypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewConflictError creates a conflict error response tagged with the error kind
func NewConflictError(c echo.Context, kind, detail string) error {
	return c.JSON(http.StatusConflict, ProblemDetails{
		Type:     ErrorTypeConflict,
		Title:    "Conflict",
		Status:   http.StatusConflict,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Kind:     kind,
	})
}

// NewTypeMismatchError creates a response for a transaction kind that differs from its category's
func NewTypeMismatchError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnprocessableEntity, ProblemDetails{
		Type:     ErrorTypeTypeMismatch,
		Title:    "Type Mismatch",
		Status:   http.StatusUnprocessableEntity,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Kind:     domain.ErrorKindTypeMismatch,
	})
}

// NewUnavailableError creates a response for a feature that is not configured
func NewUnavailableError(c echo.Context, detail string) error {
	return c.JSON(http.StatusServiceUnavailable, ProblemDetails{
		Type:     ErrorTypeUnavailable,
		Title:    "Service Unavailable",
		Status:   http.StatusServiceUnavailable,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Kind:     domain.ErrorKindInternal,
	})
}

// validationFields maps validation sentinels to the request field they concern
var validationFields = []struct {
	err     error
	field   string
	message string
}{
	{domain.ErrNameRequired, "name", "Name is required"},
	{domain.ErrNameTooLong, "name", "Name must be 30 characters or less"},
	{domain.ErrInvalidKind, "kind", "Kind must be one of: income, expense"},
	{domain.ErrInvalidColor, "color", "Color must be a hex color like #3B82F6"},
	{domain.ErrIconTooLong, "icon", "Icon must be 5 characters or less"},
	{domain.ErrInvalidAmount, "amount", "Amount must be positive, below one trillion, with at most two decimal places"},
	{domain.ErrDescriptionRequired, "description", "Description is required"},
	{domain.ErrDescriptionTooLong, "description", "Description must be 100 characters or less"},
	{domain.ErrInvalidDateRange, "dateFrom", "dateFrom must not be after dateTo"},
}

// respondError maps a service error onto its problem response by error kind.
// Internal failures are logged with the owner and never exposed.
func respondError(c echo.Context, err error, ownerID uuid.UUID, action string) error {
	switch domain.ErrorKind(err) {
	case domain.ErrorKindNotFound:
		return NewNotFoundError(c, notFoundDetail(err))
	case domain.ErrorKindDuplicateName:
		return NewConflictError(c, domain.ErrorKindDuplicateName, "A category with this name already exists")
	case domain.ErrorKindHasReferences:
		return NewConflictError(c, domain.ErrorKindHasReferences, "Category is used by existing transactions")
	case domain.ErrorKindTypeMismatch:
		return NewTypeMismatchError(c, "Transaction kind must match the category kind")
	case domain.ErrorKindValidation:
		for _, v := range validationFields {
			if errors.Is(err, v.err) {
				return NewValidationError(c, "Validation failed", []ValidationError{{Field: v.field, Message: v.message}})
			}
		}
		return NewValidationError(c, "Validation failed", nil)
	}

	log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to " + action)
	return NewInternalError(c, "Failed to "+action)
}

func notFoundDetail(err error) string {
	switch {
	case errors.Is(err, domain.ErrCategoryNotFound):
		return "Category not found"
	case errors.Is(err, domain.ErrTransactionNotFound):
		return "Transaction not found"
	case errors.Is(err, domain.ErrUserNotFound):
		return "User not found"
	}
	return "Resource not found"
}
