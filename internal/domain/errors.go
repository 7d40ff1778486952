package domain

import "errors"

// Domain errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUserNotFound = errors.New("user not found")

	// Category errors
	ErrCategoryNotFound      = errors.New("category not found")
	ErrDuplicateCategoryName = errors.New("category with this name already exists")
	ErrCategoryHasReferences = errors.New("cannot delete category with existing transactions")

	// Transaction errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrKindMismatch        = errors.New("transaction kind must match category kind")

	// Validation errors
	ErrNameRequired        = errors.New("name is required")
	ErrNameTooLong         = errors.New("name exceeds maximum length")
	ErrInvalidKind         = errors.New("kind must be income or expense")
	ErrInvalidColor        = errors.New("color must be a valid hex color")
	ErrIconTooLong         = errors.New("icon exceeds maximum length")
	ErrInvalidAmount       = errors.New("amount must be positive, below one trillion, with at most two decimal places")
	ErrDescriptionRequired = errors.New("description is required")
	ErrDescriptionTooLong  = errors.New("description exceeds maximum length")
	ErrInvalidDateRange    = errors.New("dateFrom must not be after dateTo")
)

// Error kinds exposed to callers. These strings are part of the API contract.
const (
	ErrorKindNotFound      = "not_found"
	ErrorKindDuplicateName = "duplicate_name"
	ErrorKindTypeMismatch  = "type_mismatch"
	ErrorKindHasReferences = "has_references"
	ErrorKindValidation    = "validation"
	ErrorKindInternal      = "internal"
)

var validationErrors = []error{
	ErrNameRequired,
	ErrNameTooLong,
	ErrInvalidKind,
	ErrInvalidColor,
	ErrIconTooLong,
	ErrInvalidAmount,
	ErrDescriptionRequired,
	ErrDescriptionTooLong,
	ErrInvalidDateRange,
}

// ErrorKind classifies err into one of the stable error kinds.
// Anything unrecognised, including storage failures, is internal.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCategoryNotFound),
		errors.Is(err, ErrTransactionNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrNotFound):
		return ErrorKindNotFound
	case errors.Is(err, ErrDuplicateCategoryName):
		return ErrorKindDuplicateName
	case errors.Is(err, ErrKindMismatch):
		return ErrorKindTypeMismatch
	case errors.Is(err, ErrCategoryHasReferences):
		return ErrorKindHasReferences
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return ErrorKindValidation
		}
	}
	return ErrorKindInternal
}
