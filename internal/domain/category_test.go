package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNormalizeCategoryName(t *testing.T) {
	name, err := NormalizeCategoryName("  Groceries ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if name != "Groceries" {
		t.Errorf("Expected 'Groceries', got %q", name)
	}

	if _, err := NormalizeCategoryName(""); err != ErrNameRequired {
		t.Errorf("Expected ErrNameRequired, got %v", err)
	}
	if _, err := NormalizeCategoryName(strings.Repeat("a", MaxCategoryNameLength+1)); err != ErrNameTooLong {
		t.Errorf("Expected ErrNameTooLong, got %v", err)
	}
}

func TestValidateColor(t *testing.T) {
	valid := []string{"#3B82F6", "#fff", "#A1b2C3"}
	invalid := []string{"3B82F6", "#12345", "#GGGGGG", "", "#1234567"}

	for _, c := range valid {
		if err := ValidateColor(c); err != nil {
			t.Errorf("Expected %q to be valid, got %v", c, err)
		}
	}
	for _, c := range invalid {
		if err := ValidateColor(c); err != ErrInvalidColor {
			t.Errorf("Expected %q to be invalid, got %v", c, err)
		}
	}
}

func TestValidateIcon(t *testing.T) {
	if err := ValidateIcon(DefaultCategoryIcon); err != nil {
		t.Errorf("Expected default icon to be valid, got %v", err)
	}
	if err := ValidateIcon("🍔🍕🌮🍣🍜"); err != nil {
		t.Errorf("Expected 5 emoji to be valid, got %v", err)
	}
	if err := ValidateIcon("abcdef"); err != ErrIconTooLong {
		t.Errorf("Expected ErrIconTooLong, got %v", err)
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrCategoryNotFound, ErrorKindNotFound},
		{ErrTransactionNotFound, ErrorKindNotFound},
		{ErrDuplicateCategoryName, ErrorKindDuplicateName},
		{ErrKindMismatch, ErrorKindTypeMismatch},
		{ErrCategoryHasReferences, ErrorKindHasReferences},
		{ErrInvalidColor, ErrorKindValidation},
		{fmt.Errorf("create: %w", ErrDuplicateCategoryName), ErrorKindDuplicateName},
		{errors.New("connection reset"), ErrorKindInternal},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
