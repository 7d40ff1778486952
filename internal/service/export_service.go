package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// ExportLinkExpiry is how long a presigned export link stays valid
	ExportLinkExpiry  = 15 * time.Minute
	exportContentType = "text/csv"
)

var exportHeader = []string{"occurred_at", "kind", "category", "description", "amount"}

// ExportService renders an owner's transactions as CSV and stores the file
type ExportService struct {
	transactionRepo domain.TransactionRepository
	storage         domain.ExportStorage
}

// NewExportService creates a new ExportService
func NewExportService(transactionRepo domain.TransactionRepository, storage domain.ExportStorage) *ExportService {
	return &ExportService{
		transactionRepo: transactionRepo,
		storage:         storage,
	}
}

// ExportTransactions uploads the owner's transactions within the window and returns a download link
func (s *ExportService) ExportTransactions(ctx context.Context, ownerID uuid.UUID, dateFrom, dateTo *time.Time) (*domain.ExportResult, error) {
	if dateFrom != nil && dateTo != nil && dateFrom.After(*dateTo) {
		return nil, domain.ErrInvalidDateRange
	}

	transactions, err := s.transactionRepo.ListInRange(ctx, ownerID, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}

	data, err := RenderCSV(transactions)
	if err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s-%s.csv", ownerID, time.Now().UTC().Format("20060102T150405"), uuid.New())
	if err := s.storage.Upload(ctx, key, bytes.NewReader(data), exportContentType, int64(len(data))); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	url, err := s.storage.PresignGet(ctx, key, ExportLinkExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign export: %w", err)
	}

	log.Info().Str("owner_id", ownerID.String()).Str("key", key).Int("transactions", len(transactions)).Msg("Transactions exported")

	return &domain.ExportResult{
		Key:              key,
		URL:              url,
		ExpiresAt:        time.Now().Add(ExportLinkExpiry),
		TransactionCount: len(transactions),
	}, nil
}

// RenderCSV writes transactions in list order with a header row
func RenderCSV(transactions []*domain.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, t := range transactions {
		category := ""
		if t.Category != nil {
			category = t.Category.Name
		}
		row := []string{
			t.OccurredAt.UTC().Format(time.RFC3339),
			string(t.Kind),
			spreadsheetSafe(category),
			spreadsheetSafe(t.Description),
			t.Amount.StringFixed(domain.AmountScale),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// spreadsheetSafe prefixes free text that a spreadsheet would evaluate as a formula
func spreadsheetSafe(value string) string {
	if value != "" && strings.ContainsRune("=+-@\t\r", rune(value[0])) {
		return "'" + value
	}
	return value
}
