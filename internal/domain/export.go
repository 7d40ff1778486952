package domain

import (
	"context"
	"io"
	"time"
)

// ExportResult points at an uploaded export file
type ExportResult struct {
	Key              string    `json:"key"`
	URL              string    `json:"url"`
	ExpiresAt        time.Time `json:"expiresAt"`
	TransactionCount int       `json:"transactionCount"`
}

// ExportStorage stores rendered export files and hands out time-limited download links
type ExportStorage interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
