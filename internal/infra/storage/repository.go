package storage

import (
	"context"

	"github.com/vietddude/callguard/internal/core/domain"
)

// JournalRepository stores call outcomes for later inspection.
type JournalRepository interface {
	// Record saves one outcome
	Record(ctx context.Context, rec *domain.CallRecord) error

	// ListRecent returns up to limit records, newest first
	ListRecent(ctx context.Context, limit int) ([]*domain.CallRecord, error)
}
