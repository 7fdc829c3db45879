package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vietddude/callguard/internal/core/domain"
	"github.com/vietddude/callguard/internal/infra/storage"
)

// JournalRepo is an in-process journal used when no database is configured.
type JournalRepo struct {
	records []*domain.CallRecord
	limit   int
	mu      sync.RWMutex
}

// NewJournalRepo keeps at most limit records; 0 means unbounded.
func NewJournalRepo(limit int) *JournalRepo {
	return &JournalRepo{limit: limit}
}

func (r *JournalRepo) Record(ctx context.Context, rec *domain.CallRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records = append(r.records, &cp)
	if r.limit > 0 && len(r.records) > r.limit {
		r.records = r.records[len(r.records)-r.limit:]
	}
	return nil
}

func (r *JournalRepo) ListRecent(ctx context.Context, limit int) ([]*domain.CallRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.CallRecord, len(r.records))
	copy(out, r.records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ storage.JournalRepository = (*JournalRepo)(nil)
