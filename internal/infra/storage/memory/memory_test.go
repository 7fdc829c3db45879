package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/callguard/internal/core/domain"
)

func TestJournalRepo_ListRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewJournalRepo(0)
	base := time.Now()

	for i := 0; i < 3; i++ {
		rec := &domain.CallRecord{
			ID:        uuid.New(),
			Name:      "call",
			Kind:      "success",
			Attempts:  i + 1,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Record(ctx, rec); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Attempts != 3 || got[1].Attempts != 2 {
		t.Errorf("expected newest first, got attempts %d,%d", got[0].Attempts, got[1].Attempts)
	}
}

func TestJournalRepo_Limit(t *testing.T) {
	ctx := context.Background()
	repo := NewJournalRepo(2)
	for i := 0; i < 5; i++ {
		_ = repo.Record(ctx, &domain.CallRecord{ID: uuid.New(), Attempts: i, CreatedAt: time.Now()})
	}
	got, _ := repo.ListRecent(ctx, 0)
	if len(got) != 2 {
		t.Errorf("expected 2 retained records, got %d", len(got))
	}
}

func TestJournalRepo_RecordCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewJournalRepo(0)
	rec := &domain.CallRecord{ID: uuid.New(), Kind: "success"}
	_ = repo.Record(ctx, rec)
	rec.Kind = "mutated"

	got, _ := repo.ListRecent(ctx, 1)
	if got[0].Kind != "success" {
		t.Errorf("stored record was mutated: %s", got[0].Kind)
	}
}
