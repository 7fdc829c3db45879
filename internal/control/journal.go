package control

import (
	"context"
	"log/slog"

	"github.com/vietddude/callguard/internal/infra/storage"
	"github.com/vietddude/callguard/internal/infra/storage/memory"
	"github.com/vietddude/callguard/internal/infra/storage/postgres"
)

// memoryJournalLimit bounds the in-process journal.
const memoryJournalLimit = 1000

// OpenJournal returns the postgres journal when a database is configured and
// reachable, and the in-memory journal otherwise. The returned DB is nil for
// the in-memory journal.
func OpenJournal(ctx context.Context, cfg postgres.Config) (storage.JournalRepository, *postgres.DB) {
	if cfg.URL == "" {
		slog.Debug("Using memory journal")
		return memory.NewJournalRepo(memoryJournalLimit), nil
	}

	db, err := postgres.NewDB(ctx, cfg)
	if err != nil {
		slog.Warn("Journal database unavailable, using memory journal", "error", err)
		return memory.NewJournalRepo(memoryJournalLimit), nil
	}
	if err := db.Migrate(); err != nil {
		slog.Warn("Journal migration failed, using memory journal", "error", err)
		_ = db.Close()
		return memory.NewJournalRepo(memoryJournalLimit), nil
	}

	slog.Debug("Using PostgreSQL journal")
	return postgres.NewJournalRepo(db), db
}
