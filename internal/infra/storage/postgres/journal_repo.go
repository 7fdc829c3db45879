package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/callguard/internal/core/domain"
)

// JournalRepo implements storage.JournalRepository using PostgreSQL.
type JournalRepo struct {
	db *DB
}

// NewJournalRepo creates a new PostgreSQL journal repository.
func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

type callRecordRow struct {
	ID        uuid.UUID `db:"id"`
	Command   string    `db:"command"`
	Name      string    `db:"name"`
	Kind      string    `db:"kind"`
	Reason    string    `db:"reason"`
	Message   string    `db:"message"`
	Retryable bool      `db:"retryable"`
	Attempts  int       `db:"attempts"`
	ElapsedMs int64     `db:"elapsed_ms"`
	CreatedAt time.Time `db:"created_at"`
}

// Record inserts one call record.
func (r *JournalRepo) Record(ctx context.Context, rec *domain.CallRecord) error {
	row := callRecordRow{
		ID:        rec.ID,
		Command:   rec.Command,
		Name:      rec.Name,
		Kind:      rec.Kind,
		Reason:    rec.Reason,
		Message:   rec.Message,
		Retryable: rec.Retryable,
		Attempts:  rec.Attempts,
		ElapsedMs: rec.Elapsed.Milliseconds(),
		CreatedAt: rec.CreatedAt,
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO call_records
			(id, command, name, kind, reason, message, retryable, attempts, elapsed_ms, created_at)
		VALUES
			(:id, :command, :name, :kind, :reason, :message, :retryable, :attempts, :elapsed_ms, :created_at)`,
		row)
	if err != nil {
		return fmt.Errorf("failed to insert call record: %w", err)
	}
	return nil
}

// ListRecent returns the newest records first.
func (r *JournalRepo) ListRecent(ctx context.Context, limit int) ([]*domain.CallRecord, error) {
	var rows []callRecordRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, command, name, kind, reason, message, retryable, attempts, elapsed_ms, created_at
		FROM call_records
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list call records: %w", err)
	}

	records := make([]*domain.CallRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, &domain.CallRecord{
			ID:        row.ID,
			Command:   row.Command,
			Name:      row.Name,
			Kind:      row.Kind,
			Reason:    row.Reason,
			Message:   row.Message,
			Retryable: row.Retryable,
			Attempts:  row.Attempts,
			Elapsed:   time.Duration(row.ElapsedMs) * time.Millisecond,
			CreatedAt: row.CreatedAt,
		})
	}
	return records, nil
}
