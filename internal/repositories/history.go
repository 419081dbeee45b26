// package repositories provides the persistence layer for sync history.
package repositories

import (
	"database/sql"
	"fmt"

	"github.com/h2see/eavesdrop/internal/models"
	"github.com/h2see/eavesdrop/internal/shared"
)

const historySchema = `
	CREATE TABLE IF NOT EXISTS sync_history (
		id TEXT PRIMARY KEY,
		user TEXT NOT NULL,
		track_id TEXT NOT NULL,
		action TEXT NOT NULL,
		position_ms INTEGER NOT NULL,
		device_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sync_history_created_at ON sync_history(created_at);
`

// HistoryRepository persists one row per corrective action issued by
// the reconciliation loop. The table is append-only.
//
// Implements tasks.ActionRecorder.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a HistoryRepository and applies the
// schema to the given database connection.
func NewHistoryRepository(db *sql.DB) (*HistoryRepository, error) {
	if _, err := db.Exec(historySchema); err != nil {
		return nil, fmt.Errorf("failed to apply history schema: %w", err)
	}
	return &HistoryRepository{db: db}, nil
}

// Record inserts a sync record, generating an ID when absent.
func (r *HistoryRepository) Record(record models.SyncRecord) error {
	if record.ID == "" {
		record.ID = shared.GenerateID()
	}
	if record.TrackID == "" || record.Action == "" {
		return fmt.Errorf("%w: sync record requires track_id and action", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO sync_history (id, user, track_id, action, position_ms, device_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		record.ID,
		record.User,
		record.TrackID,
		record.Action,
		record.PositionMS,
		record.DeviceID,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync record: %w", err)
	}

	return nil
}

// Recent returns up to limit records, newest first.
func (r *HistoryRepository) Recent(limit int) ([]models.SyncRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, user, track_id, action, position_ms, device_id, created_at
		FROM sync_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync history: %w", err)
	}
	defer rows.Close()

	var records []models.SyncRecord
	for rows.Next() {
		var rec models.SyncRecord
		if err := rows.Scan(&rec.ID, &rec.User, &rec.TrackID, &rec.Action, &rec.PositionMS, &rec.DeviceID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync history: %w", err)
	}

	return records, nil
}
