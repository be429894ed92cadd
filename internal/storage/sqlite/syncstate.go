package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kobina/receiptbook/internal/models"
)

// GetSyncState returns the cursor row with the given id, or nil.
func (s *SQLiteStore) GetSyncState(ctx context.Context, id string) (*models.SyncState, error) {
	st := &models.SyncState{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, entity_type, last_pulled_at, last_pushed_at, device_id
		 FROM sync_state WHERE id = ?`, id,
	).Scan(&st.ID, &st.EntityType, &st.LastPulledAt, &st.LastPushedAt, &st.DeviceID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}
	return st, nil
}

// PutSyncState inserts or replaces a cursor row.
func (s *SQLiteStore) PutSyncState(ctx context.Context, st *models.SyncState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sync_state (id, entity_type, last_pulled_at, last_pushed_at, device_id)
		 VALUES (?, ?, ?, ?, ?)`,
		st.ID, st.EntityType, st.LastPulledAt, st.LastPushedAt, st.DeviceID,
	)
	if err != nil {
		return fmt.Errorf("failed to put sync state: %w", err)
	}
	return nil
}
