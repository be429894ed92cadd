package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kobina/receiptbook/internal/models"
)

// insertOutbox appends one entry inside the caller's transaction and
// records the assigned id on op. Every mutating write path goes through
// this so the entity change and its outbox entry commit together.
func insertOutbox(ctx context.Context, tx *sql.Tx, op *models.OutboxOperation) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO outbox (entity_type, entity_id, operation, payload, created_at, retry_count, last_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(op.EntityType), op.EntityID, string(op.Operation),
		string(op.Payload), encodeTime(op.CreatedAt), op.RetryCount,
		nullableString(op.LastError),
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read outbox id: %w", err)
	}
	op.ID = id
	return nil
}

// ListOutboxForEntity returns the entries for one entity in creation order.
func (s *SQLiteStore) ListOutboxForEntity(ctx context.Context, entityID string) ([]models.OutboxOperation, error) {
	return s.queryOutbox(ctx,
		`SELECT id, entity_type, entity_id, operation, payload, created_at, retry_count, last_error
		 FROM outbox WHERE entity_id = ? ORDER BY id`,
		entityID,
	)
}

// ListOutbox returns up to limit entries in creation order (limit <= 0
// means no limit).
func (s *SQLiteStore) ListOutbox(ctx context.Context, limit int) ([]models.OutboxOperation, error) {
	query := `SELECT id, entity_type, entity_id, operation, payload, created_at, retry_count, last_error
		 FROM outbox ORDER BY id`
	if limit > 0 {
		return s.queryOutbox(ctx, query+` LIMIT ?`, limit)
	}
	return s.queryOutbox(ctx, query)
}

// CountOutbox returns the number of pending entries.
func (s *SQLiteStore) CountOutbox(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count outbox: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) queryOutbox(ctx context.Context, query string, args ...any) ([]models.OutboxOperation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var ops []models.OutboxOperation
	for rows.Next() {
		var (
			op         models.OutboxOperation
			entityType string
			operation  string
			payload    string
			createdAt  string
			lastError  sql.NullString
		)
		if err := rows.Scan(&op.ID, &entityType, &op.EntityID, &operation,
			&payload, &createdAt, &op.RetryCount, &lastError); err != nil {
			return nil, fmt.Errorf("failed to scan outbox entry: %w", err)
		}
		op.EntityType = models.EntityType(entityType)
		op.Operation = models.Operation(operation)
		op.Payload = []byte(payload)
		op.LastError = stringPtr(lastError)
		if op.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox: %w", err)
	}
	return ops, nil
}
