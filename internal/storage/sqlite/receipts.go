package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kobina/receiptbook/internal/models"
	"github.com/kobina/receiptbook/internal/storage"
)

const receiptColumns = `id, server_id, business_id, template_id, receipt_number,
	receipt_date, customer_name, customer_phone, customer_email, subtotal,
	tax_rate, tax_amount, discount, grand_total, notes, is_paid, paid_at,
	sync_status, created_at, updated_at, deleted_at`

// CreateReceipt inserts the receipt, its items and the outbox entry in
// one transaction. Any failure rolls back all three.
func (s *SQLiteStore) CreateReceipt(ctx context.Context, r *models.Receipt, items []models.ReceiptItem, op *models.OutboxOperation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO receipts (`+receiptColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, nullableInt64(r.ServerID), r.BusinessID, r.TemplateID,
		r.ReceiptNumber, r.ReceiptDate, r.CustomerName,
		nullableString(r.CustomerPhone), nullableString(r.CustomerEmail),
		r.Subtotal.String(), r.TaxRate.String(), r.TaxAmount.String(),
		r.Discount.String(), r.GrandTotal.String(), nullableString(r.Notes),
		r.IsPaid, encodeTimePtr(r.PaidAt), string(r.SyncStatus),
		encodeTime(r.CreatedAt), encodeTime(r.UpdatedAt), encodeTimePtr(r.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", mapInsertErr(err))
	}

	for i := range items {
		item := &items[i]
		_, err = tx.ExecContext(ctx,
			`INSERT INTO receipt_items (id, server_id, receipt_id, description, quantity, unit_price, total, sync_status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, nullableInt64(item.ServerID), item.ReceiptID,
			item.Description, item.Quantity, item.UnitPrice.String(),
			item.Total.String(), string(item.SyncStatus),
		)
		if err != nil {
			return fmt.Errorf("failed to insert receipt item: %w", mapInsertErr(err))
		}
	}

	if err := insertOutbox(ctx, tx, op); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetReceipt retrieves a receipt by id, soft-deleted ones included.
func (s *SQLiteStore) GetReceipt(ctx context.Context, id string) (*models.Receipt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+receiptColumns+` FROM receipts WHERE id = ?`, id,
	)
	r, err := scanReceipt(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return r, nil
}

// GetReceiptItems returns the line items of a receipt.
func (s *SQLiteStore) GetReceiptItems(ctx context.Context, receiptID string) ([]models.ReceiptItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, server_id, receipt_id, description, quantity, unit_price, total, sync_status
		 FROM receipt_items WHERE receipt_id = ? ORDER BY rowid`,
		receiptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt items: %w", err)
	}
	defer rows.Close()

	var items []models.ReceiptItem
	for rows.Next() {
		var (
			item      models.ReceiptItem
			serverID  sql.NullInt64
			unitPrice string
			total     string
			status    string
		)
		if err := rows.Scan(&item.ID, &serverID, &item.ReceiptID,
			&item.Description, &item.Quantity, &unitPrice, &total, &status); err != nil {
			return nil, fmt.Errorf("failed to scan receipt item: %w", err)
		}
		item.ServerID = int64Ptr(serverID)
		item.SyncStatus = models.SyncStatus(status)
		if item.UnitPrice, err = decodeDecimal(unitPrice); err != nil {
			return nil, err
		}
		if item.Total, err = decodeDecimal(total); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipt items: %w", err)
	}
	return items, nil
}

// ListReceipts returns receipts matching f, newest-created first.
func (s *SQLiteStore) ListReceipts(ctx context.Context, f storage.ReceiptFilter) ([]models.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE 1=1`
	var args []any

	if !f.IncludeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	if f.Paid != nil {
		query += ` AND is_paid = ?`
		args = append(args, *f.Paid)
	}
	if f.SyncStatus != nil {
		query += ` AND sync_status = ?`
		args = append(args, string(*f.SyncStatus))
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []models.Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipts: %w", err)
	}
	return receipts, nil
}

// LastReceiptNumber returns the number of the most recently created
// receipt, or "" when none exist. Creation order, not the numeric
// maximum: the sequence follows creation events.
func (s *SQLiteStore) LastReceiptNumber(ctx context.Context) (string, error) {
	var number string
	err := s.db.QueryRowContext(ctx,
		`SELECT receipt_number FROM receipts ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	).Scan(&number)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get last receipt number: %w", err)
	}
	return number, nil
}

// SoftDeleteReceipt marks the receipt deleted and appends op atomically.
func (s *SQLiteStore) SoftDeleteReceipt(ctx context.Context, id string, at time.Time, op *models.OutboxOperation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE receipts SET deleted_at = ?, updated_at = ?, sync_status = ? WHERE id = ?`,
		encodeTime(at), encodeTime(at), string(models.SyncPending), id,
	)
	if err != nil {
		return fmt.Errorf("failed to soft-delete receipt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	if err := insertOutbox(ctx, tx, op); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SetReceiptPaid updates the paid flag and appends op atomically.
func (s *SQLiteStore) SetReceiptPaid(ctx context.Context, id string, paid bool, paidAt *time.Time, at time.Time, op *models.OutboxOperation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE receipts SET is_paid = ?, paid_at = ?, updated_at = ?, sync_status = ? WHERE id = ?`,
		paid, encodeTimePtr(paidAt), encodeTime(at), string(models.SyncPending), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update paid flag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	if err := insertOutbox(ctx, tx, op); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CountReceiptsBySyncStatus counts non-deleted receipts with the status.
func (s *SQLiteStore) CountReceiptsBySyncStatus(ctx context.Context, status models.SyncStatus) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM receipts WHERE sync_status = ? AND deleted_at IS NULL`,
		string(status),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count receipts: %w", err)
	}
	return count, nil
}

func scanReceipt(row rowScanner) (*models.Receipt, error) {
	r := &models.Receipt{}
	var (
		serverID                     sql.NullInt64
		customerPhone, customerEmail sql.NullString
		notes, paidAt, deletedAt     sql.NullString
		subtotal, taxRate, taxAmount string
		discount, grandTotal         string
		syncStatus                   string
		createdAt, updatedAt         string
	)
	err := row.Scan(
		&r.ID, &serverID, &r.BusinessID, &r.TemplateID, &r.ReceiptNumber,
		&r.ReceiptDate, &r.CustomerName, &customerPhone, &customerEmail,
		&subtotal, &taxRate, &taxAmount, &discount, &grandTotal, &notes,
		&r.IsPaid, &paidAt, &syncStatus, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	r.ServerID = int64Ptr(serverID)
	r.CustomerPhone = stringPtr(customerPhone)
	r.CustomerEmail = stringPtr(customerEmail)
	r.Notes = stringPtr(notes)
	r.SyncStatus = models.SyncStatus(syncStatus)

	if r.Subtotal, err = decodeDecimal(subtotal); err != nil {
		return nil, err
	}
	if r.TaxRate, err = decodeDecimal(taxRate); err != nil {
		return nil, err
	}
	if r.TaxAmount, err = decodeDecimal(taxAmount); err != nil {
		return nil, err
	}
	if r.Discount, err = decodeDecimal(discount); err != nil {
		return nil, err
	}
	if r.GrandTotal, err = decodeDecimal(grandTotal); err != nil {
		return nil, err
	}
	if r.PaidAt, err = decodeTimePtr(paidAt); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	if r.DeletedAt, err = decodeTimePtr(deletedAt); err != nil {
		return nil, err
	}
	return r, nil
}
