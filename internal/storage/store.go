// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/kobina/receiptbook/internal/models"
)

var (
	// ErrNotFound is returned when the addressed entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID is returned when an insert collides with an
	// existing primary key.
	ErrDuplicateID = errors.New("duplicate id")
)

// ReceiptFilter narrows ListReceipts. The store applies it mechanically;
// which rows a caller *should* see (e.g. excluding soft-deleted ones) is
// service-layer policy expressed through these fields.
type ReceiptFilter struct {
	// IncludeDeleted keeps soft-deleted rows in the result.
	IncludeDeleted bool

	// Paid, when set, keeps only receipts with the matching IsPaid flag.
	Paid *bool

	// SyncStatus, when set, keeps only receipts with that status.
	SyncStatus *models.SyncStatus
}

// Store defines the local persistence contract: five collections
// (business, receipts, receipt items, outbox, sync state) with the
// multi-collection writes committed atomically. Every method that takes
// an *models.OutboxOperation writes the entity change and the outbox
// entry in one transaction — neither survives without the other.
type Store interface {
	// GetBusiness returns the single business profile, or nil when none
	// has been saved yet.
	GetBusiness(ctx context.Context) (*models.Business, error)

	// ReplaceBusiness clears the business collection and inserts b, all
	// in one transaction. This keeps the single-business invariant
	// structural: there is no code path that can leave two profiles.
	ReplaceBusiness(ctx context.Context, b *models.Business) error

	// UpdateBusiness overwrites the stored profile and appends op
	// atomically. Returns ErrNotFound when no profile exists.
	UpdateBusiness(ctx context.Context, b *models.Business, op *models.OutboxOperation) error

	// ClearBusiness removes the profile (logout).
	ClearBusiness(ctx context.Context) error

	// CreateReceipt inserts the receipt, its items and op in one
	// transaction. Returns ErrDuplicateID if the receipt id exists.
	CreateReceipt(ctx context.Context, r *models.Receipt, items []models.ReceiptItem, op *models.OutboxOperation) error

	// GetReceipt returns a receipt by id, including soft-deleted ones.
	// Returns ErrNotFound when absent.
	GetReceipt(ctx context.Context, id string) (*models.Receipt, error)

	// GetReceiptItems returns the line items of a receipt.
	GetReceiptItems(ctx context.Context, receiptID string) ([]models.ReceiptItem, error)

	// ListReceipts returns receipts matching f, newest-created first.
	ListReceipts(ctx context.Context, f ReceiptFilter) ([]models.Receipt, error)

	// LastReceiptNumber returns the number of the most recently created
	// receipt (by creation order, not numeric maximum), or "" when the
	// collection is empty. Soft-deleted receipts still count: their
	// numbers stay burned.
	LastReceiptNumber(ctx context.Context) (string, error)

	// SoftDeleteReceipt sets deletedAt/updatedAt, re-marks the receipt
	// pending and appends op, all in one transaction. Returns
	// ErrNotFound (with nothing written) when the receipt is absent.
	SoftDeleteReceipt(ctx context.Context, id string, at time.Time, op *models.OutboxOperation) error

	// SetReceiptPaid updates isPaid/paidAt/updatedAt, re-marks the
	// receipt pending and appends op atomically. Returns ErrNotFound
	// when the receipt is absent.
	SetReceiptPaid(ctx context.Context, id string, paid bool, paidAt *time.Time, at time.Time, op *models.OutboxOperation) error

	// CountReceiptsBySyncStatus counts non-deleted receipts with the
	// given status.
	CountReceiptsBySyncStatus(ctx context.Context, status models.SyncStatus) (int64, error)

	// ListOutboxForEntity returns the entries for one entity in creation
	// order, so a processor can replay create -> update -> delete.
	ListOutboxForEntity(ctx context.Context, entityID string) ([]models.OutboxOperation, error)

	// ListOutbox returns up to limit pending entries in creation order
	// (limit <= 0 means no limit).
	ListOutbox(ctx context.Context, limit int) ([]models.OutboxOperation, error)

	// CountOutbox returns the number of pending outbox entries.
	CountOutbox(ctx context.Context) (int64, error)

	// GetSyncState returns the cursor row with the given id, or nil.
	GetSyncState(ctx context.Context, id string) (*models.SyncState, error)

	// PutSyncState inserts or replaces a cursor row.
	PutSyncState(ctx context.Context, st *models.SyncState) error

	// Close releases any resources held by the store.
	Close() error
}
