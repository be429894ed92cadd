package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SyncStatus tracks whether a local change has reached the remote system.
type SyncStatus string

const (
	// SyncPending marks a locally authored change not yet pushed.
	// Every local mutation sets or re-sets this status.
	SyncPending SyncStatus = "pending"

	// SyncSynced is set by the external sync processor after a confirmed
	// push. The core never sets it.
	SyncSynced SyncStatus = "synced"

	// SyncError is recorded by the sync processor on delivery failure.
	SyncError SyncStatus = "error"

	// SyncDeleted marks an entity whose deletion has been confirmed
	// remotely. Local soft deletes stay "pending" with DeletedAt set.
	SyncDeleted SyncStatus = "deleted"
)

// Receipt represents one issued receipt. The money fields are derived
// from the line items and are recomputed on every write.
type Receipt struct {
	ID       string `json:"id"`
	ServerID *int64 `json:"serverId,omitempty"`

	// BusinessID is the owning business profile.
	BusinessID string `json:"businessId"`

	// TemplateID is copied from the business's selected template at
	// creation time, so the receipt keeps its original look.
	TemplateID string `json:"templateId"`

	// ReceiptNumber is the business-scoped sequential number, e.g. "#042".
	ReceiptNumber string `json:"receiptNumber"`

	// ReceiptDate is the customer-facing date (YYYY-MM-DD).
	ReceiptDate string `json:"receiptDate"`

	CustomerName  string  `json:"customerName"`
	CustomerPhone *string `json:"customerPhone,omitempty"`
	CustomerEmail *string `json:"customerEmail,omitempty"`

	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxRate    decimal.Decimal `json:"taxRate"`
	TaxAmount  decimal.Decimal `json:"taxAmount"`
	Discount   decimal.Decimal `json:"discount"`
	GrandTotal decimal.Decimal `json:"grandTotal"`

	Notes *string `json:"notes,omitempty"`

	IsPaid bool       `json:"isPaid"`
	PaidAt *time.Time `json:"paidAt,omitempty"`

	SyncStatus SyncStatus `json:"syncStatus"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`

	// DeletedAt marks a soft-deleted receipt. Listing queries exclude
	// rows with DeletedAt set; direct lookups still return them.
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Deleted reports whether the receipt has been soft-deleted.
func (r *Receipt) Deleted() bool {
	return r.DeletedAt != nil
}

// ReceiptItem is a single line item. Total is denormalized as
// quantity * unit price and recomputed on write.
type ReceiptItem struct {
	ID       string `json:"id"`
	ServerID *int64 `json:"serverId,omitempty"`

	// ReceiptID is the owning receipt.
	ReceiptID string `json:"receiptId"`

	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`

	SyncStatus SyncStatus `json:"syncStatus"`
}
