package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EntityType identifies which collection an outbox entry belongs to.
type EntityType string

const (
	EntityBusiness    EntityType = "business"
	EntityReceipts    EntityType = "receipts"
	EntityReceiptItem EntityType = "receiptItem"
)

// Operation is the kind of change an outbox entry replays remotely.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// OutboxOperation is one entry in the append-only log of mutations that
// still need to reach the remote system. Entries are written in the same
// transaction as the entity mutation they describe; the core never
// mutates or deletes them afterward. RetryCount and LastError belong to
// the external sync processor.
type OutboxOperation struct {
	// ID is assigned by the store in creation order, so a processor can
	// replay create -> update -> delete sequences per entity correctly.
	ID int64 `json:"id"`

	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`
	Operation  Operation  `json:"operation"`

	// Payload is the JSON-encoded snapshot sufficient to replay the
	// change remotely. Its shape is determined by (EntityType, Operation);
	// see the payload types below.
	Payload json.RawMessage `json:"payload"`

	CreatedAt  time.Time `json:"createdAt"`
	RetryCount int       `json:"retryCount"`
	LastError  *string   `json:"lastError,omitempty"`
}

// ReceiptCreatePayload is the payload for (receipts, create): the full
// receipt plus its line items.
type ReceiptCreatePayload struct {
	Receipt Receipt       `json:"receipt"`
	Items   []ReceiptItem `json:"items"`
}

// ReceiptStatusPayload is the payload for (receipts, update) emitted by
// the paid/unpaid toggles: only the changed fields plus enough identity
// for remote addressing.
type ReceiptStatusPayload struct {
	ID        string     `json:"id"`
	ServerID  *int64     `json:"serverId"`
	IsPaid    bool       `json:"isPaid"`
	PaidAt    *time.Time `json:"paidAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ReceiptDeletePayload is the payload for (receipts, delete).
type ReceiptDeletePayload struct {
	ID        string    `json:"id"`
	DeletedAt time.Time `json:"deletedAt"`
}

// BusinessUpdatePayload is the payload for (business, update): a full
// profile snapshot, since the profile is small and replaced wholesale.
type BusinessUpdatePayload struct {
	Business Business `json:"business"`
}

// NewOutboxOperation builds an entry with the payload JSON-encoded and
// RetryCount zeroed. The store assigns ID on insert.
func NewOutboxOperation(entityType EntityType, entityID string, op Operation, payload any, at time.Time) (*OutboxOperation, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode outbox payload: %w", err)
	}
	return &OutboxOperation{
		EntityType: entityType,
		EntityID:   entityID,
		Operation:  op,
		Payload:    raw,
		CreatedAt:  at,
		RetryCount: 0,
	}, nil
}

func init() {
	// Outbox payloads cross a device boundary eventually; keep decimals
	// rendered as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}
