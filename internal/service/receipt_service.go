package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kobina/receiptbook/internal/metrics"
	"github.com/kobina/receiptbook/internal/models"
	"github.com/kobina/receiptbook/internal/storage"
	"github.com/kobina/receiptbook/internal/totals"
)

// ReceiptService implements the receipt write and query paths over the
// local store. Every mutation re-marks the receipt pending and writes
// its outbox entry in the same transaction as the entity change.
type ReceiptService struct {
	store storage.Store
}

// NewReceiptService creates a ReceiptService with the given storage backend.
func NewReceiptService(store storage.Store) *ReceiptService {
	return &ReceiptService{store: store}
}

// DraftItem is one not-yet-persisted line item. Any caller-supplied
// total is ignored; the line total is recomputed on save.
type DraftItem struct {
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// ReceiptDraft is an in-memory receipt being composed. Field-level
// validation happens upstream in the forms; the service trusts the
// draft except for the money fields, which it always re-derives.
type ReceiptDraft struct {
	CustomerName  string          `json:"customerName"`
	CustomerPhone string          `json:"customerPhone"`
	CustomerEmail string          `json:"customerEmail"`
	ReceiptDate   string          `json:"receiptDate"`
	ReceiptNumber string          `json:"receiptNumber"`
	Notes         string          `json:"notes"`
	Items         []DraftItem     `json:"items"`
	TaxEnabled    bool            `json:"taxEnabled"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	Discount      decimal.Decimal `json:"discount"`
}

// ReceiptWithItems is the read-side join of a receipt and its items.
type ReceiptWithItems struct {
	Receipt models.Receipt       `json:"receipt"`
	Items   []models.ReceiptItem `json:"items"`
}

// Revenue summarizes grand totals over non-deleted receipts.
type Revenue struct {
	Total  decimal.Decimal `json:"total"`
	Paid   decimal.Decimal `json:"paid"`
	Unpaid decimal.Decimal `json:"unpaid"`
}

// SaveReceipt persists a draft: totals recomputed, receipt + items +
// outbox create entry committed in one transaction. A receipt cannot
// exist without the owning business profile.
func (s *ReceiptService) SaveReceipt(ctx context.Context, draft ReceiptDraft) (*models.Receipt, error) {
	business, err := s.store.GetBusiness(ctx)
	if err != nil {
		slog.Error("SaveReceipt: failed to get business", "error", err)
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	if business == nil {
		return nil, ErrBusinessNotFound
	}

	now := time.Now().UTC()
	receiptID := uuid.NewString()

	calcItems := make([]totals.Item, len(draft.Items))
	for i, item := range draft.Items {
		calcItems[i] = totals.Item{Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	t := totals.Compute(calcItems, draft.TaxEnabled, draft.TaxRate, draft.Discount)

	receipt := &models.Receipt{
		ID:            receiptID,
		BusinessID:    business.ID,
		TemplateID:    business.SelectedTemplateID,
		ReceiptNumber: draft.ReceiptNumber,
		ReceiptDate:   draft.ReceiptDate,
		CustomerName:  draft.CustomerName,
		CustomerPhone: emptyToNil(draft.CustomerPhone),
		CustomerEmail: emptyToNil(draft.CustomerEmail),
		Subtotal:      t.Subtotal,
		TaxRate:       draft.TaxRate,
		TaxAmount:     t.TaxAmount,
		Discount:      draft.Discount,
		GrandTotal:    t.GrandTotal,
		Notes:         emptyToNil(draft.Notes),
		IsPaid:        true,
		SyncStatus:    models.SyncPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	items := make([]models.ReceiptItem, len(draft.Items))
	for i, item := range draft.Items {
		items[i] = models.ReceiptItem{
			ID:          uuid.NewString(),
			ReceiptID:   receiptID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       totals.LineTotal(item.Quantity, item.UnitPrice),
			SyncStatus:  models.SyncPending,
		}
	}

	op, err := models.NewOutboxOperation(models.EntityReceipts, receiptID,
		models.OperationCreate, models.ReceiptCreatePayload{Receipt: *receipt, Items: items}, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateReceipt(ctx, receipt, items, op); err != nil {
		slog.Error("SaveReceipt failed", "receipt_id", receiptID, "error", err)
		return nil, fmt.Errorf("failed to save receipt: %w", err)
	}
	metrics.ReceiptsCreated.Inc()
	metrics.OutboxEnqueued.WithLabelValues(string(models.EntityReceipts), string(models.OperationCreate)).Inc()

	slog.Info("Receipt saved",
		"receipt_id", receiptID,
		"receipt_number", receipt.ReceiptNumber,
		"grand_total", receipt.GrandTotal,
		"items_count", len(items),
	)
	return receipt, nil
}

// GetReceipts returns all non-deleted receipts, newest-created first.
func (s *ReceiptService) GetReceipts(ctx context.Context) ([]models.Receipt, error) {
	return s.store.ListReceipts(ctx, storage.ReceiptFilter{})
}

// GetReceiptByID returns a receipt by id, soft-deleted ones included.
func (s *ReceiptService) GetReceiptByID(ctx context.Context, id string) (*models.Receipt, error) {
	r, err := s.store.GetReceipt(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrReceiptNotFound
	}
	return r, err
}

// GetReceiptWithItems joins a receipt with its line items. Items are not
// fetched when the receipt is missing.
func (s *ReceiptService) GetReceiptWithItems(ctx context.Context, id string) (*ReceiptWithItems, error) {
	receipt, err := s.GetReceiptByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.store.GetReceiptItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt items: %w", err)
	}
	return &ReceiptWithItems{Receipt: *receipt, Items: items}, nil
}

// GetNextReceiptNumber derives the next number from the most recently
// created receipt.
func (s *ReceiptService) GetNextReceiptNumber(ctx context.Context) (string, error) {
	last, err := s.store.LastReceiptNumber(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get last receipt number: %w", err)
	}
	return totals.NextReceiptNumber(last), nil
}

// DeleteReceipt soft-deletes: deletedAt set, the row kept, one outbox
// delete entry in the same transaction. Items are deliberately left in
// place so history stays intact for item-level sync.
func (s *ReceiptService) DeleteReceipt(ctx context.Context, id string) error {
	now := time.Now().UTC()

	op, err := models.NewOutboxOperation(models.EntityReceipts, id,
		models.OperationDelete, models.ReceiptDeletePayload{ID: id, DeletedAt: now}, now)
	if err != nil {
		return err
	}

	if err := s.store.SoftDeleteReceipt(ctx, id, now, op); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrReceiptNotFound
		}
		slog.Error("DeleteReceipt failed", "receipt_id", id, "error", err)
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	metrics.ReceiptsDeleted.Inc()
	metrics.OutboxEnqueued.WithLabelValues(string(models.EntityReceipts), string(models.OperationDelete)).Inc()

	slog.Info("Receipt deleted", "receipt_id", id)
	return nil
}

// MarkReceiptPaid marks a receipt paid and returns the committed state.
func (s *ReceiptService) MarkReceiptPaid(ctx context.Context, id string) (*models.Receipt, error) {
	now := time.Now().UTC()
	return s.setPaid(ctx, id, true, &now, now)
}

// MarkReceiptUnpaid clears the paid flag and paidAt.
func (s *ReceiptService) MarkReceiptUnpaid(ctx context.Context, id string) (*models.Receipt, error) {
	return s.setPaid(ctx, id, false, nil, time.Now().UTC())
}

func (s *ReceiptService) setPaid(ctx context.Context, id string, paid bool, paidAt *time.Time, now time.Time) (*models.Receipt, error) {
	existing, err := s.GetReceiptByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// The payload carries serverId so the remote side can address the
	// already-synced record.
	payload := models.ReceiptStatusPayload{
		ID:        id,
		ServerID:  existing.ServerID,
		IsPaid:    paid,
		PaidAt:    paidAt,
		UpdatedAt: now,
	}
	op, err := models.NewOutboxOperation(models.EntityReceipts, id, models.OperationUpdate, payload, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetReceiptPaid(ctx, id, paid, paidAt, now, op); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrReceiptNotFound
		}
		slog.Error("SetReceiptPaid failed", "receipt_id", id, "paid", paid, "error", err)
		return nil, fmt.Errorf("failed to update paid status: %w", err)
	}
	metrics.OutboxEnqueued.WithLabelValues(string(models.EntityReceipts), string(models.OperationUpdate)).Inc()

	return s.GetReceiptByID(ctx, id)
}

// GetPaidReceipts returns non-deleted paid receipts, newest first.
// Backs a dashboard list: degrades to empty on storage failure.
func (s *ReceiptService) GetPaidReceipts(ctx context.Context) []models.Receipt {
	return s.listByPaid(ctx, true)
}

// GetUnpaidReceipts returns non-deleted unpaid receipts, newest first.
func (s *ReceiptService) GetUnpaidReceipts(ctx context.Context) []models.Receipt {
	return s.listByPaid(ctx, false)
}

func (s *ReceiptService) listByPaid(ctx context.Context, paid bool) []models.Receipt {
	receipts, err := s.store.ListReceipts(ctx, storage.ReceiptFilter{Paid: &paid})
	if err != nil {
		slog.Warn("listByPaid degraded to empty result", "paid", paid, "error", err)
		return nil
	}
	return receipts
}

// GetUnsyncedCount returns the number of receipts still pending sync,
// zero on storage failure.
func (s *ReceiptService) GetUnsyncedCount(ctx context.Context) int64 {
	count, err := s.store.CountReceiptsBySyncStatus(ctx, models.SyncPending)
	if err != nil {
		slog.Warn("GetUnsyncedCount degraded to zero", "error", err)
		return 0
	}
	return count
}

// GetTotalRevenue sums grand totals over non-deleted receipts, split by
// paid status. Degrades to zeros on storage failure.
func (s *ReceiptService) GetTotalRevenue(ctx context.Context) Revenue {
	zero := Revenue{Total: decimal.Zero, Paid: decimal.Zero, Unpaid: decimal.Zero}

	receipts, err := s.store.ListReceipts(ctx, storage.ReceiptFilter{})
	if err != nil {
		slog.Warn("GetTotalRevenue degraded to zero", "error", err)
		return zero
	}

	rev := zero
	for _, r := range receipts {
		rev.Total = rev.Total.Add(r.GrandTotal)
		if r.IsPaid {
			rev.Paid = rev.Paid.Add(r.GrandTotal)
		}
	}
	rev.Unpaid = rev.Total.Sub(rev.Paid)
	return rev
}

// SyncOverview is the state a future sync processor would start from.
type SyncOverview struct {
	DeviceID        string `json:"deviceId"`
	LastPulledAt    int64  `json:"lastPulledAt"`
	LastPushedAt    int64  `json:"lastPushedAt"`
	PendingReceipts int64  `json:"pendingReceipts"`
	OutboxDepth     int64  `json:"outboxDepth"`
}

// InitDeviceState ensures the device cursor row exists, creating it with
// zeroed cursors on first start. Only the external sync processor ever
// advances the cursors.
func (s *ReceiptService) InitDeviceState(ctx context.Context) (*models.SyncState, error) {
	st, err := s.store.GetSyncState(ctx, models.DeviceStateID)
	if err != nil {
		return nil, err
	}
	if st != nil {
		return st, nil
	}

	st = &models.SyncState{
		ID:       models.DeviceStateID,
		DeviceID: uuid.NewString(),
	}
	if err := s.store.PutSyncState(ctx, st); err != nil {
		return nil, err
	}
	slog.Info("Device sync state initialized", "device_id", st.DeviceID)
	return st, nil
}

// SyncOverview reports the device cursor plus queue depth.
func (s *ReceiptService) SyncOverview(ctx context.Context) (*SyncOverview, error) {
	st, err := s.store.GetSyncState(ctx, models.DeviceStateID)
	if err != nil {
		return nil, err
	}

	ov := &SyncOverview{}
	if st != nil {
		ov.DeviceID = st.DeviceID
		ov.LastPulledAt = st.LastPulledAt
		ov.LastPushedAt = st.LastPushedAt
	}

	if ov.PendingReceipts, err = s.store.CountReceiptsBySyncStatus(ctx, models.SyncPending); err != nil {
		return nil, err
	}
	if ov.OutboxDepth, err = s.store.CountOutbox(ctx); err != nil {
		return nil, err
	}
	return ov, nil
}
