package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kobina/receiptbook/internal/models"
	"github.com/kobina/receiptbook/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testBusiness() *models.Business {
	now := time.Now().UTC()
	return &models.Business{
		ID:                 uuid.NewString(),
		Name:               "Mama Ama Provisions",
		Description:        "Corner shop",
		AddressOne:         "12 Market Lane",
		Phone:              "+233200000000",
		Email:              "shop@example.com",
		Signature:          "Ama",
		Currency:           "GHS",
		TaxRate:            dec("0.1"),
		TaxEnabled:         true,
		SelectedTemplateID: "template-classic",
		OnboardingComplete: true,
		SyncStatus:         models.SyncPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func testReceipt(businessID, number string, createdAt time.Time) *models.Receipt {
	return &models.Receipt{
		ID:            uuid.NewString(),
		BusinessID:    businessID,
		TemplateID:    "template-classic",
		ReceiptNumber: number,
		ReceiptDate:   createdAt.Format("2006-01-02"),
		CustomerName:  "Kwame",
		Subtotal:      dec("25.00"),
		TaxRate:       dec("0.1"),
		TaxAmount:     dec("2.50"),
		Discount:      dec("0"),
		GrandTotal:    dec("27.50"),
		IsPaid:        true,
		SyncStatus:    models.SyncPending,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func testItems(receiptID string) []models.ReceiptItem {
	return []models.ReceiptItem{
		{
			ID: uuid.NewString(), ReceiptID: receiptID, Description: "Rice 5kg",
			Quantity: 2, UnitPrice: dec("10.00"), Total: dec("20.00"),
			SyncStatus: models.SyncPending,
		},
		{
			ID: uuid.NewString(), ReceiptID: receiptID, Description: "Oil 1L",
			Quantity: 1, UnitPrice: dec("5.00"), Total: dec("5.00"),
			SyncStatus: models.SyncPending,
		},
	}
}

func createOp(t *testing.T, r *models.Receipt, items []models.ReceiptItem) *models.OutboxOperation {
	t.Helper()
	op, err := models.NewOutboxOperation(models.EntityReceipts, r.ID,
		models.OperationCreate, models.ReceiptCreatePayload{Receipt: *r, Items: items}, r.CreatedAt)
	if err != nil {
		t.Fatalf("NewOutboxOperation failed: %v", err)
	}
	return op
}

func mustCreateReceipt(t *testing.T, store *SQLiteStore, r *models.Receipt, items []models.ReceiptItem) {
	t.Helper()
	if err := store.CreateReceipt(context.Background(), r, items, createOp(t, r, items)); err != nil {
		t.Fatalf("CreateReceipt failed: %v", err)
	}
}

func TestBusinessStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("GetBusiness on empty store returns nil", func(t *testing.T) {
		b, err := store.GetBusiness(ctx)
		if err != nil {
			t.Fatalf("GetBusiness failed: %v", err)
		}
		if b != nil {
			t.Errorf("expected nil business, got %+v", b)
		}
	})

	t.Run("ReplaceBusiness round-trips the profile", func(t *testing.T) {
		original := testBusiness()
		if err := store.ReplaceBusiness(ctx, original); err != nil {
			t.Fatalf("ReplaceBusiness failed: %v", err)
		}

		got, err := store.GetBusiness(ctx)
		if err != nil {
			t.Fatalf("GetBusiness failed: %v", err)
		}
		if got == nil {
			t.Fatal("expected business, got nil")
		}
		if got.ID != original.ID {
			t.Errorf("ID mismatch: got %s, want %s", got.ID, original.ID)
		}
		if got.Name != original.Name {
			t.Errorf("Name mismatch: got %s, want %s", got.Name, original.Name)
		}
		if !got.TaxRate.Equal(original.TaxRate) {
			t.Errorf("TaxRate mismatch: got %s, want %s", got.TaxRate, original.TaxRate)
		}
		if got.AddressTwo != nil {
			t.Errorf("expected nil AddressTwo, got %q", *got.AddressTwo)
		}
	})

	t.Run("ReplaceBusiness keeps exactly one profile", func(t *testing.T) {
		replacement := testBusiness()
		replacement.Name = "New Name Ventures"
		if err := store.ReplaceBusiness(ctx, replacement); err != nil {
			t.Fatalf("ReplaceBusiness failed: %v", err)
		}

		got, err := store.GetBusiness(ctx)
		if err != nil {
			t.Fatalf("GetBusiness failed: %v", err)
		}
		if got.ID != replacement.ID {
			t.Errorf("expected replacement profile %s, got %s", replacement.ID, got.ID)
		}
	})

	t.Run("UpdateBusiness writes profile and outbox together", func(t *testing.T) {
		b, err := store.GetBusiness(ctx)
		if err != nil || b == nil {
			t.Fatalf("GetBusiness failed: %v", err)
		}
		b.Name = "Renamed Ventures"
		b.UpdatedAt = time.Now().UTC()

		op, err := models.NewOutboxOperation(models.EntityBusiness, b.ID,
			models.OperationUpdate, models.BusinessUpdatePayload{Business: *b}, b.UpdatedAt)
		if err != nil {
			t.Fatalf("NewOutboxOperation failed: %v", err)
		}
		if err := store.UpdateBusiness(ctx, b, op); err != nil {
			t.Fatalf("UpdateBusiness failed: %v", err)
		}

		got, _ := store.GetBusiness(ctx)
		if got.Name != "Renamed Ventures" {
			t.Errorf("Name not updated: got %s", got.Name)
		}
		ops, err := store.ListOutboxForEntity(ctx, b.ID)
		if err != nil {
			t.Fatalf("ListOutboxForEntity failed: %v", err)
		}
		if len(ops) != 1 {
			t.Fatalf("expected 1 outbox entry, got %d", len(ops))
		}
		if ops[0].EntityType != models.EntityBusiness || ops[0].Operation != models.OperationUpdate {
			t.Errorf("unexpected outbox entry: %s/%s", ops[0].EntityType, ops[0].Operation)
		}
	})

	t.Run("UpdateBusiness after clear returns not found", func(t *testing.T) {
		if err := store.ClearBusiness(ctx); err != nil {
			t.Fatalf("ClearBusiness failed: %v", err)
		}
		b := testBusiness()
		op, _ := models.NewOutboxOperation(models.EntityBusiness, b.ID,
			models.OperationUpdate, models.BusinessUpdatePayload{Business: *b}, time.Now().UTC())
		err := store.UpdateBusiness(ctx, b, op)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestReceiptStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	business := testBusiness()
	if err := store.ReplaceBusiness(ctx, business); err != nil {
		t.Fatalf("ReplaceBusiness failed: %v", err)
	}

	t.Run("CreateReceipt commits receipt, items and outbox together", func(t *testing.T) {
		r := testReceipt(business.ID, "#001", time.Now().UTC())
		items := testItems(r.ID)
		mustCreateReceipt(t, store, r, items)

		got, err := store.GetReceipt(ctx, r.ID)
		if err != nil {
			t.Fatalf("GetReceipt failed: %v", err)
		}
		if got.ReceiptNumber != "#001" {
			t.Errorf("ReceiptNumber mismatch: got %s", got.ReceiptNumber)
		}
		if !got.GrandTotal.Equal(dec("27.50")) {
			t.Errorf("GrandTotal mismatch: got %s, want 27.50", got.GrandTotal)
		}

		gotItems, err := store.GetReceiptItems(ctx, r.ID)
		if err != nil {
			t.Fatalf("GetReceiptItems failed: %v", err)
		}
		if len(gotItems) != 2 {
			t.Fatalf("expected 2 items, got %d", len(gotItems))
		}
		if !gotItems[0].Total.Equal(dec("20.00")) {
			t.Errorf("item total mismatch: got %s, want 20.00", gotItems[0].Total)
		}

		ops, err := store.ListOutboxForEntity(ctx, r.ID)
		if err != nil {
			t.Fatalf("ListOutboxForEntity failed: %v", err)
		}
		if len(ops) != 1 {
			t.Fatalf("expected 1 outbox entry, got %d", len(ops))
		}
		if ops[0].Operation != models.OperationCreate {
			t.Errorf("expected create operation, got %s", ops[0].Operation)
		}
		if ops[0].RetryCount != 0 {
			t.Errorf("expected retry count 0, got %d", ops[0].RetryCount)
		}
	})

	t.Run("CreateReceipt rolls back fully when outbox insert fails", func(t *testing.T) {
		before, err := store.CountOutbox(ctx)
		if err != nil {
			t.Fatalf("CountOutbox failed: %v", err)
		}

		r := testReceipt(business.ID, "#002", time.Now().UTC())
		items := testItems(r.ID)
		op := createOp(t, r, items)
		op.Operation = models.Operation("bogus") // violates the CHECK constraint

		if err := store.CreateReceipt(ctx, r, items, op); err == nil {
			t.Fatal("expected CreateReceipt to fail")
		}

		if _, err := store.GetReceipt(ctx, r.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected no receipt after rollback, got err=%v", err)
		}
		gotItems, err := store.GetReceiptItems(ctx, r.ID)
		if err != nil {
			t.Fatalf("GetReceiptItems failed: %v", err)
		}
		if len(gotItems) != 0 {
			t.Errorf("expected no items after rollback, got %d", len(gotItems))
		}
		after, _ := store.CountOutbox(ctx)
		if after != before {
			t.Errorf("outbox grew across rollback: before %d, after %d", before, after)
		}
	})

	t.Run("CreateReceipt with duplicate id reports duplicate", func(t *testing.T) {
		r := testReceipt(business.ID, "#002", time.Now().UTC())
		mustCreateReceipt(t, store, r, nil)

		dupe := testReceipt(business.ID, "#003", time.Now().UTC())
		dupe.ID = r.ID
		err := store.CreateReceipt(ctx, dupe, nil, createOp(t, dupe, nil))
		if !errors.Is(err, storage.ErrDuplicateID) {
			t.Errorf("expected ErrDuplicateID, got %v", err)
		}
	})

	t.Run("GetReceipt on missing id returns not found", func(t *testing.T) {
		_, err := store.GetReceipt(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestReceiptQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	business := testBusiness()
	if err := store.ReplaceBusiness(ctx, business); err != nil {
		t.Fatalf("ReplaceBusiness failed: %v", err)
	}

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := testReceipt(business.ID, "#001", base)
	second := testReceipt(business.ID, "#002", base.Add(time.Minute))
	second.IsPaid = false
	third := testReceipt(business.ID, "#003", base.Add(2*time.Minute))
	mustCreateReceipt(t, store, first, testItems(first.ID))
	mustCreateReceipt(t, store, second, nil)
	mustCreateReceipt(t, store, third, nil)

	t.Run("ListReceipts returns newest-created first", func(t *testing.T) {
		receipts, err := store.ListReceipts(ctx, storage.ReceiptFilter{})
		if err != nil {
			t.Fatalf("ListReceipts failed: %v", err)
		}
		if len(receipts) != 3 {
			t.Fatalf("expected 3 receipts, got %d", len(receipts))
		}
		if receipts[0].ID != third.ID || receipts[2].ID != first.ID {
			t.Errorf("wrong order: got %s..%s", receipts[0].ReceiptNumber, receipts[2].ReceiptNumber)
		}
	})

	t.Run("ListReceipts filters by paid flag", func(t *testing.T) {
		unpaid := false
		receipts, err := store.ListReceipts(ctx, storage.ReceiptFilter{Paid: &unpaid})
		if err != nil {
			t.Fatalf("ListReceipts failed: %v", err)
		}
		if len(receipts) != 1 || receipts[0].ID != second.ID {
			t.Errorf("expected only the unpaid receipt, got %d rows", len(receipts))
		}
	})

	t.Run("LastReceiptNumber follows creation order", func(t *testing.T) {
		last, err := store.LastReceiptNumber(ctx)
		if err != nil {
			t.Fatalf("LastReceiptNumber failed: %v", err)
		}
		if last != "#003" {
			t.Errorf("expected #003, got %s", last)
		}
	})

	t.Run("Soft delete hides from listings but keeps the row", func(t *testing.T) {
		now := time.Now().UTC()
		op, _ := models.NewOutboxOperation(models.EntityReceipts, third.ID,
			models.OperationDelete, models.ReceiptDeletePayload{ID: third.ID, DeletedAt: now}, now)
		if err := store.SoftDeleteReceipt(ctx, third.ID, now, op); err != nil {
			t.Fatalf("SoftDeleteReceipt failed: %v", err)
		}

		receipts, err := store.ListReceipts(ctx, storage.ReceiptFilter{})
		if err != nil {
			t.Fatalf("ListReceipts failed: %v", err)
		}
		for _, r := range receipts {
			if r.ID == third.ID {
				t.Error("soft-deleted receipt still listed")
			}
		}

		got, err := store.GetReceipt(ctx, third.ID)
		if err != nil {
			t.Fatalf("GetReceipt failed: %v", err)
		}
		if got.DeletedAt == nil {
			t.Error("expected DeletedAt to be set")
		}
		if got.SyncStatus != models.SyncPending {
			t.Errorf("expected pending status, got %s", got.SyncStatus)
		}

		all, err := store.ListReceipts(ctx, storage.ReceiptFilter{IncludeDeleted: true})
		if err != nil {
			t.Fatalf("ListReceipts failed: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 rows including deleted, got %d", len(all))
		}
	})

	t.Run("LastReceiptNumber still counts soft-deleted receipts", func(t *testing.T) {
		last, err := store.LastReceiptNumber(ctx)
		if err != nil {
			t.Fatalf("LastReceiptNumber failed: %v", err)
		}
		if last != "#003" {
			t.Errorf("deleted receipt's number should stay burned: got %s", last)
		}
	})

	t.Run("SoftDeleteReceipt on missing id writes nothing", func(t *testing.T) {
		before, _ := store.CountOutbox(ctx)
		now := time.Now().UTC()
		op, _ := models.NewOutboxOperation(models.EntityReceipts, "missing",
			models.OperationDelete, models.ReceiptDeletePayload{ID: "missing", DeletedAt: now}, now)
		err := store.SoftDeleteReceipt(ctx, "missing", now, op)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		after, _ := store.CountOutbox(ctx)
		if after != before {
			t.Errorf("outbox grew for a missing receipt: before %d, after %d", before, after)
		}
	})

	t.Run("CountReceiptsBySyncStatus excludes deleted rows", func(t *testing.T) {
		count, err := store.CountReceiptsBySyncStatus(ctx, models.SyncPending)
		if err != nil {
			t.Fatalf("CountReceiptsBySyncStatus failed: %v", err)
		}
		if count != 2 {
			t.Errorf("expected 2 pending receipts, got %d", count)
		}
	})
}

func TestSetReceiptPaid(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	business := testBusiness()
	if err := store.ReplaceBusiness(ctx, business); err != nil {
		t.Fatalf("ReplaceBusiness failed: %v", err)
	}
	r := testReceipt(business.ID, "#001", time.Now().UTC())
	r.IsPaid = false
	mustCreateReceipt(t, store, r, nil)

	statusOp := func(paid bool, paidAt *time.Time, at time.Time) *models.OutboxOperation {
		op, err := models.NewOutboxOperation(models.EntityReceipts, r.ID, models.OperationUpdate,
			models.ReceiptStatusPayload{ID: r.ID, IsPaid: paid, PaidAt: paidAt, UpdatedAt: at}, at)
		if err != nil {
			t.Fatalf("NewOutboxOperation failed: %v", err)
		}
		return op
	}

	t.Run("paid and unpaid round-trip", func(t *testing.T) {
		now := time.Now().UTC()
		if err := store.SetReceiptPaid(ctx, r.ID, true, &now, now, statusOp(true, &now, now)); err != nil {
			t.Fatalf("SetReceiptPaid failed: %v", err)
		}
		got, _ := store.GetReceipt(ctx, r.ID)
		if !got.IsPaid || got.PaidAt == nil {
			t.Errorf("expected paid receipt with PaidAt set, got paid=%v", got.IsPaid)
		}

		later := now.Add(time.Second)
		if err := store.SetReceiptPaid(ctx, r.ID, false, nil, later, statusOp(false, nil, later)); err != nil {
			t.Fatalf("SetReceiptPaid failed: %v", err)
		}
		got, _ = store.GetReceipt(ctx, r.ID)
		if got.IsPaid {
			t.Error("expected unpaid receipt")
		}
		if got.PaidAt != nil {
			t.Error("expected PaidAt cleared")
		}
	})

	t.Run("toggles append update entries in creation order", func(t *testing.T) {
		ops, err := store.ListOutboxForEntity(ctx, r.ID)
		if err != nil {
			t.Fatalf("ListOutboxForEntity failed: %v", err)
		}
		// create + two updates
		if len(ops) != 3 {
			t.Fatalf("expected 3 outbox entries, got %d", len(ops))
		}
		if ops[0].Operation != models.OperationCreate ||
			ops[1].Operation != models.OperationUpdate ||
			ops[2].Operation != models.OperationUpdate {
			t.Errorf("wrong op sequence: %s, %s, %s", ops[0].Operation, ops[1].Operation, ops[2].Operation)
		}
		if !(ops[0].ID < ops[1].ID && ops[1].ID < ops[2].ID) {
			t.Errorf("outbox ids not ordered: %d, %d, %d", ops[0].ID, ops[1].ID, ops[2].ID)
		}
	})

	t.Run("rollback leaves the paid flag untouched", func(t *testing.T) {
		now := time.Now().UTC()
		op := statusOp(true, &now, now)
		op.EntityType = models.EntityType("bogus") // violates the CHECK constraint
		if err := store.SetReceiptPaid(ctx, r.ID, true, &now, now, op); err == nil {
			t.Fatal("expected SetReceiptPaid to fail")
		}
		got, _ := store.GetReceipt(ctx, r.ID)
		if got.IsPaid {
			t.Error("paid flag changed despite rollback")
		}
	})

	t.Run("missing receipt returns not found", func(t *testing.T) {
		now := time.Now().UTC()
		err := store.SetReceiptPaid(ctx, "missing", true, &now, now, statusOp(true, &now, now))
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSyncState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("missing cursor returns nil", func(t *testing.T) {
		st, err := store.GetSyncState(ctx, models.DeviceStateID)
		if err != nil {
			t.Fatalf("GetSyncState failed: %v", err)
		}
		if st != nil {
			t.Errorf("expected nil, got %+v", st)
		}
	})

	t.Run("put and get round-trip", func(t *testing.T) {
		want := &models.SyncState{
			ID:           models.DeviceStateID,
			LastPulledAt: 1700000000000,
			LastPushedAt: 1700000001000,
			DeviceID:     uuid.NewString(),
		}
		if err := store.PutSyncState(ctx, want); err != nil {
			t.Fatalf("PutSyncState failed: %v", err)
		}
		got, err := store.GetSyncState(ctx, models.DeviceStateID)
		if err != nil {
			t.Fatalf("GetSyncState failed: %v", err)
		}
		if got.DeviceID != want.DeviceID || got.LastPulledAt != want.LastPulledAt {
			t.Errorf("cursor mismatch: got %+v, want %+v", got, want)
		}
	})
}
