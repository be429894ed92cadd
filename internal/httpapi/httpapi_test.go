package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/kobina/receiptbook/internal/service"
	"github.com/kobina/receiptbook/internal/storage/sqlite"
)

func newTestAPI(t *testing.T) http.Handler {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	api := New(service.NewBusinessService(store), service.NewReceiptService(store))
	return api.Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dest); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func onboard(t *testing.T, handler http.Handler) {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPut, "/api/business", map[string]any{
		"name":               "Mama Ama Provisions",
		"currency":           "GHS",
		"taxRate":            0.1,
		"taxEnabled":         true,
		"selectedTemplateId": "template-classic",
		"onboardingComplete": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("onboarding PUT returned %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBusinessEndpoints(t *testing.T) {
	handler := newTestAPI(t)

	t.Run("GET before onboarding returns 404", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/business", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("PUT then GET round-trips", func(t *testing.T) {
		onboard(t, handler)

		rec := doJSON(t, handler, http.MethodGet, "/api/business", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp struct {
			Business struct {
				Name     string `json:"name"`
				Currency string `json:"currency"`
			} `json:"business"`
		}
		decodeBody(t, rec, &resp)
		if resp.Business.Name != "Mama Ama Provisions" || resp.Business.Currency != "GHS" {
			t.Errorf("unexpected business: %+v", resp.Business)
		}
	})

	t.Run("PATCH applies a partial update", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPatch, "/api/business", map[string]any{
			"name": "Renamed Ventures",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Business struct {
				Name     string `json:"name"`
				Currency string `json:"currency"`
			} `json:"business"`
		}
		decodeBody(t, rec, &resp)
		if resp.Business.Name != "Renamed Ventures" {
			t.Errorf("Name: got %s", resp.Business.Name)
		}
		if resp.Business.Currency != "GHS" {
			t.Errorf("Currency should survive the patch, got %s", resp.Business.Currency)
		}
	})

	t.Run("PATCH with a malformed body returns 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/api/business", bytes.NewBufferString("{nope"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestReceiptEndpoints(t *testing.T) {
	handler := newTestAPI(t)

	draft := map[string]any{
		"customerName":  "Kwame",
		"receiptDate":   "2026-03-01",
		"receiptNumber": "#001",
		"taxEnabled":    true,
		"taxRate":       0.1,
		"discount":      0,
		"items": []map[string]any{
			{"description": "Rice 5kg", "quantity": 2, "unitPrice": 10.00},
			{"description": "Oil 1L", "quantity": 1, "unitPrice": 5.00},
		},
	}

	t.Run("POST without a profile returns 409", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/receipts", draft)
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	onboard(t, handler)

	var receiptID string
	t.Run("POST creates a receipt with computed totals", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/receipts", draft)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Receipt struct {
				ID         string  `json:"id"`
				GrandTotal float64 `json:"grandTotal"`
				IsPaid     bool    `json:"isPaid"`
			} `json:"receipt"`
		}
		decodeBody(t, rec, &resp)
		if resp.Receipt.GrandTotal != 27.50 {
			t.Errorf("GrandTotal: got %v, want 27.5", resp.Receipt.GrandTotal)
		}
		if !resp.Receipt.IsPaid {
			t.Error("expected new receipt to be paid")
		}
		receiptID = resp.Receipt.ID
	})

	t.Run("GET by id includes items", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/receipts/"+receiptID, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp struct {
			Items []struct {
				Description string `json:"description"`
			} `json:"items"`
		}
		decodeBody(t, rec, &resp)
		if len(resp.Items) != 2 {
			t.Errorf("expected 2 items, got %d", len(resp.Items))
		}
	})

	t.Run("next-number advances", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/receipts/next-number", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp struct {
			ReceiptNumber string `json:"receiptNumber"`
		}
		decodeBody(t, rec, &resp)
		if resp.ReceiptNumber != "#002" {
			t.Errorf("expected #002, got %s", resp.ReceiptNumber)
		}
	})

	t.Run("paid toggle round-trips", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodDelete, "/api/receipts/"+receiptID+"/paid", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Receipt struct {
				IsPaid bool `json:"isPaid"`
			} `json:"receipt"`
		}
		decodeBody(t, rec, &resp)
		if resp.Receipt.IsPaid {
			t.Error("expected unpaid after DELETE .../paid")
		}

		rec = doJSON(t, handler, http.MethodPost, "/api/receipts/"+receiptID+"/paid", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		decodeBody(t, rec, &resp)
		if !resp.Receipt.IsPaid {
			t.Error("expected paid after POST .../paid")
		}
	})

	t.Run("DELETE soft-deletes and listing shrinks", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodDelete, "/api/receipts/"+receiptID, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		rec = doJSON(t, handler, http.MethodGet, "/api/receipts", nil)
		var resp struct {
			Receipts []any `json:"receipts"`
		}
		decodeBody(t, rec, &resp)
		if len(resp.Receipts) != 0 {
			t.Errorf("expected empty listing, got %d", len(resp.Receipts))
		}
	})

	t.Run("unknown receipt returns 404", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/receipts/missing", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestSummaryAndSyncStatus(t *testing.T) {
	handler := newTestAPI(t)
	onboard(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/api/receipts", map[string]any{
		"customerName":  "Kwame",
		"receiptNumber": "#001",
		"items": []map[string]any{
			{"description": "Soap", "quantity": 1, "unitPrice": 10.00},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST receipt returned %d", rec.Code)
	}

	t.Run("summary reports revenue and pending count", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/summary", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp struct {
			Revenue struct {
				Total float64 `json:"total"`
				Paid  float64 `json:"paid"`
			} `json:"revenue"`
			UnsyncedCount int64 `json:"unsyncedCount"`
		}
		decodeBody(t, rec, &resp)
		if resp.Revenue.Total != 10.00 {
			t.Errorf("Total: got %v, want 10", resp.Revenue.Total)
		}
		if resp.UnsyncedCount != 1 {
			t.Errorf("UnsyncedCount: got %d, want 1", resp.UnsyncedCount)
		}
	})

	t.Run("sync status reports queue depth", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/sync/status", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp struct {
			PendingReceipts int64 `json:"pendingReceipts"`
			OutboxDepth     int64 `json:"outboxDepth"`
		}
		decodeBody(t, rec, &resp)
		if resp.PendingReceipts != 1 || resp.OutboxDepth != 1 {
			t.Errorf("got pending=%d depth=%d, want 1/1", resp.PendingReceipts, resp.OutboxDepth)
		}
	})
}
