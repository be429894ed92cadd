// Package httpapi exposes the business profile, receipt and sync-queue
// operations as a JSON HTTP API for the local frontend.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kobina/receiptbook/internal/models"
	"github.com/kobina/receiptbook/internal/service"
)

type API struct {
	businesses *service.BusinessService
	receipts   *service.ReceiptService
}

func New(businesses *service.BusinessService, receipts *service.ReceiptService) *API {
	return &API{businesses: businesses, receipts: receipts}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)

	mux.HandleFunc("/api/business", a.handleBusiness)
	mux.HandleFunc("/api/business/onboarding", a.handleOnboarding)

	mux.HandleFunc("/api/receipts", a.handleReceipts)
	mux.HandleFunc("/api/receipts/next-number", a.handleNextNumber)
	mux.HandleFunc("/api/receipts/", a.handleReceiptActions)

	mux.HandleFunc("/api/summary", a.handleSummary)
	mux.HandleFunc("/api/sync/status", a.handleSyncStatus)

	return mux
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

// businessUpdateRequest mirrors service.BusinessUpdate with JSON tags.
// Absent fields stay untouched; empty strings clear the optional fields.
type businessUpdateRequest struct {
	Name               *string          `json:"name"`
	Description        *string          `json:"description"`
	AddressOne         *string          `json:"addressOne"`
	AddressTwo         *string          `json:"addressTwo"`
	Phone              *string          `json:"phone"`
	Email              *string          `json:"email"`
	RegistrationNumber *string          `json:"registrationNumber"`
	Logo               *string          `json:"logo"`
	Motto              *string          `json:"motto"`
	Signature          *string          `json:"signature"`
	Currency           *string          `json:"currency"`
	TaxRate            *decimal.Decimal `json:"taxRate"`
	TaxEnabled         *bool            `json:"taxEnabled"`
	SelectedTemplateID *string          `json:"selectedTemplateId"`
	OnboardingComplete *bool            `json:"onboardingComplete"`
}

func (req businessUpdateRequest) toUpdate() service.BusinessUpdate {
	return service.BusinessUpdate{
		Name:               req.Name,
		Description:        req.Description,
		AddressOne:         req.AddressOne,
		AddressTwo:         req.AddressTwo,
		Phone:              req.Phone,
		Email:              req.Email,
		RegistrationNumber: req.RegistrationNumber,
		Logo:               req.Logo,
		Motto:              req.Motto,
		Signature:          req.Signature,
		Currency:           req.Currency,
		TaxRate:            req.TaxRate,
		TaxEnabled:         req.TaxEnabled,
		SelectedTemplateID: req.SelectedTemplateID,
		OnboardingComplete: req.OnboardingComplete,
	}
}

func (a *API) handleBusiness(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		business, err := a.businesses.GetBusiness(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if business == nil {
			writeError(w, http.StatusNotFound, service.ErrBusinessNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"business": business})
	case http.MethodPut:
		var req models.Business
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		business, err := a.businesses.SaveBusiness(r.Context(), &req)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"business": business})
	case http.MethodPatch:
		var req businessUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		business, err := a.businesses.UpdateBusiness(r.Context(), req.toUpdate())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"business": business})
	case http.MethodDelete:
		if err := a.businesses.ClearBusiness(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	business, err := a.businesses.CompleteOnboarding(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"business": business})
}

func (a *API) handleReceipts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		switch r.URL.Query().Get("paid") {
		case "true":
			writeJSON(w, http.StatusOK, map[string]any{"receipts": a.receipts.GetPaidReceipts(r.Context())})
		case "false":
			writeJSON(w, http.StatusOK, map[string]any{"receipts": a.receipts.GetUnpaidReceipts(r.Context())})
		default:
			receipts, err := a.receipts.GetReceipts(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"receipts": receipts})
		}
	case http.MethodPost:
		var draft service.ReceiptDraft
		if err := decodeJSON(r, &draft); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		receipt, err := a.receipts.SaveReceipt(r.Context(), draft)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"receipt": receipt})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleNextNumber(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	next, err := a.receipts.GetNextReceiptNumber(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"receiptNumber": next})
}

func (a *API) handleReceiptActions(w http.ResponseWriter, r *http.Request) {
	prefix := "/api/receipts/"
	tail := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/"))
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("receipt id required"))
		return
	}

	if strings.HasSuffix(tail, "/paid") {
		id := strings.Trim(strings.TrimSuffix(tail, "/paid"), "/")
		if id == "" {
			writeError(w, http.StatusBadRequest, errors.New("receipt id required"))
			return
		}
		a.handlePaid(w, r, id)
		return
	}

	if strings.Contains(tail, "/") {
		writeError(w, http.StatusBadRequest, errors.New("unknown receipt action"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		withItems, err := a.receipts.GetReceiptWithItems(r.Context(), tail)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, withItems)
	case http.MethodDelete:
		if err := a.receipts.DeleteReceipt(r.Context(), tail); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handlePaid(w http.ResponseWriter, r *http.Request, id string) {
	var (
		receipt *models.Receipt
		err     error
	)
	switch r.Method {
	case http.MethodPost:
		receipt, err = a.receipts.MarkReceiptPaid(r.Context(), id)
	case http.MethodDelete:
		receipt, err = a.receipts.MarkReceiptUnpaid(r.Context(), id)
	default:
		writeMethodNotAllowed(w)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"receipt": receipt})
}

func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"revenue":       a.receipts.GetTotalRevenue(r.Context()),
		"unsyncedCount": a.receipts.GetUnsyncedCount(r.Context()),
	})
}

func (a *API) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	overview, err := a.receipts.SyncOverview(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// writeServiceError maps the service sentinels onto status codes: a
// missing profile blocks writes with a conflict, a missing receipt is a
// plain not-found, anything else is internal.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrBusinessNotFound):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, service.ErrReceiptNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx details stay in the logs; clients get a generic message.
	msg := err.Error()
	if status >= 500 {
		slog.Error("Request failed", "status", status, "error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
