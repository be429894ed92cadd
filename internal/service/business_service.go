package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kobina/receiptbook/internal/metrics"
	"github.com/kobina/receiptbook/internal/models"
	"github.com/kobina/receiptbook/internal/storage"
)

// BusinessService manages the single business profile.
type BusinessService struct {
	store storage.Store
}

// NewBusinessService creates a BusinessService with the given storage backend.
func NewBusinessService(store storage.Store) *BusinessService {
	return &BusinessService{store: store}
}

// GetBusiness returns the current profile, or nil when onboarding has
// not completed yet.
func (s *BusinessService) GetBusiness(ctx context.Context) (*models.Business, error) {
	return s.store.GetBusiness(ctx)
}

// SaveBusiness replaces the profile wholesale. Used at onboarding
// completion and after a login fetch from the server, which is why it
// does not enqueue an outbox entry: the server already has this state.
func (s *BusinessService) SaveBusiness(ctx context.Context, b *models.Business) (*models.Business, error) {
	now := time.Now().UTC()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = now
	}
	if b.SyncStatus == "" {
		b.SyncStatus = models.SyncPending
	}

	if err := s.store.ReplaceBusiness(ctx, b); err != nil {
		slog.Error("SaveBusiness failed", "error", err)
		return nil, fmt.Errorf("failed to save business: %w", err)
	}
	slog.Info("Business profile saved", "business_id", b.ID, "name", b.Name)
	return b, nil
}

// BusinessUpdate carries a partial profile change. Nil fields are left
// untouched. For the optional profile fields (AddressTwo,
// RegistrationNumber, Logo, Motto) an empty string clears the value.
type BusinessUpdate struct {
	Name               *string
	Description        *string
	AddressOne         *string
	AddressTwo         *string
	Phone              *string
	Email              *string
	RegistrationNumber *string
	Logo               *string
	Motto              *string
	Signature          *string
	Currency           *string
	TaxRate            *decimal.Decimal
	TaxEnabled         *bool
	SelectedTemplateID *string
	OnboardingComplete *bool
}

// UpdateBusiness applies a partial update, bumps updatedAt, re-marks the
// profile pending and appends one outbox update entry in the same
// transaction. Identity and createdAt are never overwritten.
func (s *BusinessService) UpdateBusiness(ctx context.Context, upd BusinessUpdate) (*models.Business, error) {
	b, err := s.store.GetBusiness(ctx)
	if err != nil {
		slog.Error("UpdateBusiness: failed to get business", "error", err)
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	if b == nil {
		return nil, ErrBusinessNotFound
	}

	applyBusinessUpdate(b, upd)

	now := time.Now().UTC()
	b.UpdatedAt = now
	b.SyncStatus = models.SyncPending

	op, err := models.NewOutboxOperation(models.EntityBusiness, b.ID,
		models.OperationUpdate, models.BusinessUpdatePayload{Business: *b}, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateBusiness(ctx, b, op); err != nil {
		slog.Error("UpdateBusiness failed", "business_id", b.ID, "error", err)
		return nil, fmt.Errorf("failed to update business: %w", err)
	}
	metrics.OutboxEnqueued.WithLabelValues(string(models.EntityBusiness), string(models.OperationUpdate)).Inc()

	slog.Info("Business profile updated", "business_id", b.ID)
	return b, nil
}

// CompleteOnboarding marks onboarding done.
func (s *BusinessService) CompleteOnboarding(ctx context.Context) (*models.Business, error) {
	done := true
	return s.UpdateBusiness(ctx, BusinessUpdate{OnboardingComplete: &done})
}

// ClearBusiness removes the profile (logout).
func (s *BusinessService) ClearBusiness(ctx context.Context) error {
	if err := s.store.ClearBusiness(ctx); err != nil {
		slog.Error("ClearBusiness failed", "error", err)
		return fmt.Errorf("failed to clear business: %w", err)
	}
	return nil
}

func applyBusinessUpdate(b *models.Business, upd BusinessUpdate) {
	if upd.Name != nil {
		b.Name = *upd.Name
	}
	if upd.Description != nil {
		b.Description = *upd.Description
	}
	if upd.AddressOne != nil {
		b.AddressOne = *upd.AddressOne
	}
	if upd.AddressTwo != nil {
		b.AddressTwo = emptyToNil(*upd.AddressTwo)
	}
	if upd.Phone != nil {
		b.Phone = *upd.Phone
	}
	if upd.Email != nil {
		b.Email = *upd.Email
	}
	if upd.RegistrationNumber != nil {
		b.RegistrationNumber = emptyToNil(*upd.RegistrationNumber)
	}
	if upd.Logo != nil {
		b.Logo = emptyToNil(*upd.Logo)
	}
	if upd.Motto != nil {
		b.Motto = emptyToNil(*upd.Motto)
	}
	if upd.Signature != nil {
		b.Signature = *upd.Signature
	}
	if upd.Currency != nil {
		b.Currency = *upd.Currency
	}
	if upd.TaxRate != nil {
		b.TaxRate = *upd.TaxRate
	}
	if upd.TaxEnabled != nil {
		b.TaxEnabled = *upd.TaxEnabled
	}
	if upd.SelectedTemplateID != nil {
		b.SelectedTemplateID = *upd.SelectedTemplateID
	}
	if upd.OnboardingComplete != nil {
		b.OnboardingComplete = *upd.OnboardingComplete
	}
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
