package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Business represents the business profile receipts are issued against.
// Exactly one non-deleted business exists per local store; saving a new
// profile replaces the old one wholesale.
type Business struct {
	// ID is the locally generated identifier (UUID format).
	ID string `json:"id"`

	// ServerID is the remote identifier, set once the profile has synced.
	ServerID *int64 `json:"serverId,omitempty"`

	// Name is the business display name shown on receipts.
	Name string `json:"name"`

	// Description is a short tagline or summary.
	Description string `json:"description"`

	AddressOne string  `json:"addressOne"`
	AddressTwo *string `json:"addressTwo,omitempty"`
	Phone      string  `json:"phone"`
	Email      string  `json:"email"`

	// RegistrationNumber is the official company registration, if any.
	RegistrationNumber *string `json:"registrationNumber,omitempty"`

	// Logo is a base64 image or URL.
	Logo  *string `json:"logo,omitempty"`
	Motto *string `json:"motto,omitempty"`

	// Signature is the signature line printed on receipts.
	Signature string `json:"signature"`

	// Currency is the ISO currency code receipts are denominated in.
	Currency string `json:"currency"`

	// TaxRate is a 0-1 fraction, e.g. 0.10 for 10%.
	TaxRate decimal.Decimal `json:"taxRate"`

	// TaxEnabled controls whether new receipts apply TaxRate at all.
	TaxEnabled bool `json:"taxEnabled"`

	// SelectedTemplateID is the receipt template chosen during onboarding.
	// New receipts copy it so later template changes don't rewrite history.
	SelectedTemplateID string `json:"selectedTemplateId"`

	OnboardingComplete bool `json:"onboardingComplete"`

	SyncStatus SyncStatus `json:"syncStatus"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
