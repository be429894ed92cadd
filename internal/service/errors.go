package service

import "errors"

var (
	// ErrBusinessNotFound is returned when an operation requires the
	// business profile and onboarding has not completed yet.
	ErrBusinessNotFound = errors.New("business profile not found")

	// ErrReceiptNotFound is returned when the addressed receipt does
	// not exist.
	ErrReceiptNotFound = errors.New("receipt not found")
)
