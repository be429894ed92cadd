package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kobina/receiptbook/internal/models"
	"github.com/kobina/receiptbook/internal/storage"
)

const businessColumns = `id, server_id, name, description, address_one, address_two,
	phone, email, registration_number, logo, motto, signature, currency,
	tax_rate, tax_enabled, selected_template_id, onboarding_complete,
	sync_status, created_at, updated_at`

// GetBusiness returns the single business profile, or nil when none has
// been saved yet.
func (s *SQLiteStore) GetBusiness(ctx context.Context) (*models.Business, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+businessColumns+` FROM business LIMIT 1`,
	)
	b, err := scanBusiness(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	return b, nil
}

// ReplaceBusiness clears the business table and inserts b atomically.
func (s *SQLiteStore) ReplaceBusiness(ctx context.Context, b *models.Business) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM business"); err != nil {
		return fmt.Errorf("failed to clear business: %w", err)
	}
	if err := insertBusiness(ctx, tx, b); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateBusiness overwrites the stored profile and appends op in one
// transaction.
func (s *SQLiteStore) UpdateBusiness(ctx context.Context, b *models.Business, op *models.OutboxOperation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE business SET
			server_id = ?, name = ?, description = ?, address_one = ?, address_two = ?,
			phone = ?, email = ?, registration_number = ?, logo = ?, motto = ?,
			signature = ?, currency = ?, tax_rate = ?, tax_enabled = ?,
			selected_template_id = ?, onboarding_complete = ?, sync_status = ?,
			updated_at = ?
		 WHERE id = ?`,
		nullableInt64(b.ServerID), b.Name, b.Description, b.AddressOne,
		nullableString(b.AddressTwo), b.Phone, b.Email,
		nullableString(b.RegistrationNumber), nullableString(b.Logo),
		nullableString(b.Motto), b.Signature, b.Currency,
		b.TaxRate.String(), b.TaxEnabled, b.SelectedTemplateID,
		b.OnboardingComplete, string(b.SyncStatus), encodeTime(b.UpdatedAt),
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update business: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	if err := insertOutbox(ctx, tx, op); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ClearBusiness removes the profile.
func (s *SQLiteStore) ClearBusiness(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM business"); err != nil {
		return fmt.Errorf("failed to clear business: %w", err)
	}
	return nil
}

func insertBusiness(ctx context.Context, tx *sql.Tx, b *models.Business) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO business (`+businessColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, nullableInt64(b.ServerID), b.Name, b.Description, b.AddressOne,
		nullableString(b.AddressTwo), b.Phone, b.Email,
		nullableString(b.RegistrationNumber), nullableString(b.Logo),
		nullableString(b.Motto), b.Signature, b.Currency,
		b.TaxRate.String(), b.TaxEnabled, b.SelectedTemplateID,
		b.OnboardingComplete, string(b.SyncStatus),
		encodeTime(b.CreatedAt), encodeTime(b.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert business: %w", mapInsertErr(err))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBusiness(row rowScanner) (*models.Business, error) {
	b := &models.Business{}
	var (
		serverID                      sql.NullInt64
		addressTwo, regNumber         sql.NullString
		logo, motto                   sql.NullString
		taxRate, createdAt, updatedAt string
		syncStatus                    string
	)
	err := row.Scan(
		&b.ID, &serverID, &b.Name, &b.Description, &b.AddressOne, &addressTwo,
		&b.Phone, &b.Email, &regNumber, &logo, &motto, &b.Signature,
		&b.Currency, &taxRate, &b.TaxEnabled, &b.SelectedTemplateID,
		&b.OnboardingComplete, &syncStatus, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.ServerID = int64Ptr(serverID)
	b.AddressTwo = stringPtr(addressTwo)
	b.RegistrationNumber = stringPtr(regNumber)
	b.Logo = stringPtr(logo)
	b.Motto = stringPtr(motto)
	b.SyncStatus = models.SyncStatus(syncStatus)

	if b.TaxRate, err = decodeDecimal(taxRate); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return b, nil
}
