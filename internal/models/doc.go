// Package models defines the core domain models for Receiptbook.
//
// # Entities
//
//   - Business: the single business profile receipts are issued against
//   - Receipt: one issued receipt, owned by the business
//   - ReceiptItem: a line item, owned by a receipt
//   - OutboxOperation: one pending change awaiting push to the server
//   - SyncState: the per-device sync cursor
//
// # Design Principles
//
//  1. **Local-first**: every entity carries a SyncStatus; mutations are
//     recorded locally and queued in the outbox for a later push.
//  2. **Derived money is never trusted**: subtotal, tax, item totals and
//     grand totals are recomputed on every write, never taken from input.
//  3. **Soft delete**: receipts are marked deleted via DeletedAt, not
//     physically removed, so an unsynced deletion can still be replayed.
//  4. **Avoid circular references**: relationships use ID strings, not
//     pointers.
//
// Money fields use decimal.Decimal throughout to keep totals exact.
package models
