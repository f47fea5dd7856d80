package domain

import (
	"time"
)

// TransferStatus is the terminal outcome recorded for a transfer.
type TransferStatus string

const (
	TransferStatusSuccess TransferStatus = "SUCCESS"
	TransferStatusFailed  TransferStatus = "FAILED"
)

// Transfer is a two-account, atomic, idempotent money movement. One row
// exists per idempotency key; replays with the same key read this row
// instead of moving money again.
type Transfer struct {
	ID             string
	FromAccountID  string
	ToAccountID    string
	Amount         Money
	Status         TransferStatus
	IdempotencyKey string
	Reference      *string
	CreatedAt      time.Time
}

// Validate checks the request-shape invariants before any account is
// touched.
func (t *Transfer) Validate() error {
	if t.IdempotencyKey == "" {
		return ErrIdempotencyKeyRequired
	}

	if t.FromAccountID == "" || t.ToAccountID == "" {
		return ErrMissingAccountID
	}

	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}

	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	return nil
}

// SamePayload reports whether a retried request carries the exact tuple
// this transfer was created with. Amounts are compared numerically, not
// by representation.
func (t *Transfer) SamePayload(fromAccountID, toAccountID string, amount Money) bool {
	return t.FromAccountID == fromAccountID &&
		t.ToAccountID == toAccountID &&
		t.Amount.Equals(amount)
}
