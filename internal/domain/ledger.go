package domain

import (
	"fmt"
	"time"
)

// EntryType classifies a ledger entry. Direction is carried by the type,
// never by the sign of the amount.
type EntryType string

const (
	EntryTypeDeposit     EntryType = "DEPOSIT"
	EntryTypeWithdraw    EntryType = "WITHDRAW"
	EntryTypeTransferIn  EntryType = "TRANSFER_IN"
	EntryTypeTransferOut EntryType = "TRANSFER_OUT"
)

// IsTransfer reports whether the entry type carries a counterparty.
func (t EntryType) IsTransfer() bool {
	return t == EntryTypeTransferIn || t == EntryTypeTransferOut
}

// LedgerEntry is an immutable record of one balance-affecting event on
// one account. Entries are append-only; the ledger exposes no update or
// delete operation.
type LedgerEntry struct {
	ID                    string
	AccountID             string
	Type                  EntryType
	Amount                Money
	CounterpartyAccountID *string
	Reference             *string
	CreatedAt             time.Time
}

// Validate checks the entry invariants: positive amount and a
// counterparty present exactly on TRANSFER_* entries.
func (e *LedgerEntry) Validate() error {
	if !e.Amount.IsPositive() {
		return fmt.Errorf("%w: ledger amounts are always positive", ErrInvalidAmount)
	}

	if e.Type.IsTransfer() && e.CounterpartyAccountID == nil {
		return fmt.Errorf("entry type %s requires a counterparty account", e.Type)
	}

	if !e.Type.IsTransfer() && e.CounterpartyAccountID != nil {
		return fmt.Errorf("entry type %s must not carry a counterparty account", e.Type)
	}

	return nil
}

// TransferEntries builds the paired TRANSFER_OUT / TRANSFER_IN entries
// for one transfer: matching amount and currency, counterparty IDs
// swapped. Both must be appended in the same unit of work.
func TransferEntries(outID, inID string, from, to *Account, amount Money, reference *string, now time.Time) (*LedgerEntry, *LedgerEntry) {
	out := &LedgerEntry{
		ID:                    outID,
		AccountID:             from.ID,
		Type:                  EntryTypeTransferOut,
		Amount:                amount,
		CounterpartyAccountID: &to.ID,
		Reference:             reference,
		CreatedAt:             now,
	}

	in := &LedgerEntry{
		ID:                    inID,
		AccountID:             to.ID,
		Type:                  EntryTypeTransferIn,
		Amount:                amount,
		CounterpartyAccountID: &from.ID,
		Reference:             reference,
		CreatedAt:             now,
	}

	return out, in
}

// LedgerFilter narrows ledger browsing by time range, with pagination.
type LedgerFilter struct {
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
