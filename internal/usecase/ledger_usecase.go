package usecase

import (
	"context"
	"fmt"

	"github.com/iho/bankcore/internal/domain"
)

// LedgerUseCase exposes read-only ledger browsing, ownership-checked.
type LedgerUseCase struct {
	accounts AccountRepository
	ledger   LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(accounts AccountRepository, ledger LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		accounts: accounts,
		ledger:   ledger,
	}
}

// ListEntries lists an account's ledger entries, newest first, optionally
// narrowed to a time range.
func (uc *LedgerUseCase) ListEntries(ctx context.Context, customerID, accountID string, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
	account, err := uc.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !account.OwnedBy(customerID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountID)
	}

	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	return uc.ledger.ListByAccount(ctx, accountID, filter)
}
