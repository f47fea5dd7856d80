package usecase

import (
	"context"
	"time"

	"github.com/iho/bankcore/internal/domain"
)

// balanceEngine applies a single validated balance change against an
// account snapshot. The snapshot's version is the write condition: the
// conditional update fails with domain.ErrVersionConflict when another
// writer got there first, and the caller decides whether to retry with a
// fresh read. On success the snapshot is advanced in place so subsequent
// writes in the same unit of work see the new balance and version.
type balanceEngine struct {
	accounts AccountRepository
}

// debit withdraws amount from the account. Preconditions: positive
// amount, matching currency, non-negative resulting balance.
func (e balanceEngine) debit(ctx context.Context, tx Transaction, acc *domain.Account, amount domain.Money, now time.Time) (domain.Money, error) {
	if !amount.IsPositive() {
		return domain.Money{}, domain.ErrInvalidAmount
	}

	if err := acc.ValidateDebit(amount); err != nil {
		return domain.Money{}, err
	}

	newBalance, err := acc.ApplyDebit(amount)
	if err != nil {
		return domain.Money{}, err
	}

	if err := e.accounts.UpdateBalance(ctx, tx, acc.ID, newBalance, acc.Version, now); err != nil {
		return domain.Money{}, err
	}

	acc.Balance = newBalance
	acc.Version++
	acc.UpdatedAt = now

	return newBalance, nil
}

// credit deposits amount into the account. Preconditions: positive
// amount, matching currency.
func (e balanceEngine) credit(ctx context.Context, tx Transaction, acc *domain.Account, amount domain.Money, now time.Time) (domain.Money, error) {
	if !amount.IsPositive() {
		return domain.Money{}, domain.ErrInvalidAmount
	}

	if err := acc.ValidateCredit(amount); err != nil {
		return domain.Money{}, err
	}

	newBalance, err := acc.ApplyCredit(amount)
	if err != nil {
		return domain.Money{}, err
	}

	if err := e.accounts.UpdateBalance(ctx, tx, acc.ID, newBalance, acc.Version, now); err != nil {
		return domain.Money{}, err
	}

	acc.Balance = newBalance
	acc.Version++
	acc.UpdatedAt = now

	return newBalance, nil
}
