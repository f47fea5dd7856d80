package domain

import (
	"fmt"
	"time"
)

// Account holds a customer balance in a single currency. The balance is
// never negative; every successful balance write increments Version by
// exactly one, and writers must present the version they read.
type Account struct {
	ID         string
	CustomerID string
	IBAN       string
	Balance    Money
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Currency returns the account's currency code.
func (a *Account) Currency() string {
	return a.Balance.Currency
}

// OwnedBy reports whether the account belongs to the given customer.
func (a *Account) OwnedBy(customerID string) bool {
	return a.CustomerID == customerID
}

// ValidateDebit checks that amount can be withdrawn without the balance
// going negative. The current balance is included in the error so callers
// can surface it.
func (a *Account) ValidateDebit(amount Money) error {
	if !amount.SameCurrency(a.Balance) {
		return fmt.Errorf("%w: account holds %s, got %s", ErrCurrencyMismatch, a.Currency(), amount.Currency)
	}

	newBalance, err := a.Balance.Sub(amount)
	if err != nil {
		return err
	}

	if newBalance.IsNegative() {
		return fmt.Errorf("%w: balance is %s", ErrInsufficientFunds, a.Balance)
	}

	return nil
}

// ValidateCredit checks that amount can be deposited.
func (a *Account) ValidateCredit(amount Money) error {
	if !amount.SameCurrency(a.Balance) {
		return fmt.Errorf("%w: account holds %s, got %s", ErrCurrencyMismatch, a.Currency(), amount.Currency)
	}

	return nil
}

// ApplyDebit returns the balance after withdrawing amount.
func (a *Account) ApplyDebit(amount Money) (Money, error) {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the balance after depositing amount.
func (a *Account) ApplyCredit(amount Money) (Money, error) {
	return a.Balance.Add(amount)
}
