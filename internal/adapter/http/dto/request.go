package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/bankcore/internal/domain"
	"github.com/iho/bankcore/internal/usecase"
)

// RegisterRequest represents a customer registration request.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateAccountRequest represents a request to open an account.
type CreateAccountRequest struct {
	Currency string `json:"currency"`
}

// MoneyOperationRequest represents a deposit or withdrawal.
type MoneyOperationRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Reference *string         `json:"reference,omitempty"`
}

// ToMoney converts the request amount to a validated Money value.
func (r *MoneyOperationRequest) ToMoney() (domain.Money, error) {
	return domain.NewMoney(r.Amount, r.Currency)
}

// CreateTransferRequest represents a request to move money between
// accounts. The idempotency key travels in the Idempotency-Key header,
// not the body.
type CreateTransferRequest struct {
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Reference     *string         `json:"reference,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput(idempotencyKey, initiatorID string) (usecase.ExecuteTransferInput, error) {
	amount, err := domain.NewMoney(r.Amount, r.Currency)
	if err != nil {
		return usecase.ExecuteTransferInput{}, err
	}

	return usecase.ExecuteTransferInput{
		IdempotencyKey: idempotencyKey,
		InitiatorID:    initiatorID,
		FromAccountID:  r.FromAccountID,
		ToAccountID:    r.ToAccountID,
		Amount:         amount,
		Reference:      r.Reference,
	}, nil
}
