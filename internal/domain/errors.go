package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDuplicateIBAN     = errors.New("generated IBAN already exists")

	// Money errors
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrInvalidAmount    = errors.New("amount must be positive")

	// Transfer errors
	ErrSameAccount            = errors.New("source and destination accounts must be different")
	ErrMissingAccountID       = errors.New("both source and destination account IDs are required")
	ErrTransferNotFound       = errors.New("transfer not found")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key already used with a different payload")
	ErrDuplicateKey           = errors.New("idempotency key already exists")

	// Concurrency errors
	ErrVersionConflict      = errors.New("account modified concurrently")
	ErrConcurrencyExhausted = errors.New("too many concurrent modifications, retry the request")

	// Customer errors
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidPassword    = errors.New("invalid password")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)
