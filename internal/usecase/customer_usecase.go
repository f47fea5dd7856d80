package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/iho/bankcore/internal/domain"
)

// CustomerUseCase handles registration and credential checks. Token
// issuance lives in the HTTP layer; this use case only ever sees and
// stores bcrypt hashes.
type CustomerUseCase struct {
	customers CustomerRepository
	idGen     IDGenerator
}

// NewCustomerUseCase creates a new CustomerUseCase.
func NewCustomerUseCase(customers CustomerRepository, idGen IDGenerator) *CustomerUseCase {
	return &CustomerUseCase{
		customers: customers,
		idGen:     idGen,
	}
}

// Register creates a customer with a hashed password. Emails are stored
// lowercase and must be unique.
func (uc *CustomerUseCase) Register(ctx context.Context, email, password string) (*domain.Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}

	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	customer := &domain.Customer{
		ID:           uc.idGen.Generate(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := uc.customers.Create(ctx, customer); err != nil {
		return nil, err
	}

	log.Info().Str("customer_id", customer.ID).Msg("customer registered")

	// Never hand the hash back to callers.
	customer.PasswordHash = ""

	return customer, nil
}

// Authenticate verifies credentials, returning the matching customer.
// Unknown email and wrong password produce the same error.
func (uc *CustomerUseCase) Authenticate(ctx context.Context, email, password string) (*domain.Customer, error) {
	customer, err := uc.customers.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return nil, domain.ErrInvalidCredentials
		}

		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return customer, nil
}

// GetCustomer retrieves a customer by ID.
func (uc *CustomerUseCase) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return uc.customers.GetByID(ctx, id)
}
