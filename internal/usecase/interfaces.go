package usecase

import (
	"context"
	"time"

	"github.com/iho/bankcore/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	// Create persists a new account. Returns domain.ErrDuplicateIBAN when
	// the generated IBAN collides with an existing row.
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error)
	// UpdateBalance conditionally writes the balance: the update only lands
	// when the stored version still equals expectedVersion, in which case
	// the version is incremented by one in the same statement. A stale
	// version yields domain.ErrVersionConflict and no write.
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance domain.Money, expectedVersion int64, updatedAt time.Time) error
}

// LedgerRepository defines append-only access to ledger entries. The two
// sides of one transfer are appended in the same call so they share a
// transactional boundary.
type LedgerRepository interface {
	Append(ctx context.Context, tx Transaction, entries ...*domain.LedgerEntry) error
	ListByAccount(ctx context.Context, accountID string, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error)
}

// TransferRepository defines data access for transfers. The transfer row
// doubles as the idempotency registry entry, keyed by idempotency key.
type TransferRepository interface {
	// Create returns domain.ErrDuplicateKey when another writer already
	// committed the same idempotency key.
	Create(ctx context.Context, tx Transaction, transfer *domain.Transfer) error
	GetByID(ctx context.Context, id string) (*domain.Transfer, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transfer, error)
}

// CustomerRepository defines data access for customers.
type CustomerRepository interface {
	// Create returns domain.ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
}

// AuditEmitter receives one fact per money-moving operation. Emission is
// fire-and-forget from the caller's perspective: failures are logged,
// never propagated.
type AuditEmitter interface {
	Emit(ctx context.Context, actorCustomerID, action, details string) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IBANGenerator generates candidate account numbers. Uniqueness is
// enforced by the store; collisions surface as domain.ErrDuplicateIBAN.
type IBANGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
