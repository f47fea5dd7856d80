// Package mocks provides in-memory fakes for the usecase interfaces.
//
// The account fake reproduces the store's concurrency semantics closely
// enough for the optimistic-locking tests to be meaningful: conditional
// balance writes check the version under a row lock held until the
// transaction finishes, and rollback undoes every write staged in the
// transaction.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iho/bankcore/internal/domain"
	"github.com/iho/bankcore/internal/usecase"
)

// MockTransaction collects finish hooks so repository fakes can undo
// their writes on rollback and release row locks on either outcome.
type MockTransaction struct {
	mu       sync.Mutex
	finished bool
	onFinish []func(committed bool)

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		if err := t.CommitFunc(ctx); err != nil {
			return err
		}
	}
	t.finish(true)
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if t.RollbackFunc != nil {
		if err := t.RollbackFunc(ctx); err != nil {
			return err
		}
	}
	t.finish(false)
	return nil
}

func (t *MockTransaction) finish(committed bool) {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return
	}
	t.finished = true
	hooks := t.onFinish
	t.onFinish = nil
	t.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i](committed)
	}
}

func (t *MockTransaction) addFinishHook(f func(committed bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onFinish = append(t.onFinish, f)
}

// MockTransactionManager hands out MockTransactions.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

func asMockTx(tx usecase.Transaction) *MockTransaction {
	if tx == nil {
		return nil
	}
	mtx, _ := tx.(*MockTransaction)
	return mtx
}

// MockAccountRepository is an in-memory AccountRepository with
// compare-and-swap balance writes.
type MockAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	ibans    map[string]bool
	rowLocks map[string]*MockTransaction

	CreateFunc         func(ctx context.Context, account *domain.Account) error
	GetByIDFunc        func(ctx context.Context, id string) (*domain.Account, error)
	ListByCustomerFunc func(ctx context.Context, customerID string) ([]*domain.Account, error)
	UpdateBalanceFunc  func(ctx context.Context, tx usecase.Transaction, id string, balance domain.Money, expectedVersion int64, updatedAt time.Time) error
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
		ibans:    make(map[string]bool),
		rowLocks: make(map[string]*MockTransaction),
	}
}

// Seed stores an account directly, bypassing uniqueness checks.
func (m *MockAccountRepository) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *account
	m.accounts[account.ID] = &cp
	m.ibans[account.IBAN] = true
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ibans[account.IBAN] {
		return domain.ErrDuplicateIBAN
	}
	cp := *account
	m.accounts[account.ID] = &cp
	m.ibans[account.IBAN] = true
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}
	cp := *acc
	return &cp, nil
}

func (m *MockAccountRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error) {
	if m.ListByCustomerFunc != nil {
		return m.ListByCustomerFunc(ctx, customerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Account
	for _, acc := range m.accounts {
		if acc.CustomerID == customerID {
			cp := *acc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance domain.Money, expectedVersion int64, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, expectedVersion, updatedAt)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}

	mtx := asMockTx(tx)

	// A row already written by another in-flight transaction conflicts
	// immediately rather than blocking, which is how the orchestrator
	// experiences contention.
	if owner, locked := m.rowLocks[id]; locked && owner != mtx {
		return domain.ErrVersionConflict
	}

	if acc.Version != expectedVersion {
		return domain.ErrVersionConflict
	}

	prev := *acc
	acc.Balance = balance
	acc.Version++
	acc.UpdatedAt = updatedAt

	if mtx != nil {
		m.rowLocks[id] = mtx
		mtx.addFinishHook(func(committed bool) {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.rowLocks, id)
			if !committed {
				restored := prev
				m.accounts[id] = &restored
			}
		})
	}

	return nil
}

// MockTransferRepository is an in-memory TransferRepository keyed both by
// ID and idempotency key.
type MockTransferRepository struct {
	mu        sync.Mutex
	transfers map[string]*domain.Transfer
	byKey     map[string]*domain.Transfer

	CreateFunc              func(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error
	GetByIDFunc             func(ctx context.Context, id string) (*domain.Transfer, error)
	GetByIdempotencyKeyFunc func(ctx context.Context, key string) (*domain.Transfer, error)
}

func NewMockTransferRepository() *MockTransferRepository {
	return &MockTransferRepository{
		transfers: make(map[string]*domain.Transfer),
		byKey:     make(map[string]*domain.Transfer),
	}
}

func (m *MockTransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, transfer)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byKey[transfer.IdempotencyKey]; exists {
		return domain.ErrDuplicateKey
	}

	cp := *transfer
	m.transfers[transfer.ID] = &cp
	m.byKey[transfer.IdempotencyKey] = &cp

	if mtx := asMockTx(tx); mtx != nil {
		mtx.addFinishHook(func(committed bool) {
			if committed {
				return
			}
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.transfers, cp.ID)
			delete(m.byKey, cp.IdempotencyKey)
		})
	}

	return nil
}

func (m *MockTransferRepository) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tr, ok := m.transfers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransferNotFound, id)
	}
	cp := *tr
	return &cp, nil
}

func (m *MockTransferRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transfer, error) {
	if m.GetByIdempotencyKeyFunc != nil {
		return m.GetByIdempotencyKeyFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tr, ok := m.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: key %s", domain.ErrTransferNotFound, key)
	}
	cp := *tr
	return &cp, nil
}

// Count returns the number of stored transfers.
func (m *MockTransferRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transfers)
}

// MockLedgerRepository is an in-memory append-only ledger.
type MockLedgerRepository struct {
	mu      sync.Mutex
	entries []*domain.LedgerEntry

	AppendFunc        func(ctx context.Context, tx usecase.Transaction, entries ...*domain.LedgerEntry) error
	ListByAccountFunc func(ctx context.Context, accountID string, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error)
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{}
}

func (m *MockLedgerRepository) Append(ctx context.Context, tx usecase.Transaction, entries ...*domain.LedgerEntry) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx, entries...)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	start := len(m.entries)
	for _, e := range entries {
		cp := *e
		m.entries = append(m.entries, &cp)
	}

	if mtx := asMockTx(tx); mtx != nil {
		count := len(entries)
		mtx.addFinishHook(func(committed bool) {
			if committed {
				return
			}
			m.mu.Lock()
			defer m.mu.Unlock()
			m.entries = append(m.entries[:start], m.entries[start+count:]...)
		})
	}

	return nil
}

func (m *MockLedgerRepository) ListByAccount(ctx context.Context, accountID string, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.LedgerEntry
	for _, e := range m.entries {
		if e.AccountID != accountID {
			continue
		}
		if filter.From != nil && e.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.CreatedAt.After(*filter.To) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// Entries returns a snapshot of everything appended so far.
func (m *MockLedgerRepository) Entries() []*domain.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.LedgerEntry, 0, len(m.entries))
	for _, e := range m.entries {
		cp := *e
		out = append(out, &cp)
	}
	return out
}

// MockCustomerRepository is an in-memory CustomerRepository.
type MockCustomerRepository struct {
	mu        sync.Mutex
	customers map[string]*domain.Customer
	byEmail   map[string]*domain.Customer

	CreateFunc     func(ctx context.Context, customer *domain.Customer) error
	GetByIDFunc    func(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmailFunc func(ctx context.Context, email string) (*domain.Customer, error)
}

func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		customers: make(map[string]*domain.Customer),
		byEmail:   make(map[string]*domain.Customer),
	}
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, customer)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[customer.Email]; exists {
		return domain.ErrEmailTaken
	}
	cp := *customer
	m.customers[customer.ID] = &cp
	m.byEmail[customer.Email] = &cp
	return nil
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byEmail[email]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

// MockIDGenerator issues sequential IDs unless overridden.
type MockIDGenerator struct {
	counter atomic.Int64

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	return fmt.Sprintf("id-%04d", m.counter.Add(1))
}

// MockCache is an in-memory Cache; TTLs are ignored.
type MockCache struct {
	mu    sync.Mutex
	items map[string][]byte

	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	SetFunc    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{items: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	if !ok {
		return nil, fmt.Errorf("cache miss: %s", key)
	}
	return v, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
