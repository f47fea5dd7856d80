package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iho/bankcore/internal/domain"
	"github.com/iho/bankcore/internal/infrastructure/metrics"
)

// AccountUseCase handles account opening, reads and the single-account
// balance mutations (deposit/withdraw). Mutations run through the same
// conditional-write engine as transfers, with the same bounded retry on
// version conflicts.
type AccountUseCase struct {
	txManager TransactionManager
	accounts  AccountRepository
	ledger    LedgerRepository
	audit     AuditEmitter
	cache     Cache
	idGen     IDGenerator
	ibanGen   IBANGenerator
	cacheTTL  time.Duration
	engine    balanceEngine
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accounts AccountRepository,
	ledger LedgerRepository,
	audit AuditEmitter,
	cache Cache,
	idGen IDGenerator,
	ibanGen IBANGenerator,
	cacheTTL time.Duration,
) *AccountUseCase {
	return &AccountUseCase{
		txManager: txManager,
		accounts:  accounts,
		ledger:    ledger,
		audit:     audit,
		cache:     cache,
		idGen:     idGen,
		ibanGen:   ibanGen,
		cacheTTL:  cacheTTL,
		engine:    balanceEngine{accounts: accounts},
	}
}

// CreateAccount opens a zero-balance account for the customer. Two
// concurrent requests can generate the same IBAN and both pass the
// pre-insert check; the unique constraint rejects the loser, which
// retries with a fresh IBAN.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, customerID, currency string) (*domain.Account, error) {
	cur, err := domain.NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxIBANAttempts; attempt++ {
		now := time.Now().UTC()

		account := &domain.Account{
			ID:         uc.idGen.Generate(),
			CustomerID: customerID,
			IBAN:       uc.ibanGen.Generate(),
			Balance:    domain.Zero(cur),
			Version:    0,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		err := uc.accounts.Create(ctx, account)
		if errors.Is(err, domain.ErrDuplicateIBAN) {
			log.Warn().Int("attempt", attempt).Msg("IBAN collision, retrying with a fresh IBAN")
			continue
		}
		if err != nil {
			return nil, err
		}

		metrics.AccountsCreated.Inc()
		uc.emitAudit(ctx, customerID, domain.AuditActionAccountCreate,
			fmt.Sprintf("accountId=%s, iban=%s, currency=%s", account.ID, account.IBAN, cur))

		return account, nil
	}

	return nil, fmt.Errorf("failed to allocate a unique IBAN after %d attempts", maxIBANAttempts)
}

// GetAccount retrieves an account, serving repeated reads from the cache.
// A missing account and an account owned by another customer produce the
// same error.
func (uc *AccountUseCase) GetAccount(ctx context.Context, customerID, accountID string) (*domain.Account, error) {
	if account, ok := uc.cachedAccount(ctx, accountID); ok {
		if !account.OwnedBy(customerID) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountID)
		}

		return account, nil
	}

	account, err := uc.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !account.OwnedBy(customerID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountID)
	}

	uc.storeInCache(ctx, account)

	return account, nil
}

// ListAccounts lists the customer's accounts.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, customerID string) ([]*domain.Account, error) {
	return uc.accounts.ListByCustomer(ctx, customerID)
}

// Deposit credits the account and appends the matching DEPOSIT ledger
// entry in one transaction.
func (uc *AccountUseCase) Deposit(ctx context.Context, customerID, accountID string, amount domain.Money, reference *string) (*domain.Account, error) {
	account, err := uc.mutateBalance(ctx, customerID, accountID, amount, reference, domain.EntryTypeDeposit)
	if err != nil {
		return nil, err
	}

	metrics.Deposits.Inc()
	uc.emitAudit(ctx, customerID, domain.AuditActionDeposit,
		fmt.Sprintf("accountId=%s, amount=%s", accountID, amount))

	return account, nil
}

// Withdraw debits the account and appends the matching WITHDRAW ledger
// entry in one transaction. Fails with ErrInsufficientFunds when the
// balance would go negative.
func (uc *AccountUseCase) Withdraw(ctx context.Context, customerID, accountID string, amount domain.Money, reference *string) (*domain.Account, error) {
	account, err := uc.mutateBalance(ctx, customerID, accountID, amount, reference, domain.EntryTypeWithdraw)
	if err != nil {
		return nil, err
	}

	metrics.Withdrawals.Inc()
	uc.emitAudit(ctx, customerID, domain.AuditActionWithdraw,
		fmt.Sprintf("accountId=%s, amount=%s", accountID, amount))

	return account, nil
}

// mutateBalance runs the optimistic loop for a single-account change:
// fresh version-stamped read, conditional write plus ledger entry in one
// transaction, bounded retry on conflict.
func (uc *AccountUseCase) mutateBalance(ctx context.Context, customerID, accountID string, amount domain.Money, reference *string, entryType domain.EntryType) (*domain.Account, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	bo := conflictBackoff()

	for attempt := 1; ; attempt++ {
		account, err := uc.ownedAccount(ctx, customerID, accountID)
		if err != nil {
			return nil, err
		}

		err = uc.applyMutation(ctx, account, amount, reference, entryType)
		if err == nil {
			uc.invalidate(ctx, accountID)
			return account, nil
		}

		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}

		if attempt >= maxConflictAttempts {
			return nil, fmt.Errorf("%w: gave up after %d attempts", domain.ErrConcurrencyExhausted, attempt)
		}

		log.Warn().
			Int("attempt", attempt).
			Str("account_id", accountID).
			Str("entry_type", string(entryType)).
			Msg("version conflict on balance mutation, retrying")

		if err := pause(ctx, bo); err != nil {
			return nil, err
		}
	}
}

func (uc *AccountUseCase) applyMutation(ctx context.Context, account *domain.Account, amount domain.Money, reference *string, entryType domain.EntryType) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	switch entryType {
	case domain.EntryTypeDeposit:
		_, err = uc.engine.credit(ctx, tx, account, amount, now)
	case domain.EntryTypeWithdraw:
		_, err = uc.engine.debit(ctx, tx, account, amount, now)
	default:
		err = fmt.Errorf("unsupported entry type %s for balance mutation", entryType)
	}
	if err != nil {
		return err
	}

	entry := &domain.LedgerEntry{
		ID:        uc.idGen.Generate(),
		AccountID: account.ID,
		Type:      entryType,
		Amount:    amount,
		Reference: reference,
		CreatedAt: now,
	}

	if err := uc.ledger.Append(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ownedAccount loads a fresh snapshot and folds "not owned" into "not
// found".
func (uc *AccountUseCase) ownedAccount(ctx context.Context, customerID, accountID string) (*domain.Account, error) {
	account, err := uc.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !account.OwnedBy(customerID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountID)
	}

	return account, nil
}

func accountCacheKey(accountID string) string {
	return "account:" + accountID
}

func (uc *AccountUseCase) cachedAccount(ctx context.Context, accountID string) (*domain.Account, bool) {
	if uc.cache == nil {
		return nil, false
	}

	data, err := uc.cache.Get(ctx, accountCacheKey(accountID))
	if err != nil {
		return nil, false
	}

	var account domain.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, false
	}

	return &account, true
}

func (uc *AccountUseCase) storeInCache(ctx context.Context, account *domain.Account) {
	if uc.cache == nil {
		return
	}

	data, err := json.Marshal(account)
	if err != nil {
		return
	}

	if err := uc.cache.Set(ctx, accountCacheKey(account.ID), data, uc.cacheTTL); err != nil {
		log.Warn().Err(err).Str("account_id", account.ID).Msg("failed to cache account")
	}
}

func (uc *AccountUseCase) invalidate(ctx context.Context, accountID string) {
	if uc.cache == nil {
		return
	}

	if err := uc.cache.Delete(ctx, accountCacheKey(accountID)); err != nil {
		log.Warn().Err(err).Str("account_id", accountID).Msg("failed to invalidate account cache")
	}
}

func (uc *AccountUseCase) emitAudit(ctx context.Context, actorID, action, details string) {
	if err := uc.audit.Emit(ctx, actorID, action, details); err != nil {
		metrics.AuditEmitFailures.Inc()
		log.Warn().Err(err).Str("action", action).Msg("audit emit failed")
	}
}
