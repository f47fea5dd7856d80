package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iho/bankcore/internal/domain"
	"github.com/iho/bankcore/internal/infrastructure/metrics"
)

// TransferUseCase orchestrates two-account atomic money moves. Concurrency
// discipline is optimistic: both conditional balance writes, the paired
// ledger entries and the transfer row land in one transaction, and a
// version conflict on either account restarts the attempt from fresh
// reads, bounded by maxConflictAttempts.
type TransferUseCase struct {
	txManager TransactionManager
	accounts  AccountRepository
	transfers TransferRepository
	ledger    LedgerRepository
	audit     AuditEmitter
	cache     Cache
	idGen     IDGenerator
	engine    balanceEngine
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	accounts AccountRepository,
	transfers TransferRepository,
	ledger LedgerRepository,
	audit AuditEmitter,
	cache Cache,
	idGen IDGenerator,
) *TransferUseCase {
	return &TransferUseCase{
		txManager: txManager,
		accounts:  accounts,
		transfers: transfers,
		ledger:    ledger,
		audit:     audit,
		cache:     cache,
		idGen:     idGen,
		engine:    balanceEngine{accounts: accounts},
	}
}

// ExecuteTransferInput represents one transfer request. InitiatorID is the
// authenticated customer; the source account must belong to them.
type ExecuteTransferInput struct {
	IdempotencyKey string
	InitiatorID    string
	FromAccountID  string
	ToAccountID    string
	Amount         domain.Money
	Reference      *string
}

// ExecuteTransfer moves money between two accounts exactly once per
// idempotency key.
func (uc *TransferUseCase) ExecuteTransfer(ctx context.Context, input ExecuteTransferInput) (*domain.Transfer, error) {
	if input.IdempotencyKey == "" {
		return nil, domain.ErrIdempotencyKeyRequired
	}

	// Replay detection before anything else: a known key short-circuits
	// with the recorded outcome and no side effects.
	existing, err := uc.transfers.GetByIdempotencyKey(ctx, input.IdempotencyKey)
	if err == nil {
		return uc.replay(existing, input)
	}
	if !errors.Is(err, domain.ErrTransferNotFound) {
		return nil, err
	}

	if err := validateTransferInput(input); err != nil {
		metrics.TransferErrors.WithLabelValues("invalid_request").Inc()
		return nil, err
	}

	from, to, err := uc.loadAccounts(ctx, input)
	if err != nil {
		metrics.TransferErrors.WithLabelValues("rejected").Inc()
		return nil, err
	}

	bo := conflictBackoff()

	for attempt := 1; ; attempt++ {
		transfer, err := uc.attempt(ctx, from, to, input)
		if err == nil {
			metrics.TransfersCreated.Inc()
			uc.invalidateAccounts(ctx, from.ID, to.ID)
			uc.emitAudit(ctx, input.InitiatorID, domain.AuditActionTransfer,
				fmt.Sprintf("transferId=%s, from=%s, to=%s, amount=%s", transfer.ID, from.ID, to.ID, transfer.Amount))

			log.Info().
				Str("transfer_id", transfer.ID).
				Str("from_account_id", from.ID).
				Str("to_account_id", to.ID).
				Str("amount", transfer.Amount.String()).
				Msg("transfer completed")

			return transfer, nil
		}

		if errors.Is(err, domain.ErrDuplicateKey) {
			// Another writer committed the same key between our registry
			// check and commit; their transfer is the authoritative outcome.
			committed, lookupErr := uc.transfers.GetByIdempotencyKey(ctx, input.IdempotencyKey)
			if lookupErr != nil {
				return nil, lookupErr
			}

			return uc.replay(committed, input)
		}

		if !errors.Is(err, domain.ErrVersionConflict) {
			metrics.TransferErrors.WithLabelValues("rejected").Inc()
			return nil, err
		}

		metrics.TransferConflicts.Inc()

		if attempt >= maxConflictAttempts {
			metrics.TransferRetriesExhausted.Inc()
			return nil, fmt.Errorf("%w: gave up after %d attempts", domain.ErrConcurrencyExhausted, attempt)
		}

		log.Warn().
			Int("attempt", attempt).
			Str("from_account_id", input.FromAccountID).
			Str("to_account_id", input.ToAccountID).
			Msg("version conflict on transfer, retrying with fresh reads")

		if err := pause(ctx, bo); err != nil {
			return nil, err
		}

		// Re-read both accounts and re-check funds against the fresh
		// balance before retrying with the new versions.
		from, to, err = uc.loadAccounts(ctx, input)
		if err != nil {
			return nil, err
		}
	}
}

// attempt performs one atomic application of the transfer: debit, credit,
// paired ledger entries and the transfer row either all persist or none do.
func (uc *TransferUseCase) attempt(ctx context.Context, from, to *domain.Account, input ExecuteTransferInput) (*domain.Transfer, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	if _, err := uc.engine.debit(ctx, tx, from, input.Amount, now); err != nil {
		return nil, err
	}

	if _, err := uc.engine.credit(ctx, tx, to, input.Amount, now); err != nil {
		return nil, err
	}

	out, in := domain.TransferEntries(uc.idGen.Generate(), uc.idGen.Generate(), from, to, input.Amount, input.Reference, now)
	if err := uc.ledger.Append(ctx, tx, out, in); err != nil {
		return nil, err
	}

	transfer := &domain.Transfer{
		ID:             uc.idGen.Generate(),
		FromAccountID:  from.ID,
		ToAccountID:    to.ID,
		Amount:         input.Amount,
		Status:         domain.TransferStatusSuccess,
		IdempotencyKey: input.IdempotencyKey,
		Reference:      input.Reference,
		CreatedAt:      now,
	}

	if err := uc.transfers.Create(ctx, tx, transfer); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return transfer, nil
}

// replay resolves a request whose idempotency key is already recorded:
// the stored transfer is returned when the payload tuple matches, and the
// request is rejected as an idempotency conflict when it does not.
func (uc *TransferUseCase) replay(existing *domain.Transfer, input ExecuteTransferInput) (*domain.Transfer, error) {
	if !existing.SamePayload(input.FromAccountID, input.ToAccountID, input.Amount) {
		metrics.TransferErrors.WithLabelValues("idempotency_conflict").Inc()
		return nil, domain.ErrIdempotencyConflict
	}

	metrics.TransfersReplayed.Inc()

	log.Info().
		Str("idempotency_key", input.IdempotencyKey).
		Str("transfer_id", existing.ID).
		Msg("idempotent replay")

	return existing, nil
}

// loadAccounts reads both accounts with their current versions and runs
// the pre-flight checks. A missing source and a source owned by someone
// other than the initiator produce the same ErrAccountNotFound, so
// account existence is not leaked to non-owners.
func (uc *TransferUseCase) loadAccounts(ctx context.Context, input ExecuteTransferInput) (*domain.Account, *domain.Account, error) {
	from, err := uc.accounts.GetByID(ctx, input.FromAccountID)
	if err != nil {
		return nil, nil, err
	}

	if !from.OwnedBy(input.InitiatorID) {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, input.FromAccountID)
	}

	to, err := uc.accounts.GetByID(ctx, input.ToAccountID)
	if err != nil {
		return nil, nil, err
	}

	if input.Amount.Currency != from.Currency() || input.Amount.Currency != to.Currency() {
		return nil, nil, fmt.Errorf("%w: transfer currency must match both accounts", domain.ErrCurrencyMismatch)
	}

	if err := from.ValidateDebit(input.Amount); err != nil {
		return nil, nil, err
	}

	return from, to, nil
}

// GetTransfer retrieves a transfer by ID, restricted to parties of the
// transfer.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, customerID, id string) (*domain.Transfer, error) {
	transfer, err := uc.transfers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := uc.verifyParty(ctx, customerID, transfer); err != nil {
		return nil, err
	}

	return transfer, nil
}

// verifyParty checks the customer owns either side of the transfer.
func (uc *TransferUseCase) verifyParty(ctx context.Context, customerID string, transfer *domain.Transfer) error {
	for _, accountID := range []string{transfer.FromAccountID, transfer.ToAccountID} {
		acc, err := uc.accounts.GetByID(ctx, accountID)
		if err != nil {
			continue
		}

		if acc.OwnedBy(customerID) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", domain.ErrTransferNotFound, transfer.ID)
}

func (uc *TransferUseCase) invalidateAccounts(ctx context.Context, accountIDs ...string) {
	if uc.cache == nil {
		return
	}

	for _, id := range accountIDs {
		if err := uc.cache.Delete(ctx, accountCacheKey(id)); err != nil {
			log.Warn().Err(err).Str("account_id", id).Msg("failed to invalidate account cache")
		}
	}
}

func (uc *TransferUseCase) emitAudit(ctx context.Context, actorID, action, details string) {
	if err := uc.audit.Emit(ctx, actorID, action, details); err != nil {
		metrics.AuditEmitFailures.Inc()
		log.Warn().Err(err).Str("action", action).Msg("audit emit failed")
	}
}

func validateTransferInput(input ExecuteTransferInput) error {
	if input.FromAccountID == "" || input.ToAccountID == "" {
		return domain.ErrMissingAccountID
	}

	if input.FromAccountID == input.ToAccountID {
		return domain.ErrSameAccount
	}

	if !input.Amount.IsPositive() {
		return domain.ErrInvalidAmount
	}

	return nil
}
