package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/bankcore/internal/domain"
	"github.com/iho/bankcore/internal/usecase"
	"github.com/iho/bankcore/internal/usecase/mocks"
)

func money(t *testing.T, amount, currency string) domain.Money {
	t.Helper()
	m, err := domain.NewMoney(decimal.RequireFromString(amount), currency)
	require.NoError(t, err)
	return m
}

func seedAccount(t *testing.T, repo *mocks.MockAccountRepository, id, customerID, balance, currency string) *domain.Account {
	t.Helper()
	now := time.Now().UTC()
	acc := &domain.Account{
		ID:         id,
		CustomerID: customerID,
		IBAN:       "SE00" + id,
		Balance:    money(t, balance, currency),
		Version:    0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	repo.Seed(acc)
	return acc
}

type transferFixture struct {
	uc        *usecase.TransferUseCase
	accounts  *mocks.MockAccountRepository
	transfers *mocks.MockTransferRepository
	ledger    *mocks.MockLedgerRepository
	audit     *mocks.MockAuditEmitter
	cache     *mocks.MockCache
}

func newTransferFixture(t *testing.T) *transferFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	accounts := mocks.NewMockAccountRepository()
	transfers := mocks.NewMockTransferRepository()
	ledger := mocks.NewMockLedgerRepository()
	audit := mocks.NewMockAuditEmitter(ctrl)
	audit.EXPECT().Emit(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	cache := mocks.NewMockCache()

	uc := usecase.NewTransferUseCase(
		mocks.NewMockTransactionManager(),
		accounts,
		transfers,
		ledger,
		audit,
		cache,
		mocks.NewMockIDGenerator(),
	)

	return &transferFixture{
		uc:        uc,
		accounts:  accounts,
		transfers: transfers,
		ledger:    ledger,
		audit:     audit,
		cache:     cache,
	}
}

func TestExecuteTransfer_Success(t *testing.T) {
	f := newTransferFixture(t)
	ctx := context.Background()

	seedAccount(t, f.accounts, "acc-a", "cust-1", "1000.00", "SEK")
	seedAccount(t, f.accounts, "acc-b", "cust-2", "500.00", "SEK")

	transfer, err := f.uc.ExecuteTransfer(ctx, usecase.ExecuteTransferInput{
		IdempotencyKey: "K1",
		InitiatorID:    "cust-1",
		FromAccountID:  "acc-a",
		ToAccountID:    "acc-b",
		Amount:         money(t, "100.50", "SEK"),
	})
	require.NoError(t, err)
	require.Equal(t, domain.TransferStatusSuccess, transfer.Status)
	require.Equal(t, "K1", transfer.IdempotencyKey)

	from, err := f.accounts.GetByID(ctx, "acc-a")
	require.NoError(t, err)
	require.True(t, from.Balance.Amount.Equal(decimal.RequireFromString("899.50")), "got %s", from.Balance)
	require.Equal(t, int64(1), from.Version)

	to, err := f.accounts.GetByID(ctx, "acc-b")
	require.NoError(t, err)
	require.True(t, to.Balance.Amount.Equal(decimal.RequireFromString("600.50")), "got %s", to.Balance)
	require.Equal(t, int64(1), to.Version)

	entries := f.ledger.Entries()
	require.Len(t, entries, 2)

	out, in := entries[0], entries[1]
	require.Equal(t, domain.EntryTypeTransferOut, out.Type)
	require.Equal(t, "acc-a", out.AccountID)
	require.Equal(t, "acc-b", *out.CounterpartyAccountID)
	require.Equal(t, domain.EntryTypeTransferIn, in.Type)
	require.Equal(t, "acc-b", in.AccountID)
	require.Equal(t, "acc-a", *in.CounterpartyAccountID)
	require.True(t, out.Amount.Amount.Equal(in.Amount.Amount))
}

func TestExecuteTransfer_ReplaySameKey(t *testing.T) {
	f := newTransferFixture(t)
	ctx := context.Background()

	seedAccount(t, f.accounts, "acc-a", "cust-1", "1000.00", "SEK")
	seedAccount(t, f.accounts, "acc-b", "cust-2", "500.00", "SEK")

	input := usecase.ExecuteTransferInput{
		IdempotencyKey: "K1",
		InitiatorID:    "cust-1",
		FromAccountID:  "acc-a",
		ToAccountID:    "acc-b",
		Amount:         money(t, "100.50", "SEK"),
	}

	first, err := f.uc.ExecuteTransfer(ctx, input)
	require.NoError(t, err)

	second, err := f.uc.ExecuteTransfer(ctx, input)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	// No second debit, no second pair of entries.
	from, err := f.accounts.GetByID(ctx, "acc-a")
	require.NoError(t, err)
	require.True(t, from.Balance.Amount.Equal(decimal.RequireFromString("899.50")))
	require.Equal(t, int64(1), from.Version)
	require.Len(t, f.ledger.Entries(), 2)
	require.Equal(t, 1, f.transfers.Count())
}

func TestExecuteTransfer_ReplayEqualAmountDifferentScale(t *testing.T) {
	f := newTransferFixture(t)
	ctx := context.Background()

	seedAccount(t, f.accounts, "acc-a", "cust-1", "1000.00", "SEK")
	seedAccount(t, f.accounts, "acc-b", "cust-2", "500.00", "SEK")

	input := usecase.ExecuteTransferInput{
		IdempotencyKey: "K1",
		InitiatorID:    "cust-1",
		FromAccountID:  "acc-a",
		ToAccountID:    "acc-b",
		Amount:         money(t, "100.5", "SEK"),
	}

	first, err := f.uc.ExecuteTransfer(ctx, input)
	require.NoError(t, err)

	input.Amount = money(t, "100.50", "SEK")
	second, err := f.uc.ExecuteTransfer(ctx, input)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestExecuteTransfer_IdempotencyConflict(t *testing.T) {
	f := newTransferFixture(t)
	ctx := context.Background()

	seedAccount(t, f.accounts, "acc-a", "cust-1", "1000.00", "SEK")
	seedAccount(t, f.accounts, "acc-b", "cust-2", "500.00", "SEK")

	input := usecase.ExecuteTransferInput{
		IdempotencyKey: "K1",
		InitiatorID:    "cust-1",
		FromAccountID:  "acc-a",
		ToAccountID:    "acc-b",
		Amount:         money(t, "100.50", "SEK"),
	}

	_, err := f.uc.ExecuteTransfer(ctx, input)
	require.NoError(t, err)

	input.Amount = money(t, "75.00", "SEK")
	_, err = f.uc.ExecuteTransfer(ctx, input)
	require.ErrorIs(t, err, domain.ErrIdempotencyConflict)

	// Only the original transfer's effects remain.
	from, err := f.accounts.GetByID(ctx, "acc-a")
	require.NoError(t, err)
	require.True(t, from.Balance.Amount.Equal(decimal.RequireFromString("899.50")))
	require.Equal(t, 1, f.transfers.Count())
}

func TestExecuteTransfer_MissingIdempotencyKey(t *testing.T) {
	f := newTransferFixture(t)

	_, err := f.uc.ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
		InitiatorID:   "cust-1",
		FromAccountID: "acc-a",
		ToAccountID:   "acc-b",
		Amount:        money(t, "10.00", "SEK"),
	})
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyRequired)
}

func TestExecuteTransfer_InputValidation(t *testing.T) {
	f := newTransferFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   usecase.ExecuteTransferInput
		wantErr error
	}{
		{
			name: "missing from account",
			input: usecase.ExecuteTransferInput{
				IdempotencyKey: "K1",
				InitiatorID:    "cust-1",
				ToAccountID:    "acc-b",
				Amount:         money(t, "10.00", "SEK"),
			},
			wantErr: domain.ErrMissingAccountID,
		},
		{
			name: "same account",
			input: usecase.ExecuteTransferInput{
				IdempotencyKey: "K2",
				InitiatorID:    "cust-1",
				FromAccountID:  "acc-a",
				ToAccountID:    "acc-a",
				Amount:         money(t, "10.00", "SEK"),
			},
			wantErr: domain.ErrSameAccount,
		},
		{
			name: "zero amount",
			input: usecase.ExecuteTransferInput{
				IdempotencyKey: "K3",
				InitiatorID:    "cust-1",
				FromAccountID:  "acc-a",
				ToAccountID:    "acc-b",
				Amount:         money(t, "0.00", "SEK"),
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			input: usecase.ExecuteTransferInput{
				IdempotencyKey: "K4",
				InitiatorID:    "cust-1",
				FromAccountID:  "acc-a",
				ToAccountID:    "acc-b",
				Amount:         money(t, "-5.00", "SEK"),
			},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.ExecuteTransfer(ctx, tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExecuteTransfer_InsufficientFunds(t *testing.T) {
	f := newTransferFixture(t)
	ctx := context.Background()

	seedAccount(t, f.accounts, "acc-a", "cust-1", "50.00", "SEK")
	seedAccount(t, f.accounts, "acc-b", "cust-2", "500.00", "SEK")

	_, err := f.uc.ExecuteTransfer(ctx, usecase.ExecuteTransferInput{
		IdempotencyKey: "K1",
		InitiatorID:    "cust-1",
		FromAccountID:  "acc-a",
		ToAccountID:    "acc-b",
		Amount:         money(t, "50.01", "SEK"),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// Nothing written: balances, versions and the ledger are untouched.
	from, err := f.accounts.GetByID(ctx, "acc-a")
	require.NoError(t, err)
	require.True(t, from.Balance.Amount.Equal(decimal.RequireFromString("50.00")))
	require.Equal(t, int64(0), from.Version)
	require.Empty(t, f.ledger.Entries())
	require.Equal(t, 0, f.transfers.Count())
}

func TestExecuteTransfer_ExactBalanceToZero(t *testing.T) {
	f := newTransferFixture(t)
	ctx := context.Background()

	seedAccount(t, f.accounts, "acc-a", "cust-1", "50.00", "SEK")
	seedAccount(t, f.accounts, "acc-b", "cust-2", "0.00", "SEK")

	_, err := f.uc.ExecuteTransfer(ctx, usecase.ExecuteTransferInput{
		IdempotencyKey: "K1",
		InitiatorID:    "cust-1",
		FromAccountID:  "acc-a",
		ToAccountID:    "acc-b",
		Amount:         money(t, "50.00", "SEK"),
	})
	require.NoError(t, err)

	from, err := f.accounts.GetByID(ctx, "acc-a")
	require.NoError(t, err)
	require.True(t, from.Balance.Amount.IsZero())
}

func TestExecuteTransfer_SourceNotOwned(t *testing.T) {
	f := newTransferFixture(t)
	ctx := context.Background()

	seedAccount(t, f.accounts, "acc-a", "cust-1", "1000.00", "SEK")
	seedAccount(t, f.accounts, "acc-b", "cust-2", "500.00", "SEK")

	// cust-2 cannot move money out of cust-1's account; the error does
	// not reveal that the account exists.
	_, err := f.uc.ExecuteTransfer(ctx, usecase.ExecuteTransferInput{
		IdempotencyKey: "K1",
		InitiatorID:    "cust-2",
		FromAccountID:  "acc-a",
		ToAccountID:    "acc-b",
		Amount:         money(t, "10.00", "SEK"),
	})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestExecuteTransfer_CurrencyMismatch(t *testing.T) {
	f := newTransferFixture(t)
	ctx := context.Background()

	seedAccount(t, f.accounts, "acc-a", "cust-1", "1000.00", "SEK")
	seedAccount(t, f.accounts, "acc-b", "cust-2", "500.00", "EUR")

	_, err := f.uc.ExecuteTransfer(ctx, usecase.ExecuteTransferInput{
		IdempotencyKey: "K1",
		InitiatorID:    "cust-1",
		FromAccountID:  "acc-a",
		ToAccountID:    "acc-b",
		Amount:         money(t, "10.00", "SEK"),
	})
	require.ErrorIs(t, err, domain.ErrCurrencyMismatch)
}

func TestExecuteTransfer_RetriesAfterVersionConflict(t *testing.T) {
	f := newTransferFixture(t)
	ctx := context.Background()

	seedAccount(t, f.accounts, "acc-a", "cust-1", "1000.00", "SEK")
	seedAccount(t, f.accounts, "acc-b", "cust-2", "500.00", "SEK")

	// First conditional write loses the race; the retry goes back to the
	// store's real compare-and-swap path.
	f.accounts.UpdateBalanceFunc = func(ctx context.Context, tx usecase.Transaction, id string, balance domain.Money, expectedVersion int64, updatedAt time.Time) error {
		f.accounts.UpdateBalanceFunc = nil
		return domain.ErrVersionConflict
	}

	transfer, err := f.uc.ExecuteTransfer(ctx, usecase.ExecuteTransferInput{
		IdempotencyKey: "K1",
		InitiatorID:    "cust-1",
		FromAccountID:  "acc-a",
		ToAccountID:    "acc-b",
		Amount:         money(t, "100.50", "SEK"),
	})
	require.NoError(t, err)
	require.Equal(t, domain.TransferStatusSuccess, transfer.Status)

	from, err := f.accounts.GetByID(ctx, "acc-a")
	require.NoError(t, err)
	require.True(t, from.Balance.Amount.Equal(decimal.RequireFromString("899.50")))
	require.Len(t, f.ledger.Entries(), 2)
}

func TestExecuteTransfer_RetriesExhausted(t *testing.T) {
	f := newTransferFixture(t)
	ctx := context.Background()

	seedAccount(t, f.accounts, "acc-a", "cust-1", "1000.00", "SEK")
	seedAccount(t, f.accounts, "acc-b", "cust-2", "500.00", "SEK")

	attempts := 0
	f.accounts.UpdateBalanceFunc = func(ctx context.Context, tx usecase.Transaction, id string, balance domain.Money, expectedVersion int64, updatedAt time.Time) error {
		attempts++
		return domain.ErrVersionConflict
	}

	_, err := f.uc.ExecuteTransfer(ctx, usecase.ExecuteTransferInput{
		IdempotencyKey: "K1",
		InitiatorID:    "cust-1",
		FromAccountID:  "acc-a",
		ToAccountID:    "acc-b",
		Amount:         money(t, "100.50", "SEK"),
	})
	require.ErrorIs(t, err, domain.ErrConcurrencyExhausted)
	require.Equal(t, 3, attempts)
	require.Empty(t, f.ledger.Entries())
	require.Equal(t, 0, f.transfers.Count())
}

func TestExecuteTransfer_DuplicateKeyRaceReplaysWinner(t *testing.T) {
	f := newTransferFixture(t)
	ctx := context.Background()

	seedAccount(t, f.accounts, "acc-a", "cust-1", "1000.00", "SEK")
	seedAccount(t, f.accounts, "acc-b", "cust-2", "500.00", "SEK")

	// The key is unseen at the registry check, but another writer commits
	// it before our insert lands.
	winner := &domain.Transfer{
		ID:             "transfer-winner",
		FromAccountID:  "acc-a",
		ToAccountID:    "acc-b",
		Amount:         money(t, "100.50", "SEK"),
		Status:         domain.TransferStatusSuccess,
		IdempotencyKey: "K1",
		CreatedAt:      time.Now().UTC(),
	}

	lookups := 0
	f.transfers.GetByIdempotencyKeyFunc = func(ctx context.Context, key string) (*domain.Transfer, error) {
		lookups++
		if lookups == 1 {
			return nil, fmt.Errorf("%w: key %s", domain.ErrTransferNotFound, key)
		}
		return winner, nil
	}
	f.transfers.CreateFunc = func(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
		return domain.ErrDuplicateKey
	}

	got, err := f.uc.ExecuteTransfer(ctx, usecase.ExecuteTransferInput{
		IdempotencyKey: "K1",
		InitiatorID:    "cust-1",
		FromAccountID:  "acc-a",
		ToAccountID:    "acc-b",
		Amount:         money(t, "100.50", "SEK"),
	})
	require.NoError(t, err)
	require.Equal(t, "transfer-winner", got.ID)

	// Our aborted attempt rolled back: the winner's effects are not
	// double-applied on top of ours.
	from, err := f.accounts.GetByID(ctx, "acc-a")
	require.NoError(t, err)
	require.True(t, from.Balance.Amount.Equal(decimal.RequireFromString("1000.00")), "got %s", from.Balance)
	require.Equal(t, int64(0), from.Version)
	require.Empty(t, f.ledger.Entries())
}

func TestExecuteTransfer_ConcurrentConservation(t *testing.T) {
	f := newTransferFixture(t)
	ctx := context.Background()

	seedAccount(t, f.accounts, "acc-a", "cust-1", "1000.00", "SEK")
	seedAccount(t, f.accounts, "acc-b", "cust-2", "1000.00", "SEK")

	const workers = 20
	amount := money(t, "30.00", "SEK")

	var (
		wg                 sync.WaitGroup
		mu                 sync.Mutex
		aToB, bToA, failed int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			input := usecase.ExecuteTransferInput{
				IdempotencyKey: fmt.Sprintf("key-%d", i),
				Amount:         amount,
			}
			if i%2 == 0 {
				input.InitiatorID = "cust-1"
				input.FromAccountID = "acc-a"
				input.ToAccountID = "acc-b"
			} else {
				input.InitiatorID = "cust-2"
				input.FromAccountID = "acc-b"
				input.ToAccountID = "acc-a"
			}

			_, err := f.uc.ExecuteTransfer(ctx, input)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && i%2 == 0:
				aToB++
			case err == nil:
				bToA++
			case errors.Is(err, domain.ErrConcurrencyExhausted):
				failed++
			default:
				t.Errorf("unexpected transfer error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	a, err := f.accounts.GetByID(ctx, "acc-a")
	require.NoError(t, err)
	b, err := f.accounts.GetByID(ctx, "acc-b")
	require.NoError(t, err)

	// Money is conserved regardless of which attempts won or gave up.
	total := a.Balance.Amount.Add(b.Balance.Amount)
	require.True(t, total.Equal(decimal.RequireFromString("2000.00")), "total drifted to %s", total)
	require.False(t, a.Balance.Amount.IsNegative())
	require.False(t, b.Balance.Amount.IsNegative())

	// Each successful transfer moved exactly one amount and wrote exactly
	// one entry pair.
	net := decimal.RequireFromString("30.00").Mul(decimal.NewFromInt(int64(bToA - aToB)))
	require.True(t, a.Balance.Amount.Equal(decimal.RequireFromString("1000.00").Add(net)))
	require.Len(t, f.ledger.Entries(), 2*(aToB+bToA))
	require.Equal(t, aToB+bToA, f.transfers.Count())
	require.Equal(t, workers, aToB+bToA+failed)
}

func TestGetTransfer(t *testing.T) {
	f := newTransferFixture(t)
	ctx := context.Background()

	seedAccount(t, f.accounts, "acc-a", "cust-1", "1000.00", "SEK")
	seedAccount(t, f.accounts, "acc-b", "cust-2", "500.00", "SEK")

	created, err := f.uc.ExecuteTransfer(ctx, usecase.ExecuteTransferInput{
		IdempotencyKey: "K1",
		InitiatorID:    "cust-1",
		FromAccountID:  "acc-a",
		ToAccountID:    "acc-b",
		Amount:         money(t, "10.00", "SEK"),
	})
	require.NoError(t, err)

	// Both parties can read it.
	got, err := f.uc.GetTransfer(ctx, "cust-1", created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	_, err = f.uc.GetTransfer(ctx, "cust-2", created.ID)
	require.NoError(t, err)

	// A third customer sees nothing.
	_, err = f.uc.GetTransfer(ctx, "cust-3", created.ID)
	require.ErrorIs(t, err, domain.ErrTransferNotFound)

	_, err = f.uc.GetTransfer(ctx, "cust-1", "missing")
	require.ErrorIs(t, err, domain.ErrTransferNotFound)
}
