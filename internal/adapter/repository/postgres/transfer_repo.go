package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bankcore/internal/domain"
	"github.com/iho/bankcore/internal/usecase"
)

// TransferRepository implements usecase.TransferRepository. The unique
// index on idempotency_key makes the transfer row itself the idempotency
// record: a second insert with the same key fails with
// domain.ErrDuplicateKey no matter how close the race.
type TransferRepository struct {
	pool *pgxpool.Pool
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{pool: pool}
}

// Create inserts a transfer record within the given transaction.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	query := `
		INSERT INTO transfers (id, from_account_id, to_account_id, currency, amount, status, idempotency_key, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.(*Tx).PgxTx().Exec(ctx, query,
		transfer.ID,
		transfer.FromAccountID,
		transfer.ToAccountID,
		transfer.Amount.Currency,
		decimalToNumeric(transfer.Amount.Amount),
		string(transfer.Status),
		transfer.IdempotencyKey,
		transfer.Reference,
		timeToPgTimestamptz(transfer.CreatedAt),
	)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateKey
	}

	return err
}

// GetByID retrieves a transfer by ID.
func (r *TransferRepository) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	query := transferSelect + ` WHERE id = $1`

	transfer, err := scanTransfer(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransferNotFound, id)
	}

	return transfer, err
}

// GetByIdempotencyKey retrieves a transfer by its idempotency key.
func (r *TransferRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transfer, error) {
	query := transferSelect + ` WHERE idempotency_key = $1`

	transfer, err := scanTransfer(r.pool.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: key %s", domain.ErrTransferNotFound, key)
	}

	return transfer, err
}

const transferSelect = `
	SELECT id, from_account_id, to_account_id, currency, amount, status, idempotency_key, reference, created_at
	FROM transfers
`

func scanTransfer(row rowScanner) (*domain.Transfer, error) {
	var (
		transfer  domain.Transfer
		currency  string
		amount    pgtype.Numeric
		status    string
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&transfer.ID,
		&transfer.FromAccountID,
		&transfer.ToAccountID,
		&currency,
		&amount,
		&status,
		&transfer.IdempotencyKey,
		&transfer.Reference,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	transfer.Amount = domain.Money{Amount: numericToDecimal(amount), Currency: currency}
	transfer.Status = domain.TransferStatus(status)
	transfer.CreatedAt = createdAt.Time

	return &transfer, nil
}
