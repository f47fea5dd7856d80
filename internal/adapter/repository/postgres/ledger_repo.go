package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bankcore/internal/domain"
	"github.com/iho/bankcore/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository. The table is
// append-only: rows are only ever inserted, inside the same transaction
// as the balance writes they describe.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Append inserts ledger entries within the given transaction.
func (r *LedgerRepository) Append(ctx context.Context, tx usecase.Transaction, entries ...*domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, account_id, type, currency, amount, counterparty_account_id, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	pgxTx := tx.(*Tx).PgxTx()

	batch := &pgx.Batch{}
	for _, entry := range entries {
		batch.Queue(query,
			entry.ID,
			entry.AccountID,
			string(entry.Type),
			entry.Amount.Currency,
			decimalToNumeric(entry.Amount.Amount),
			entry.CounterpartyAccountID,
			entry.Reference,
			timeToPgTimestamptz(entry.CreatedAt),
		)
	}

	results := pgxTx.SendBatch(ctx, batch)
	defer results.Close()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return results.Close()
}

// ListByAccount retrieves an account's entries newest first, optionally
// bounded to a time range.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID string, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT id, account_id, type, currency, amount, counterparty_account_id, reference, created_at
		FROM ledger_entries
		WHERE account_id = $1
	`
	args := []any{accountID}

	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}

	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(` AND created_at <= $%d`, len(args))
	}

	args = append(args, filter.Limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	args = append(args, filter.Offset)
	query += fmt.Sprintf(` OFFSET $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		var (
			entry     domain.LedgerEntry
			entryType string
			currency  string
			amount    pgtype.Numeric
			createdAt pgtype.Timestamptz
		)

		err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entryType,
			&currency,
			&amount,
			&entry.CounterpartyAccountID,
			&entry.Reference,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		entry.Type = domain.EntryType(entryType)
		entry.Amount = domain.Money{Amount: numericToDecimal(amount), Currency: currency}
		entry.CreatedAt = createdAt.Time

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
