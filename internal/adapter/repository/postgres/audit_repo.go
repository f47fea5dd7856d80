package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bankcore/internal/domain"
)

// AuditRepository implements usecase.AuditEmitter. Audit facts are
// best-effort: callers log emit failures and move on, so this repository
// never participates in the business transaction.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Emit inserts one audit fact.
func (r *AuditRepository) Emit(ctx context.Context, actorCustomerID, action, details string) error {
	query := `
		INSERT INTO audit_logs (id, actor_customer_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		uuid.New().String(),
		actorCustomerID,
		action,
		details,
		timeToPgTimestamptz(time.Now().UTC()),
	)

	return err
}

// ListByActor retrieves audit facts for one actor, newest first.
func (r *AuditRepository) ListByActor(ctx context.Context, actorCustomerID string, limit, offset int) ([]*domain.AuditEvent, error) {
	query := `
		SELECT id, actor_customer_id, action, details, created_at
		FROM audit_logs
		WHERE actor_customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, actorCustomerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		err := rows.Scan(
			&event.ID,
			&event.ActorCustomerID,
			&event.Action,
			&event.Details,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}
