package domain

import "time"

// Audit actions emitted by money-moving operations.
const (
	AuditActionAccountCreate = "ACCOUNT_CREATE"
	AuditActionDeposit       = "DEPOSIT"
	AuditActionWithdraw      = "WITHDRAW"
	AuditActionTransfer      = "TRANSFER"
)

// AuditEvent is one fact about a money-moving operation. Emission is
// best-effort: a failed audit write never fails the operation itself.
type AuditEvent struct {
	ID              string
	ActorCustomerID string
	Action          string
	Details         string
	CreatedAt       time.Time
}
