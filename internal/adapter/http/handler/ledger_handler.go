package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bankcore/internal/adapter/http/dto"
	"github.com/iho/bankcore/internal/domain"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	ListEntries(ctx context.Context, customerID, accountID string, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error)
}

// LedgerHandler serves an account's transaction history.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// ListByAccount lists ledger entries for one of the customer's
// accounts, newest first. Supports from/to RFC 3339 time bounds and
// limit/offset pagination.
func (h *LedgerHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	owner, ok := customerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	filter := domain.LedgerFilter{
		From:   parseTimeQuery(r, "from"),
		To:     parseTimeQuery(r, "to"),
		Limit:  parseIntQuery(r, "limit", 0),
		Offset: parseIntQuery(r, "offset", 0),
	}

	entries, err := h.ledgerUC.ListEntries(r.Context(), owner, accountID, filter)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list ledger entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerEntriesFromDomain(entries))
}
