package handler

import (
	"context"
	"net/http"

	"github.com/iho/bankcore/internal/adapter/http/dto"
	"github.com/iho/bankcore/internal/domain"
)

// AuditService lists recorded audit facts.
type AuditService interface {
	ListByActor(ctx context.Context, actorCustomerID string, limit, offset int) ([]*domain.AuditEvent, error)
}

// AuditHandler serves the authenticated customer's audit trail.
type AuditHandler struct {
	audit AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(audit AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List returns the customer's own audit events, newest first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := customerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	limit, offset := domain.ValidatePagination(
		parseIntQuery(r, "limit", 0),
		parseIntQuery(r, "offset", 0),
	)

	events, err := h.audit.ListByActor(r.Context(), actor, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list audit events", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AuditEventsFromDomain(events))
}
