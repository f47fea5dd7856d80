package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bankcore/internal/adapter/http/dto"
	"github.com/iho/bankcore/internal/domain"
	"github.com/iho/bankcore/internal/usecase"
)

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	ExecuteTransfer(ctx context.Context, input usecase.ExecuteTransferInput) (*domain.Transfer, error)
	GetTransfer(ctx context.Context, customerID, id string) (*domain.Transfer, error)
}

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	transferUC TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC TransferService) *TransferHandler {
	return &TransferHandler{transferUC: transferUC}
}

// Create executes a transfer. The Idempotency-Key header is mandatory:
// retrying with the same key and payload returns the original result.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	initiator, ok := customerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing Idempotency-Key header", domain.ErrIdempotencyKeyRequired.Error())
		return
	}

	var req dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(key, initiator)
	if err != nil {
		writeError(w, mapDomainError(err), "invalid transfer request", err.Error())
		return
	}

	transfer, err := h.transferUC.ExecuteTransfer(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to execute transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(transfer))
}

// Get retrieves a transfer the customer participated in.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	requester, ok := customerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transfer ID", "")
		return
	}

	transfer, err := h.transferUC.GetTransfer(r.Context(), requester, id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}
