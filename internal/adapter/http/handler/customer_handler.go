package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/iho/bankcore/internal/adapter/http/dto"
	"github.com/iho/bankcore/internal/domain"
)

// CustomerService defines the behavior needed by CustomerHandler.
type CustomerService interface {
	Register(ctx context.Context, email, password string) (*domain.Customer, error)
	Authenticate(ctx context.Context, email, password string) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
}

// TokenIssuer mints access tokens for authenticated customers.
type TokenIssuer interface {
	Generate(customer *domain.Customer) (string, error)
	TokenDuration() time.Duration
}

// CustomerHandler handles registration and authentication requests.
type CustomerHandler struct {
	customerUC CustomerService
	tokens     TokenIssuer
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customerUC CustomerService, tokens TokenIssuer) *CustomerHandler {
	return &CustomerHandler{customerUC: customerUC, tokens: tokens}
}

// Register creates a new customer.
func (h *CustomerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	customer, err := h.customerUC.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to register customer", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.CustomerFromDomain(customer))
}

// Login authenticates a customer and issues a token.
func (h *CustomerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	customer, err := h.customerUC.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to authenticate", err.Error())
		return
	}

	token, err := h.tokens.Generate(customer)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.tokens.TokenDuration()),
	})
}

// Me returns the authenticated customer's profile.
func (h *CustomerHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	customer, err := h.customerUC.GetCustomer(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get customer", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.CustomerFromDomain(customer))
}
