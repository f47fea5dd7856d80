package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iho/bankcore/internal/adapter/http/dto"
	"github.com/iho/bankcore/internal/domain"
	"github.com/iho/bankcore/internal/infrastructure/auth"
)

type customerServiceStub struct {
	registerFn     func(ctx context.Context, email, password string) (*domain.Customer, error)
	authenticateFn func(ctx context.Context, email, password string) (*domain.Customer, error)
	getFn          func(ctx context.Context, id string) (*domain.Customer, error)
}

func (s *customerServiceStub) Register(ctx context.Context, email, password string) (*domain.Customer, error) {
	return s.registerFn(ctx, email, password)
}

func (s *customerServiceStub) Authenticate(ctx context.Context, email, password string) (*domain.Customer, error) {
	return s.authenticateFn(ctx, email, password)
}

func (s *customerServiceStub) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return s.getFn(ctx, id)
}

func testTokenIssuer() *auth.JWTManager {
	return auth.NewJWTManager("test-secret", time.Hour)
}

func TestCustomerHandler_Register(t *testing.T) {
	handler := NewCustomerHandler(&customerServiceStub{
		registerFn: func(ctx context.Context, email, password string) (*domain.Customer, error) {
			if email != "anna@example.com" {
				t.Fatalf("unexpected email %q", email)
			}
			return &domain.Customer{ID: "cust-1", Email: email}, nil
		},
	}, testTokenIssuer())

	body, _ := json.Marshal(dto.RegisterRequest{Email: "anna@example.com", Password: "s3cret-pass"})
	req := httptest.NewRequest(http.MethodPost, "/customers", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.CustomerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "cust-1" {
		t.Fatalf("expected customer cust-1, got %s", resp.ID)
	}
}

func TestCustomerHandler_Register_EmailTaken(t *testing.T) {
	handler := NewCustomerHandler(&customerServiceStub{
		registerFn: func(ctx context.Context, email, password string) (*domain.Customer, error) {
			return nil, domain.ErrEmailTaken
		},
	}, testTokenIssuer())

	body, _ := json.Marshal(dto.RegisterRequest{Email: "anna@example.com", Password: "s3cret-pass"})
	req := httptest.NewRequest(http.MethodPost, "/customers", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestCustomerHandler_Login_IssuesVerifiableToken(t *testing.T) {
	issuer := testTokenIssuer()
	handler := NewCustomerHandler(&customerServiceStub{
		authenticateFn: func(ctx context.Context, email, password string) (*domain.Customer, error) {
			return &domain.Customer{ID: "cust-1", Email: email}, nil
		},
	}, issuer)

	body, _ := json.Marshal(dto.LoginRequest{Email: "anna@example.com", Password: "s3cret-pass"})
	req := httptest.NewRequest(http.MethodPost, "/customers/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if !resp.ExpiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", resp.ExpiresAt)
	}

	claims, err := issuer.Verify(resp.Token)
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if claims.CustomerID != "cust-1" {
		t.Fatalf("expected claims for cust-1, got %q", claims.CustomerID)
	}
}

func TestCustomerHandler_Login_InvalidCredentials(t *testing.T) {
	handler := NewCustomerHandler(&customerServiceStub{
		authenticateFn: func(ctx context.Context, email, password string) (*domain.Customer, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}, testTokenIssuer())

	body, _ := json.Marshal(dto.LoginRequest{Email: "anna@example.com", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/customers/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCustomerHandler_Me(t *testing.T) {
	handler := NewCustomerHandler(&customerServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Customer, error) {
			if id != "cust-1" {
				t.Fatalf("unexpected lookup %q", id)
			}
			return &domain.Customer{ID: "cust-1", Email: "anna@example.com"}, nil
		},
	}, testTokenIssuer())

	req := asCustomer(httptest.NewRequest(http.MethodGet, "/customers/me", nil), "cust-1")
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.CustomerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Email != "anna@example.com" {
		t.Fatalf("unexpected response %+v", resp)
	}
}
