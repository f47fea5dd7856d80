package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankcore/internal/adapter/http/dto"
	"github.com/iho/bankcore/internal/domain"
)

type ledgerServiceStub struct {
	listFn func(ctx context.Context, customerID, accountID string, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error)
}

func (s *ledgerServiceStub) ListEntries(ctx context.Context, customerID, accountID string, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
	return s.listFn(ctx, customerID, accountID, filter)
}

func TestLedgerHandler_ListByAccount(t *testing.T) {
	var gotFilter domain.LedgerFilter
	handler := NewLedgerHandler(&ledgerServiceStub{
		listFn: func(ctx context.Context, customerID, accountID string, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
			if customerID != "cust-1" || accountID != "acc-1" {
				t.Fatalf("unexpected lookup %q/%q", customerID, accountID)
			}
			gotFilter = filter
			return []*domain.LedgerEntry{
				{
					ID:        "le-1",
					AccountID: accountID,
					Type:      domain.EntryTypeTransferOut,
					Amount:    domain.Money{Amount: decimal.RequireFromString("10.00"), Currency: "SEK"},
				},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet,
		"/accounts/acc-1/ledger?from=2026-01-01T00:00:00Z&limit=5&offset=10", nil)
	req = asCustomer(setChiURLParam(req, "id", "acc-1"), "cust-1")
	rec := httptest.NewRecorder()

	handler.ListByAccount(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if gotFilter.From == nil || !gotFilter.From.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected from bound to pass through, got %v", gotFilter.From)
	}
	if gotFilter.To != nil {
		t.Fatalf("expected nil to bound, got %v", gotFilter.To)
	}
	if gotFilter.Limit != 5 || gotFilter.Offset != 10 {
		t.Fatalf("expected pagination 5/10, got %d/%d", gotFilter.Limit, gotFilter.Offset)
	}

	var resp []*dto.LedgerEntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Type != string(domain.EntryTypeTransferOut) {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestLedgerHandler_ListByAccount_NotOwned(t *testing.T) {
	handler := NewLedgerHandler(&ledgerServiceStub{
		listFn: func(ctx context.Context, customerID, accountID string, filter domain.LedgerFilter) ([]*domain.LedgerEntry, error) {
			return nil, domain.ErrAccountNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts/acc-2/ledger", nil)
	req = asCustomer(setChiURLParam(req, "id", "acc-2"), "cust-1")
	rec := httptest.NewRecorder()

	handler.ListByAccount(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
