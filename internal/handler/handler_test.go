package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/billing-admin/internal/model"
	"github.com/mmeshcher/billing-admin/internal/repository"
	"github.com/mmeshcher/billing-admin/internal/service"
)

type stubService struct {
	ordersResp []model.Order
	ordersErr  error

	billsResp []model.Bill
	billsErr  error

	approveErr    error
	approveAmount decimal.Decimal

	deleteErr error
}

func (s *stubService) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.ordersResp, s.ordersErr
}

func (s *stubService) GetPendingBills(ctx context.Context) ([]model.Bill, error) {
	return s.billsResp, s.billsErr
}

func (s *stubService) ApproveOrder(ctx context.Context, orderID int64, amount decimal.Decimal) error {
	s.approveAmount = amount
	return s.approveErr
}

func (s *stubService) DeleteOrder(ctx context.Context, orderID int64) error {
	return s.deleteErr
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	return NewHandler(svc, logger)
}

func doRequest(t *testing.T, h *Handler, method, target string, body []byte) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)

	return rec.Result()
}

func TestGetUserOrders_EmptyListForUnknownUser(t *testing.T) {
	svc := &stubService{
		ordersResp: []model.Order{},
	}
	h := newTestHandler(t, svc)

	res := doRequest(t, h, http.MethodGet, "/api/orders/777", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var orders []json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&orders); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if orders == nil || len(orders) != 0 {
		t.Fatalf("expected empty JSON array, got %v", orders)
	}
}

func TestGetUserOrders_InvalidID(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	res := doRequest(t, h, http.MethodGet, "/api/orders/abc", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestGetUserOrders_JSONResponse(t *testing.T) {
	now := time.Now().UTC()
	svc := &stubService{
		ordersResp: []model.Order{
			{ID: 1, UserID: 7, CreatedAt: now, PaymentStatus: model.PaymentStatusPending},
			{ID: 2, UserID: 7, CreatedAt: now.Add(-time.Hour), PaymentStatus: model.PaymentStatusSuccess},
		},
	}
	h := newTestHandler(t, svc)

	res := doRequest(t, h, http.MethodGet, "/api/orders/7", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}

	var orders []orderResponse
	if err := json.NewDecoder(res.Body).Decode(&orders); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("len(orders) = %d, want 2", len(orders))
	}
	if orders[0].ID != 1 || orders[0].PaymentStatus != "pending" {
		t.Fatalf("unexpected first order: %+v", orders[0])
	}
}

func TestGetBills_JSONResponse(t *testing.T) {
	now := time.Now().UTC()
	svc := &stubService{
		billsResp: []model.Bill{
			{
				OrderID:       1,
				UserID:        7,
				CreatedAt:     now,
				PaymentStatus: model.PaymentStatusPending,
				UserName:      "Ivan",
				Email:         "ivan@example.com",
				Phone:         "+7 900 000-00-00",
				Balance:       decimal.RequireFromString("100"),
			},
		},
	}
	h := newTestHandler(t, svc)

	res := doRequest(t, h, http.MethodGet, "/api/bills", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var bills []billResponse
	if err := json.NewDecoder(res.Body).Decode(&bills); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(bills) != 1 {
		t.Fatalf("len(bills) = %d, want 1", len(bills))
	}

	b := bills[0]
	if b.ID != 1 || b.UserID != 7 || b.Name != "Ivan" || b.PaymentStatus != "pending" {
		t.Fatalf("unexpected bill: %+v", b)
	}
	if !b.Balance.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("balance = %s, want 100", b.Balance)
	}
}

func TestGetBills_StoreError(t *testing.T) {
	svc := &stubService{
		billsErr: context.DeadlineExceeded,
	}
	h := newTestHandler(t, svc)

	res := doRequest(t, h, http.MethodGet, "/api/bills", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusInternalServerError)
	}

	var payload errorResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Error != "An error occurred" {
		t.Fatalf("error = %q, want generic message", payload.Error)
	}
}

func TestApproveBill_Success(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)

	res := doRequest(t, h, http.MethodPost, "/api/bills/1/approve", []byte(`{"amount":"25.50"}`))
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var payload messageResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !strings.Contains(payload.Message, "approved") {
		t.Fatalf("message = %q, want approval acknowledgment", payload.Message)
	}
	if !svc.approveAmount.Equal(decimal.RequireFromString("25.50")) {
		t.Fatalf("amount = %s, want 25.50", svc.approveAmount)
	}
}

func TestApproveBill_NumericAmountAccepted(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)

	res := doRequest(t, h, http.MethodPost, "/api/bills/1/approve", []byte(`{"amount":10}`))
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if !svc.approveAmount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("amount = %s, want 10", svc.approveAmount)
	}
}

func TestApproveBill_BadRequests(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		body       string
		approveErr error
	}{
		{
			name:   "missing amount",
			target: "/api/bills/1/approve",
			body:   `{}`,
		},
		{
			name:   "malformed json",
			target: "/api/bills/1/approve",
			body:   `{"amount":`,
		},
		{
			name:   "non-numeric amount",
			target: "/api/bills/1/approve",
			body:   `{"amount":"abc"}`,
		},
		{
			name:   "invalid order id",
			target: "/api/bills/abc/approve",
			body:   `{"amount":"10"}`,
		},
		{
			name:       "negative amount",
			target:     "/api/bills/1/approve",
			body:       `{"amount":"-5"}`,
			approveErr: service.ErrInvalidAmount,
		},
		{
			name:       "order not pending",
			target:     "/api/bills/1/approve",
			body:       `{"amount":"10"}`,
			approveErr: repository.ErrOrderNotPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{
				approveErr: tt.approveErr,
			}
			h := newTestHandler(t, svc)

			res := doRequest(t, h, http.MethodPost, tt.target, []byte(tt.body))
			defer res.Body.Close()

			if res.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
			}

			var payload errorResponse
			if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if payload.Error == "" {
				t.Fatalf("expected error payload")
			}
		})
	}
}

func TestApproveBill_StoreError(t *testing.T) {
	svc := &stubService{
		approveErr: context.DeadlineExceeded,
	}
	h := newTestHandler(t, svc)

	res := doRequest(t, h, http.MethodPost, "/api/bills/1/approve", []byte(`{"amount":"10"}`))
	defer res.Body.Close()

	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusInternalServerError)
	}
}

func TestDeleteBill_NoContent(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(t, svc)

	res := doRequest(t, h, http.MethodDelete, "/api/bills/99", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNoContent)
	}
}

func TestDeleteBill_StoreError(t *testing.T) {
	svc := &stubService{
		deleteErr: context.DeadlineExceeded,
	}
	h := newTestHandler(t, svc)

	res := doRequest(t, h, http.MethodDelete, "/api/bills/99", nil)
	defer res.Body.Close()

	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusInternalServerError)
	}
}
