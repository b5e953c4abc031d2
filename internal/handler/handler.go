// Package handler содержит HTTP-обработчики API сервиса администрирования счетов.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/billing-admin/internal/model"
	"github.com/mmeshcher/billing-admin/internal/repository"
	"github.com/mmeshcher/billing-admin/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	GetPendingBills(ctx context.Context) ([]model.Bill, error)
	ApproveOrder(ctx context.Context, orderID int64, amount decimal.Decimal) error
	DeleteOrder(ctx context.Context, orderID int64) error
}

// Handler реализует HTTP-обработчики API сервиса администрирования счетов.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

type orderResponse struct {
	ID            int64  `json:"id"`
	CreatedAt     string `json:"created_at"`
	PaymentStatus string `json:"payment_status"`
}

// GetUserOrders возвращает список заказов указанного пользователя.
// Неизвестный пользователь — пустой список, а не ошибка.
func (h *Handler) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	orders, err := h.service.GetOrdersByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("get user orders error", zap.Error(err), zap.Int64("userID", userID))
		writeError(w, http.StatusInternalServerError, "An error occurred")
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, orderResponse{
			ID:            o.ID,
			CreatedAt:     o.CreatedAt.Format(time.RFC3339),
			PaymentStatus: string(o.PaymentStatus),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type billResponse struct {
	ID            int64            `json:"id"`
	UserID        int64            `json:"user_id"`
	CreatedAt     string           `json:"created_at"`
	PaymentStatus string           `json:"payment_status"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Name          string           `json:"name"`
	Email         string           `json:"email"`
	Phone         string           `json:"phone"`
	Balance       decimal.Decimal  `json:"balance"`
}

// GetBills возвращает все ожидающие заказы с данными владельцев.
func (h *Handler) GetBills(w http.ResponseWriter, r *http.Request) {
	bills, err := h.service.GetPendingBills(r.Context())
	if err != nil {
		h.logger.Error("get pending bills error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "An error occurred")
		return
	}

	resp := make([]billResponse, 0, len(bills))
	for _, b := range bills {
		resp = append(resp, billResponse{
			ID:            b.OrderID,
			UserID:        b.UserID,
			CreatedAt:     b.CreatedAt.Format(time.RFC3339),
			PaymentStatus: string(b.PaymentStatus),
			Amount:        b.Amount,
			Name:          b.UserName,
			Email:         b.Email,
			Phone:         b.Phone,
			Balance:       b.Balance,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type approveRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

// ApproveBill одобряет заказ и зачисляет указанную сумму на баланс владельца.
func (h *Handler) ApproveBill(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseIDParam(r, "orderID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, "amount is required")
		return
	}

	err = h.service.ApproveOrder(r.Context(), orderID, *req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			writeError(w, http.StatusBadRequest, "invalid amount")
		case errors.Is(err, repository.ErrOrderNotPending):
			writeError(w, http.StatusBadRequest, "order is invalid or not pending")
		default:
			h.logger.Error("approve order error", zap.Error(err), zap.Int64("orderID", orderID))
			writeError(w, http.StatusInternalServerError, "An error occurred")
		}
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Order approved successfully."})
}

// DeleteBill удаляет заказ. Удаление несуществующего заказа также отвечает 204.
func (h *Handler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseIDParam(r, "orderID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if err := h.service.DeleteOrder(r.Context(), orderID); err != nil {
		h.logger.Error("delete order error", zap.Error(err), zap.Int64("orderID", orderID))
		writeError(w, http.StatusInternalServerError, "An error occurred")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
