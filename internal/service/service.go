// Package service реализует бизнес-логику сервиса администрирования счетов.
package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/billing-admin/internal/model"
	"github.com/mmeshcher/billing-admin/internal/validation"
)

// ErrInvalidAmount возвращается при попытке одобрить заказ с некорректной суммой.
var ErrInvalidAmount = errors.New("invalid amount")

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	GetPendingBills(ctx context.Context) ([]model.Bill, error)
	ApproveOrder(ctx context.Context, orderID int64, amount decimal.Decimal) error
	DeleteOrder(ctx context.Context, orderID int64) error
}

// Service содержит бизнес-логику сервиса администрирования счетов.
type Service struct {
	repo Repository
}

// NewService создаёт новый сервис с указанным репозиторием.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// GetOrdersByUser возвращает список заказов пользователя.
func (s *Service) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.repo.GetOrdersByUser(ctx, userID)
}

// GetPendingBills возвращает ожидающие заказы с данными владельцев.
func (s *Service) GetPendingBills(ctx context.Context) ([]model.Bill, error) {
	return s.repo.GetPendingBills(ctx)
}

// ApproveOrder одобряет заказ и зачисляет сумму на баланс владельца.
// Сумма проверяется до обращения к хранилищу.
func (s *Service) ApproveOrder(ctx context.Context, orderID int64, amount decimal.Decimal) error {
	if !validation.IsValidAmount(amount) {
		return ErrInvalidAmount
	}
	return s.repo.ApproveOrder(ctx, orderID, amount)
}

// DeleteOrder удаляет заказ без каких-либо компенсаций баланса.
func (s *Service) DeleteOrder(ctx context.Context, orderID int64) error {
	return s.repo.DeleteOrder(ctx, orderID)
}
