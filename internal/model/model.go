// Package model содержит доменные сущности сервиса администрирования счетов.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus описывает статус оплаты заказа.
type PaymentStatus string

const (
	// PaymentStatusPending — заказ ожидает решения администратора.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusSuccess — заказ одобрен, сумма зачислена пользователю.
	PaymentStatusSuccess PaymentStatus = "Success"
)

// User представляет пользователя, к которому привязаны заказы.
type User struct {
	ID      int64
	Name    string
	Email   string
	Phone   string
	Balance decimal.Decimal
}

// Order описывает заказ пользователя. Amount заполняется только при одобрении.
type Order struct {
	ID            int64
	UserID        int64
	CreatedAt     time.Time
	PaymentStatus PaymentStatus
	Amount        *decimal.Decimal
}

// Bill — ожидающий заказ вместе с данными владельца для таблицы дашборда.
type Bill struct {
	OrderID       int64
	UserID        int64
	CreatedAt     time.Time
	PaymentStatus PaymentStatus
	Amount        *decimal.Decimal
	UserName      string
	Email         string
	Phone         string
	Balance       decimal.Decimal
}
