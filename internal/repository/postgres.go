// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/billing-admin/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrOrderNotPending возвращается, если заказ не найден или уже обработан.
var (
	ErrOrderNotPending = errors.New("order not found or not pending")
	// ErrUserNotFound возвращается, если владелец заказа отсутствует в таблице users.
	ErrUserNotFound = errors.New("user not found")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// withRetry повторяет fn при временных ошибках хранилища. Бизнес-ошибки
// не ретраятся; повтор одобрения безопасен, так как условный UPDATE при
// повторе не находит строку в статусе pending.
func (r *PostgresRepository) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(3, retry.NewConstant(1*time.Second))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				return retry.RetryableError(err)
			}
			return err
		}

		if isConnectionError(err) {
			return retry.RetryableError(err)
		}

		return err
	})
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// GetOrdersByUser возвращает заказы пользователя, новые первыми.
// Для неизвестного пользователя возвращается пустой список.
func (r *PostgresRepository) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, created_at, payment_status
		 FROM orders
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0)
	for rows.Next() {
		var (
			id        int64
			createdAt time.Time
			status    string
		)
		if err := rows.Scan(&id, &createdAt, &status); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}

		orders = append(orders, model.Order{
			ID:            id,
			UserID:        userID,
			CreatedAt:     createdAt,
			PaymentStatus: model.PaymentStatus(status),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// GetPendingBills возвращает все ожидающие заказы вместе с данными владельцев.
func (r *PostgresRepository) GetPendingBills(ctx context.Context) ([]model.Bill, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT o.id, o.user_id, o.created_at, o.payment_status, o.amount,
		        u.name, u.email, u.phone, u.balance
		 FROM orders AS o
		 INNER JOIN users AS u ON o.user_id = u.id
		 WHERE o.payment_status = $1
		 ORDER BY o.created_at DESC`,
		string(model.PaymentStatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("select pending bills: %w", err)
	}
	defer rows.Close()

	bills := make([]model.Bill, 0)
	for rows.Next() {
		var (
			b      model.Bill
			status string
			amount *decimal.Decimal
		)
		if err := rows.Scan(&b.OrderID, &b.UserID, &b.CreatedAt, &status, &amount,
			&b.UserName, &b.Email, &b.Phone, &b.Balance); err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}

		b.PaymentStatus = model.PaymentStatus(status)
		b.Amount = amount
		bills = append(bills, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return bills, nil
}

// ApproveOrder переводит заказ из pending в Success и зачисляет сумму на баланс
// владельца в одной транзакции. Условный UPDATE гарантирует, что из двух
// конкурентных одобрений выигрывает только одно.
func (r *PostgresRepository) ApproveOrder(ctx context.Context, orderID int64, amount decimal.Decimal) error {
	return r.withRetry(ctx, func(ctx context.Context) error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var userID int64
		err = tx.QueryRow(ctx,
			`UPDATE orders
			 SET payment_status = $2, amount = $3
			 WHERE id = $1 AND payment_status = $4
			 RETURNING user_id`,
			orderID, string(model.PaymentStatusSuccess), amount, string(model.PaymentStatusPending),
		).Scan(&userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotPending
			}
			return fmt.Errorf("update order status: %w", err)
		}

		cmdTag, err := tx.Exec(ctx,
			`UPDATE users SET balance = balance + $2 WHERE id = $1`,
			userID, amount,
		)
		if err != nil {
			return fmt.Errorf("credit user balance: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		return nil
	})
}

// DeleteOrder удаляет заказ. Удаление несуществующего заказа считается успехом.
func (r *PostgresRepository) DeleteOrder(ctx context.Context, orderID int64) error {
	return r.withRetry(ctx, func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
		if err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		return nil
	})
}
