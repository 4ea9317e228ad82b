package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shopkart/shopkart/internal/domain"
	"github.com/shopkart/shopkart/internal/repository"
	"github.com/shopkart/shopkart/pkg/database"
	apperrors "github.com/shopkart/shopkart/pkg/errors"
)

// PaymentRepository implements repository.PaymentRepository using PostgreSQL.
type PaymentRepository struct {
	pool database.DBTX
}

// NewPaymentRepository creates a new PostgreSQL-backed payment repository.
func NewPaymentRepository(pool database.DBTX) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const paymentColumns = "id, order_id, user_id, gateway, gateway_order_ref, gateway_pay_ref, signature, amount, currency, status, failure_reason, created_at, updated_at"

// Create inserts a new payment intent.
func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (id, order_id, user_id, gateway, gateway_order_ref, gateway_pay_ref, signature, amount, currency, status, failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.OrderID, p.UserID, p.Gateway, p.GatewayOrderRef, p.GatewayPayRef,
		p.Signature, p.Amount, p.Currency, p.Status, p.FailureReason, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return r.scanPayment(r.pool.QueryRow(ctx, query, id), "id", id)
}

// GetByOrderID retrieves the most recent payment for an order.
func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1`
	return r.scanPayment(r.pool.QueryRow(ctx, query, orderID), "order_id", orderID)
}

// GetByGatewayOrderRef retrieves a payment by its gateway-side order
// reference, the key used to correlate webhook callbacks.
func (r *PaymentRepository) GetByGatewayOrderRef(ctx context.Context, ref string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_order_ref = $1`
	return r.scanPayment(r.pool.QueryRow(ctx, query, ref), "gateway_order_ref", ref)
}

func (r *PaymentRepository) scanPayment(row pgx.Row, field, value string) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(
		&p.ID, &p.OrderID, &p.UserID, &p.Gateway, &p.GatewayOrderRef, &p.GatewayPayRef,
		&p.Signature, &p.Amount, &p.Currency, &p.Status, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFoundBy("payment", field, value)
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return &p, nil
}

// UpdateOutcome records a terminal callback result. The status guard
// keeps terminal payments immutable: a second callback for the same
// payment updates zero rows and reports InvalidInput.
func (r *PaymentRepository) UpdateOutcome(ctx context.Context, id string, status domain.PaymentStatus, payRef, signature, failureReason string) error {
	query := `
		UPDATE payments
		SET status = $1, gateway_pay_ref = $2, signature = $3, failure_reason = $4, updated_at = $5
		WHERE id = $6 AND status = $7`

	ct, err := r.pool.Exec(ctx, query, status, payRef, signature, failureReason, time.Now().UTC(), id, domain.PaymentStatusCreated)
	if err != nil {
		return fmt.Errorf("update payment outcome: %w", err)
	}
	if ct.RowsAffected() > 0 {
		return nil
	}

	var current domain.PaymentStatus
	err = r.pool.QueryRow(ctx, `SELECT status FROM payments WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("payment", id)
		}
		return fmt.Errorf("check payment status: %w", err)
	}
	return apperrors.InvalidInput(fmt.Sprintf("payment %s already %s", id, current))
}

// Settle records a terminal callback result and moves the order in the
// same transaction, so a crash can never persist the payment outcome
// without the order transition. The order update is a compare-and-swap
// on st.OrderFrom; a guard miss still commits the payment outcome,
// because an order that moved on mid-callback keeps its payment
// history.
func (r *PaymentRepository) Settle(ctx context.Context, st repository.PaymentSettlement) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	ct, err := tx.Exec(ctx, `
		UPDATE payments
		SET status = $1, gateway_pay_ref = $2, signature = $3, failure_reason = $4, updated_at = $5
		WHERE id = $6 AND status = $7`,
		st.Status, st.GatewayPayRef, st.Signature, st.FailureReason, now, st.PaymentID, domain.PaymentStatusCreated,
	)
	if err != nil {
		return false, fmt.Errorf("update payment outcome: %w", err)
	}
	if ct.RowsAffected() == 0 {
		var current domain.PaymentStatus
		err = tx.QueryRow(ctx, `SELECT status FROM payments WHERE id = $1`, st.PaymentID).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return false, apperrors.NotFound("payment", st.PaymentID)
			}
			return false, fmt.Errorf("check payment status: %w", err)
		}
		return false, apperrors.InvalidInput(fmt.Sprintf("payment %s already %s", st.PaymentID, current))
	}

	oct, err := tx.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		st.OrderTo, now, st.OrderID, st.OrderFrom,
	)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	return oct.RowsAffected() > 0, nil
}
