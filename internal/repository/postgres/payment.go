package postgres

import (
	"context"
	"database/sql"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

type paymentRepository struct {
	db dbtx
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.PaymentRecord) error {
	query := `INSERT INTO payments (order_id, amount_cents, status, paid_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	logger.DatabaseCall("CreatePayment", query, "order_id", p.OrderID)
	err := r.db.QueryRowContext(ctx, query, p.OrderID, p.AmountCents, p.Status, p.PaidAt, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		logger.DatabaseResult("CreatePayment", 0, err)
		return classify(err)
	}
	return nil
}

func (r *paymentRepository) GetActiveByOrder(ctx context.Context, orderID int32) (*domain.PaymentRecord, error) {
	query := `SELECT id, order_id, amount_cents, status, paid_at, created_at, updated_at
	          FROM payments WHERE order_id = $1 AND status <> 'CANCELLED' FOR UPDATE`
	p := &domain.PaymentRecord{}
	var paidAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(&p.ID, &p.OrderID, &p.AmountCents, &p.Status, &paidAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	if paidAt.Valid {
		t := paidAt.Time
		p.PaidAt = &t
	}
	return p, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, p *domain.PaymentRecord) error {
	query := `UPDATE payments SET status = $1, paid_at = $2, updated_at = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, p.Status, p.PaidAt, p.UpdatedAt, p.ID)
	if err != nil {
		logger.DatabaseResult("UpdatePaymentStatus", 0, err, "payment_id", p.ID)
		return classify(err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UpdatePaymentStatus", n, nil, "payment_id", p.ID, "status", p.Status)
	if n == 0 {
		return classify(sql.ErrNoRows)
	}
	return nil
}
