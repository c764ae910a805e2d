package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"

	"github.com/lib/pq"
)

const orderColumns = `o.id, o.equipment_id, o.renter_id, o.start_date, o.end_date, o.total_amount_cents, o.status, o.created_at, o.updated_at`

type orderRepository struct {
	db dbtx
}

func NewOrderRepository(db *sql.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	query := `INSERT INTO orders (equipment_id, renter_id, start_date, end_date, total_amount_cents, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	logger.DatabaseCall("CreateOrder", query, "equipment_id", o.EquipmentID, "renter_id", o.RenterID)
	err := r.db.QueryRowContext(ctx, query, o.EquipmentID, o.RenterID, o.StartDate, o.EndDate, o.TotalAmountCents, o.Status, o.CreatedAt, o.UpdatedAt).Scan(&o.ID)
	if err != nil {
		logger.DatabaseResult("CreateOrder", 0, err)
		return classify(err)
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int32) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, id)
}

func (r *orderRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1 FOR UPDATE`, id)
}

func (r *orderRepository) get(ctx context.Context, query string, id int32) (*domain.Order, error) {
	o := &domain.Order{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&o.ID, &o.EquipmentID, &o.RenterID, &o.StartDate, &o.EndDate, &o.TotalAmountCents, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return o, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, o *domain.Order) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, o.Status, o.UpdatedAt, o.ID)
	if err != nil {
		logger.DatabaseResult("UpdateOrderStatus", 0, err, "order_id", o.ID)
		return classify(err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UpdateOrderStatus", n, nil, "order_id", o.ID, "status", o.Status)
	if n == 0 {
		return classify(sql.ErrNoRows)
	}
	return nil
}

func (r *orderRepository) ListActiveByEquipment(ctx context.Context, equipmentID int32) ([]domain.Order, error) {
	statuses := make([]string, 0, len(domain.ActiveOrderStatuses))
	for _, s := range domain.ActiveOrderStatuses {
		statuses = append(statuses, string(s))
	}
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.equipment_id = $1 AND o.status = ANY($2) ORDER BY o.start_date`
	return r.list(ctx, query, equipmentID, pq.Array(statuses))
}

func (r *orderRepository) ListStartedBy(ctx context.Context, status domain.OrderStatus, cutoff time.Time) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.status = $1 AND o.start_date <= $2 ORDER BY o.start_date, o.id`
	return r.list(ctx, query, status, cutoff)
}

func (r *orderRepository) ListEndedBy(ctx context.Context, status domain.OrderStatus, cutoff time.Time) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.status = $1 AND o.end_date <= $2 ORDER BY o.end_date, o.id`
	return r.list(ctx, query, status, cutoff)
}

func (r *orderRepository) ListByRenter(ctx context.Context, renterID int32, status string, page, pageSize int32) ([]domain.Order, int32, error) {
	base := `SELECT ` + orderColumns + ` FROM orders o WHERE o.renter_id = $1`
	return r.page(ctx, base, renterID, status, page, pageSize)
}

func (r *orderRepository) ListByOwner(ctx context.Context, ownerID int32, status string, page, pageSize int32) ([]domain.Order, int32, error) {
	base := `SELECT ` + orderColumns + ` FROM orders o JOIN equipment e ON e.id = o.equipment_id WHERE e.owner_id = $1`
	return r.page(ctx, base, ownerID, status, page, pageSize)
}

func (r *orderRepository) page(ctx context.Context, base string, id int32, status string, page, pageSize int32) ([]domain.Order, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	args := []any{id}
	argIdx := 2
	if status != "" {
		base += " AND o.status = $2"
		args = append(args, status)
		argIdx++
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, "SELECT count(*) FROM ("+base+") AS sub", args...).Scan(&count); err != nil {
		return nil, 0, classify(err)
	}

	query := base + fmt.Sprintf(" ORDER BY o.created_at DESC, o.id DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)
	orders, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return orders, count, nil
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("ListOrders", 0, err)
		return nil, classify(err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.EquipmentID, &o.RenterID, &o.StartDate, &o.EndDate, &o.TotalAmountCents, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, classify(err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return orders, nil
}
