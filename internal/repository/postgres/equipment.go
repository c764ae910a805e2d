package postgres

import (
	"context"
	"database/sql"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

const equipmentColumns = `id, owner_id, name, daily_price_cents, latitude, longitude, status, average_rating, created_at, updated_at`

type equipmentRepository struct {
	db dbtx
}

func NewEquipmentRepository(db *sql.DB) repository.EquipmentRepository {
	return &equipmentRepository{db: db}
}

func (r *equipmentRepository) Create(ctx context.Context, eq *domain.Equipment) error {
	query := `INSERT INTO equipment (owner_id, name, daily_price_cents, latitude, longitude, status, average_rating, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	logger.DatabaseCall("CreateEquipment", query, "owner_id", eq.OwnerID)
	err := r.db.QueryRowContext(ctx, query, eq.OwnerID, eq.Name, eq.DailyPriceCents, eq.Latitude, eq.Longitude, eq.Status, eq.AverageRating, eq.CreatedAt, eq.UpdatedAt).Scan(&eq.ID)
	if err != nil {
		logger.DatabaseResult("CreateEquipment", 0, err)
		return classify(err)
	}
	return nil
}

func (r *equipmentRepository) GetByID(ctx context.Context, id int32) (*domain.Equipment, error) {
	return r.get(ctx, `SELECT `+equipmentColumns+` FROM equipment WHERE id = $1`, id)
}

func (r *equipmentRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Equipment, error) {
	return r.get(ctx, `SELECT `+equipmentColumns+` FROM equipment WHERE id = $1 FOR UPDATE`, id)
}

func (r *equipmentRepository) get(ctx context.Context, query string, id int32) (*domain.Equipment, error) {
	eq := &domain.Equipment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&eq.ID, &eq.OwnerID, &eq.Name, &eq.DailyPriceCents, &eq.Latitude, &eq.Longitude, &eq.Status, &eq.AverageRating, &eq.CreatedAt, &eq.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return eq, nil
}

func (r *equipmentRepository) UpdateStatus(ctx context.Context, id int32, status domain.EquipmentStatus, at time.Time) error {
	query := `UPDATE equipment SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, status, at, id)
	if err != nil {
		logger.DatabaseResult("UpdateEquipmentStatus", 0, err, "equipment_id", id)
		return classify(err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UpdateEquipmentStatus", n, nil, "equipment_id", id, "status", status)
	if n == 0 {
		return classify(sql.ErrNoRows)
	}
	return nil
}
