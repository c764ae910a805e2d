package postgres

import (
	"context"
	"database/sql"
	_ "embed"

	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// dbtx is satisfied by both *sql.DB and *sql.Tx so repositories work inside and outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db        *sql.DB
	orders    repository.OrderRepository
	equipment repository.EquipmentRepository
	payments  repository.PaymentRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:        db,
		orders:    NewOrderRepository(db),
		equipment: NewEquipmentRepository(db),
		payments:  NewPaymentRepository(db),
	}
}

func (s *Store) Orders() repository.OrderRepository        { return s.orders }
func (s *Store) Equipment() repository.EquipmentRepository { return s.equipment }
func (s *Store) Payments() repository.PaymentRepository    { return s.payments }

func (s *Store) Ping(ctx context.Context) error {
	return classify(s.db.PingContext(ctx))
}

type txRepos struct {
	orders    repository.OrderRepository
	equipment repository.EquipmentRepository
	payments  repository.PaymentRepository
}

func (t *txRepos) Orders() repository.OrderRepository        { return t.orders }
func (t *txRepos) Equipment() repository.EquipmentRepository { return t.equipment }
func (t *txRepos) Payments() repository.PaymentRepository    { return t.payments }

// WithinTx runs fn in a READ COMMITTED transaction. Row locks taken with
// SELECT ... FOR UPDATE serialize concurrent writers on the same order or equipment.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		logger.DatabaseResult("BeginTx", 0, err)
		return classify(err)
	}
	defer tx.Rollback()

	repos := &txRepos{
		orders:    &orderRepository{db: tx},
		equipment: &equipmentRepository{db: tx},
		payments:  &paymentRepository{db: tx},
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.DatabaseResult("Commit", 0, err)
		return classify(err)
	}
	return nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.DatabaseCall("Migrate", "schema.sql")
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		logger.DatabaseResult("Migrate", 0, err)
		return classify(err)
	}
	return nil
}
