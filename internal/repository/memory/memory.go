// Package memory is an in-process Store used by the dev driver and by service tests.
// Transactions are serialized and applied copy-on-write, so a failed unit leaves no trace.
package memory

import (
	"context"
	"sync"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"
)

type state struct {
	equipment map[int32]domain.Equipment
	orders    map[int32]domain.Order
	payments  map[int32]domain.PaymentRecord

	nextEquipmentID int32
	nextOrderID     int32
	nextPaymentID   int32
}

func newState() *state {
	return &state{
		equipment: make(map[int32]domain.Equipment),
		orders:    make(map[int32]domain.Order),
		payments:  make(map[int32]domain.PaymentRecord),
	}
}

func (s *state) clone() *state {
	c := &state{
		equipment:       make(map[int32]domain.Equipment, len(s.equipment)),
		orders:          make(map[int32]domain.Order, len(s.orders)),
		payments:        make(map[int32]domain.PaymentRecord, len(s.payments)),
		nextEquipmentID: s.nextEquipmentID,
		nextOrderID:     s.nextOrderID,
		nextPaymentID:   s.nextPaymentID,
	}
	for k, v := range s.equipment {
		c.equipment[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.payments {
		if v.PaidAt != nil {
			t := *v.PaidAt
			v.PaidAt = &t
		}
		c.payments[k] = v
	}
	return c
}

// access hides whether a repository runs against committed state or a transaction's private copy.
type access interface {
	read(fn func(st *state) error) error
	write(fn func(st *state) error) error
}

type Store struct {
	txMu    sync.Mutex // one writer at a time
	stateMu sync.RWMutex
	current *state

	orders    *orderRepository
	equipment *equipmentRepository
	payments  *paymentRepository
}

func NewStore() *Store {
	s := &Store{current: newState()}
	s.orders = &orderRepository{acc: s}
	s.equipment = &equipmentRepository{acc: s}
	s.payments = &paymentRepository{acc: s}
	return s
}

func (s *Store) Orders() repository.OrderRepository        { return s.orders }
func (s *Store) Equipment() repository.EquipmentRepository { return s.equipment }
func (s *Store) Payments() repository.PaymentRepository    { return s.payments }

func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return domain.NewTransientError("store unavailable", err)
	}
	return nil
}

func (s *Store) read(fn func(st *state) error) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return fn(s.current)
}

func (s *Store) write(fn func(st *state) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return fn(s.current)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.NewTransientError("transaction timed out", err)
	}

	s.stateMu.RLock()
	work := &txState{st: s.current.clone()}
	s.stateMu.RUnlock()

	if err := fn(ctx, work.repos()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return domain.NewTransientError("transaction timed out", err)
	}

	s.stateMu.Lock()
	s.current = work.st
	s.stateMu.Unlock()
	return nil
}

type txState struct {
	st *state
}

func (t *txState) read(fn func(st *state) error) error  { return fn(t.st) }
func (t *txState) write(fn func(st *state) error) error { return fn(t.st) }

func (t *txState) repos() repository.Tx {
	return &txRepos{
		orders:    &orderRepository{acc: t},
		equipment: &equipmentRepository{acc: t},
		payments:  &paymentRepository{acc: t},
	}
}

type txRepos struct {
	orders    *orderRepository
	equipment *equipmentRepository
	payments  *paymentRepository
}

func (r *txRepos) Orders() repository.OrderRepository        { return r.orders }
func (r *txRepos) Equipment() repository.EquipmentRepository { return r.equipment }
func (r *txRepos) Payments() repository.PaymentRepository    { return r.payments }

func notFound(what string) error {
	return &domain.Error{Kind: domain.KindNotFound, Reason: what + " not found"}
}
