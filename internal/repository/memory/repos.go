package memory

import (
	"context"
	"sort"
	"time"

	"equiprent-backend/internal/domain"
)

type equipmentRepository struct {
	acc access
}

func (r *equipmentRepository) Create(ctx context.Context, eq *domain.Equipment) error {
	return r.acc.write(func(st *state) error {
		st.nextEquipmentID++
		eq.ID = st.nextEquipmentID
		st.equipment[eq.ID] = *eq
		return nil
	})
}

func (r *equipmentRepository) GetByID(ctx context.Context, id int32) (*domain.Equipment, error) {
	var out domain.Equipment
	err := r.acc.read(func(st *state) error {
		eq, ok := st.equipment[id]
		if !ok {
			return notFound("equipment")
		}
		out = eq
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByIDForUpdate needs no row lock: transactions are already serialized.
func (r *equipmentRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Equipment, error) {
	return r.GetByID(ctx, id)
}

func (r *equipmentRepository) UpdateStatus(ctx context.Context, id int32, status domain.EquipmentStatus, at time.Time) error {
	return r.acc.write(func(st *state) error {
		eq, ok := st.equipment[id]
		if !ok {
			return notFound("equipment")
		}
		eq.Status = status
		eq.UpdatedAt = at
		st.equipment[id] = eq
		return nil
	})
}

type orderRepository struct {
	acc access
}

func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	return r.acc.write(func(st *state) error {
		// same guarantee as the orders_no_overlap exclusion constraint
		if o.Status.IsActive() {
			for _, other := range st.orders {
				if other.EquipmentID == o.EquipmentID && other.Status.IsActive() && other.Overlaps(o.StartDate, o.EndDate) {
					return domain.NewStoreConflictError(nil)
				}
			}
		}
		st.nextOrderID++
		o.ID = st.nextOrderID
		st.orders[o.ID] = *o
		return nil
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id int32) (*domain.Order, error) {
	var out domain.Order
	err := r.acc.read(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return notFound("order")
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *orderRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *orderRepository) UpdateStatus(ctx context.Context, o *domain.Order) error {
	return r.acc.write(func(st *state) error {
		cur, ok := st.orders[o.ID]
		if !ok {
			return notFound("order")
		}
		cur.Status = o.Status
		cur.UpdatedAt = o.UpdatedAt
		st.orders[o.ID] = cur
		return nil
	})
}

func (r *orderRepository) filter(keep func(st *state, o domain.Order) bool, less func(a, b domain.Order) bool) []domain.Order {
	var out []domain.Order
	_ = r.acc.read(func(st *state) error {
		for _, o := range st.orders {
			if keep(st, o) {
				out = append(out, o)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byStart(a, b domain.Order) bool {
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.Before(b.StartDate)
	}
	return a.ID < b.ID
}

func byEnd(a, b domain.Order) bool {
	if !a.EndDate.Equal(b.EndDate) {
		return a.EndDate.Before(b.EndDate)
	}
	return a.ID < b.ID
}

func newestFirst(a, b domain.Order) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (r *orderRepository) ListActiveByEquipment(ctx context.Context, equipmentID int32) ([]domain.Order, error) {
	return r.filter(func(_ *state, o domain.Order) bool {
		return o.EquipmentID == equipmentID && o.Status.IsActive()
	}, byStart), nil
}

func (r *orderRepository) ListStartedBy(ctx context.Context, status domain.OrderStatus, cutoff time.Time) ([]domain.Order, error) {
	return r.filter(func(_ *state, o domain.Order) bool {
		return o.Status == status && !o.StartDate.After(cutoff)
	}, byStart), nil
}

func (r *orderRepository) ListEndedBy(ctx context.Context, status domain.OrderStatus, cutoff time.Time) ([]domain.Order, error) {
	return r.filter(func(_ *state, o domain.Order) bool {
		return o.Status == status && !o.EndDate.After(cutoff)
	}, byEnd), nil
}

func (r *orderRepository) ListByRenter(ctx context.Context, renterID int32, status string, page, pageSize int32) ([]domain.Order, int32, error) {
	all := r.filter(func(_ *state, o domain.Order) bool {
		return o.RenterID == renterID && (status == "" || string(o.Status) == status)
	}, newestFirst)
	return paginate(all, page, pageSize)
}

func (r *orderRepository) ListByOwner(ctx context.Context, ownerID int32, status string, page, pageSize int32) ([]domain.Order, int32, error) {
	all := r.filter(func(st *state, o domain.Order) bool {
		eq, ok := st.equipment[o.EquipmentID]
		return ok && eq.OwnerID == ownerID && (status == "" || string(o.Status) == status)
	}, newestFirst)
	return paginate(all, page, pageSize)
}

func paginate(all []domain.Order, page, pageSize int32) ([]domain.Order, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	total := int32(len(all))
	from := (page - 1) * pageSize
	if from >= total {
		return nil, total, nil
	}
	to := from + pageSize
	if to > total {
		to = total
	}
	return all[from:to], total, nil
}

type paymentRepository struct {
	acc access
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.PaymentRecord) error {
	return r.acc.write(func(st *state) error {
		for _, existing := range st.payments {
			if existing.OrderID == p.OrderID && existing.Status != domain.PaymentStatusCancelled {
				return domain.NewStoreConflictError(nil)
			}
		}
		st.nextPaymentID++
		p.ID = st.nextPaymentID
		st.payments[p.ID] = *p
		return nil
	})
}

func (r *paymentRepository) GetActiveByOrder(ctx context.Context, orderID int32) (*domain.PaymentRecord, error) {
	var out *domain.PaymentRecord
	err := r.acc.read(func(st *state) error {
		for _, p := range st.payments {
			if p.OrderID == orderID && p.Status != domain.PaymentStatusCancelled {
				cp := p
				out = &cp
				return nil
			}
		}
		return notFound("payment")
	})
	return out, err
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, p *domain.PaymentRecord) error {
	return r.acc.write(func(st *state) error {
		cur, ok := st.payments[p.ID]
		if !ok {
			return notFound("payment")
		}
		cur.Status = p.Status
		cur.PaidAt = p.PaidAt
		cur.UpdatedAt = p.UpdatedAt
		st.payments[p.ID] = cur
		return nil
	})
}
