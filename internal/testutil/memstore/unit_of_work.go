package memstore

import (
	"context"
	"slices"

	"dispatch/internal/core/domain/model/cashtx"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

type staged[T any] struct {
	snap        T
	baseVersion int64
	isNew       bool
}

// UnitOfWork buffers writes until Commit.
type UnitOfWork struct {
	store    *Store
	active   bool
	couriers map[kernel.UUID]*staged[courier.Snapshot]
	orders   map[kernel.UUID]*staged[order.Snapshot]
	txs      map[kernel.UUID]*staged[cashtx.Snapshot]
	txOrder  []kernel.UUID
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	if u.active {
		return nil
	}
	u.active = true
	u.couriers = make(map[kernel.UUID]*staged[courier.Snapshot])
	u.orders = make(map[kernel.UUID]*staged[order.Snapshot])
	u.txs = make(map[kernel.UUID]*staged[cashtx.Snapshot])
	u.txOrder = nil
	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	u.active = false
	return nil
}

// Commit re-checks every staged version against committed state and applies
// all writes atomically, or none of them.
func (u *UnitOfWork) Commit(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	u.active = false

	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailCommit; err != nil {
		s.FailCommit = nil
		return err
	}

	if err := checkStaged(u.couriers, s.couriers, func(c courier.Snapshot) int64 { return c.Version }, "courier"); err != nil {
		return err
	}
	if err := checkStaged(u.orders, s.orders, func(o order.Snapshot) int64 { return o.Version }, "order"); err != nil {
		return err
	}
	if err := checkStaged(u.txs, s.txs, func(t cashtx.Snapshot) int64 { return t.Version }, "cashTransaction"); err != nil {
		return err
	}

	for id, st := range u.couriers {
		s.couriers[id] = st.snap
	}
	for id, st := range u.orders {
		s.orders[id] = st.snap
	}
	for _, id := range u.txOrder {
		if _, ok := s.seq[id]; !ok {
			s.next++
			s.seq[id] = s.next
		}
	}
	for id, st := range u.txs {
		s.txs[id] = st.snap
	}
	s.commits++
	return nil
}

func checkStaged[T any](
	pending map[kernel.UUID]*staged[T],
	committed map[kernel.UUID]T,
	version func(T) int64,
	param string,
) error {
	for id, st := range pending {
		current, exists := committed[id]
		if st.isNew {
			if exists {
				return ErrDuplicateKey
			}
			continue
		}
		if !exists {
			return notFound(param, id)
		}
		if version(current) != st.baseVersion {
			return versionConflict(param)
		}
	}
	return nil
}

func (u *UnitOfWork) CourierRepository() ports.CourierRepository {
	return courierRepo{u: u}
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return orderRepo{u: u}
}

func (u *UnitOfWork) CashTransactionRepository() ports.CashTransactionRepository {
	return txRepo{u: u}
}

// stage records a write of snap. Updates are checked against the committed
// version right away too, like an UPDATE ... WHERE version = ? would.
func stage[T any](
	u *UnitOfWork,
	pending map[kernel.UUID]*staged[T],
	committed map[kernel.UUID]T,
	id kernel.UUID,
	snap T,
	currentVersion int64,
	version func(T) int64,
	isNew bool,
	param string,
) error {
	if !u.active {
		return ErrNoTransaction
	}

	if st, ok := pending[id]; ok {
		if isNew {
			return ErrDuplicateKey
		}
		if version(st.snap) != currentVersion {
			return versionConflict(param)
		}
		st.snap = snap
		return nil
	}

	u.store.mu.Lock()
	current, exists := committed[id]
	u.store.mu.Unlock()

	switch {
	case isNew && exists:
		return ErrDuplicateKey
	case !isNew && !exists:
		return notFound(param, id)
	case !isNew && version(current) != currentVersion:
		return versionConflict(param)
	}

	pending[id] = &staged[T]{snap: snap, baseVersion: currentVersion, isNew: isNew}
	return nil
}

func lookup[T any](u *UnitOfWork, pending map[kernel.UUID]*staged[T], committed map[kernel.UUID]T, id kernel.UUID) (T, bool) {
	if st, ok := pending[id]; ok {
		return st.snap, true
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	snap, ok := committed[id]
	return snap, ok
}

type courierRepo struct{ u *UnitOfWork }

func (r courierRepo) Add(_ context.Context, c *courier.Courier) error {
	return stage(r.u, r.u.couriers, r.u.store.couriers, c.ID(), c.Snapshot(), c.Version(),
		func(s courier.Snapshot) int64 { return s.Version }, true, "courier")
}

func (r courierRepo) Update(_ context.Context, c *courier.Courier) error {
	snap := c.Snapshot()
	snap.Version++
	if err := stage(r.u, r.u.couriers, r.u.store.couriers, c.ID(), snap, c.Version(),
		func(s courier.Snapshot) int64 { return s.Version }, false, "courier"); err != nil {
		return err
	}
	c.AdvanceVersion()
	return nil
}

func (r courierRepo) Get(_ context.Context, id kernel.UUID) (*courier.Courier, error) {
	snap, ok := lookup(r.u, r.u.couriers, r.u.store.couriers, id)
	if !ok {
		return nil, notFound("courier", id)
	}
	return courier.RestoreCourier(snap)
}

func (r courierRepo) GetForUpdate(ctx context.Context, id kernel.UUID) (*courier.Courier, error) {
	return r.Get(ctx, id)
}

func (r courierRepo) GetWithinBounds(_ context.Context, box kernel.BoundingBox, onlyAvailable bool) ([]*courier.Courier, error) {
	r.u.store.mu.Lock()
	snaps := make([]courier.Snapshot, 0, len(r.u.store.couriers))
	for _, snap := range r.u.store.couriers {
		snaps = append(snaps, snap)
	}
	r.u.store.mu.Unlock()

	out := make([]*courier.Courier, 0, len(snaps))
	for _, snap := range snaps {
		if !box.Contains(snap.Location) || (onlyAvailable && !snap.IsAvailable) {
			continue
		}
		c, err := courier.RestoreCourier(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

type orderRepo struct{ u *UnitOfWork }

func (r orderRepo) Add(_ context.Context, o *order.Order) error {
	return stage(r.u, r.u.orders, r.u.store.orders, o.ID(), o.Snapshot(), o.Version(),
		func(s order.Snapshot) int64 { return s.Version }, true, "order")
}

func (r orderRepo) Update(_ context.Context, o *order.Order) error {
	snap := o.Snapshot()
	snap.Version++
	if err := stage(r.u, r.u.orders, r.u.store.orders, o.ID(), snap, o.Version(),
		func(s order.Snapshot) int64 { return s.Version }, false, "order"); err != nil {
		return err
	}
	o.AdvanceVersion()
	return nil
}

func (r orderRepo) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	snap, ok := lookup(r.u, r.u.orders, r.u.store.orders, id)
	if !ok {
		return nil, notFound("order", id)
	}
	return order.RestoreOrder(snap)
}

func (r orderRepo) GetAllUnassigned(_ context.Context, limit int) ([]*order.Order, error) {
	r.u.store.mu.Lock()
	var snaps []order.Snapshot
	for _, snap := range r.u.store.orders {
		if snap.State == order.Unassigned {
			snaps = append(snaps, snap)
		}
	}
	r.u.store.mu.Unlock()

	slices.SortFunc(snaps, func(a, b order.Snapshot) int { return a.CreatedAt.Compare(b.CreatedAt) })
	if limit > 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}

	out := make([]*order.Order, 0, len(snaps))
	for _, snap := range snaps {
		o, err := order.RestoreOrder(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

type txRepo struct{ u *UnitOfWork }

func (r txRepo) Add(_ context.Context, tx *cashtx.CashTransaction) error {
	if err := stage(r.u, r.u.txs, r.u.store.txs, tx.ID(), tx.Snapshot(), tx.Version(),
		func(s cashtx.Snapshot) int64 { return s.Version }, true, "cashTransaction"); err != nil {
		return err
	}
	r.u.txOrder = append(r.u.txOrder, tx.ID())
	return nil
}

func (r txRepo) Update(_ context.Context, tx *cashtx.CashTransaction) error {
	snap := tx.Snapshot()
	snap.Version++
	if err := stage(r.u, r.u.txs, r.u.store.txs, tx.ID(), snap, tx.Version(),
		func(s cashtx.Snapshot) int64 { return s.Version }, false, "cashTransaction"); err != nil {
		return err
	}
	tx.AdvanceVersion()
	return nil
}

func (r txRepo) Get(_ context.Context, id kernel.UUID) (*cashtx.CashTransaction, error) {
	snap, ok := lookup(r.u, r.u.txs, r.u.store.txs, id)
	if !ok {
		return nil, notFound("cashTransaction", id)
	}
	return cashtx.RestoreCashTransaction(snap)
}

func (r txRepo) GetByOrder(_ context.Context, orderID kernel.UUID) ([]*cashtx.CashTransaction, error) {
	pending := make(map[kernel.UUID]cashtx.Snapshot, len(r.u.txs))
	for id, st := range r.u.txs {
		pending[id] = st.snap
	}

	r.u.store.mu.Lock()
	defer r.u.store.mu.Unlock()
	return r.u.store.transactionsLocked(orderID, pending), nil
}
