// Package memstore is an in-memory implementation of ports.UnitOfWork for
// tests. Writes are buffered per unit of work and applied on Commit after the
// same version checks the Postgres repositories perform, so concurrent use
// cases race exactly as they would against the database.
package memstore

import (
	"cmp"
	"errors"
	"slices"
	"sync"

	"dispatch/internal/core/domain/model/cashtx"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

var (
	ErrNoTransaction = errors.New("memstore: no active transaction")
	ErrDuplicateKey  = errors.New("memstore: duplicate key")
)

// Store holds committed state.
type Store struct {
	mu       sync.Mutex
	couriers map[kernel.UUID]courier.Snapshot
	orders   map[kernel.UUID]order.Snapshot
	txs      map[kernel.UUID]cashtx.Snapshot
	seq      map[kernel.UUID]int
	next     int

	// FailCommit, when set, is returned by the next Commit instead of applying it.
	FailCommit error
	commits    int
}

func New() *Store {
	return &Store{
		couriers: make(map[kernel.UUID]courier.Snapshot),
		orders:   make(map[kernel.UUID]order.Snapshot),
		txs:      make(map[kernel.UUID]cashtx.Snapshot),
		seq:      make(map[kernel.UUID]int),
	}
}

// Create implements ports.UnitOfWorkFactory.
func (s *Store) Create() ports.UnitOfWork {
	return &UnitOfWork{store: s}
}

// Commits returns the number of successful commits.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// PutCourier stores c directly, bypassing any unit of work.
func (s *Store) PutCourier(c *courier.Courier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.couriers[c.ID()] = c.Snapshot()
}

func (s *Store) PutOrder(o *order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID()] = o.Snapshot()
}

// Courier returns the committed courier or nil.
func (s *Store) Courier(id kernel.UUID) *courier.Courier {
	s.mu.Lock()
	snap, ok := s.couriers[id]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	c, err := courier.RestoreCourier(snap)
	if err != nil {
		panic(err)
	}
	return c
}

func (s *Store) Order(id kernel.UUID) *order.Order {
	s.mu.Lock()
	snap, ok := s.orders[id]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	o, err := order.RestoreOrder(snap)
	if err != nil {
		panic(err)
	}
	return o
}

// Transactions returns every committed cash transaction of an order.
func (s *Store) Transactions(orderID kernel.UUID) []*cashtx.CashTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transactionsLocked(orderID, nil)
}

func (s *Store) transactionsLocked(orderID kernel.UUID, staged map[kernel.UUID]cashtx.Snapshot) []*cashtx.CashTransaction {
	merged := make(map[kernel.UUID]cashtx.Snapshot)
	for id, snap := range s.txs {
		merged[id] = snap
	}
	for id, snap := range staged {
		merged[id] = snap
	}

	var out []cashtx.Snapshot
	for _, snap := range merged {
		if snap.Parties.OrderID.IsEqual(orderID) {
			out = append(out, snap)
		}
	}
	slices.SortFunc(out, func(a, b cashtx.Snapshot) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(s.seqOf(a.ID), s.seqOf(b.ID))
	})

	txs := make([]*cashtx.CashTransaction, 0, len(out))
	for _, snap := range out {
		tx, err := cashtx.RestoreCashTransaction(snap)
		if err != nil {
			panic(err)
		}
		txs = append(txs, tx)
	}
	return txs
}

// seqOf orders rows inserted within the same instant. Staged rows sort last.
func (s *Store) seqOf(id kernel.UUID) int {
	if n, ok := s.seq[id]; ok {
		return n
	}
	return int(^uint(0) >> 1)
}

func notFound(param string, id kernel.UUID) error {
	return errs.NewObjectNotFoundError(param, id.String())
}

func versionConflict(param string) error {
	return errs.NewVersionIsInvalidError(param)
}

var _ ports.UnitOfWorkFactory = (*Store)(nil)
