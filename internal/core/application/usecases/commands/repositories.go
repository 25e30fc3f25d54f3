// Package commands contains business operations that modify system state:
// courier onboarding and heartbeats, order placement, courier assignment and
// the cash-on-delivery ledger.
// All commands follow a consistent pattern: validation, transaction management, and persistence.
package commands

import (
	"context"

	"dispatch/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// Handlers depend on the narrowest one that covers the aggregates they touch.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	CourierRepoFactory interface {
		CourierRepository() ports.CourierRepository
	}

	CashTransactionRepoFactory interface {
		CashTransactionRepository() ports.CashTransactionRepository
	}

	// OrderUoW manages transactions for order-only operations.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// CourierUoW manages transactions for courier-only operations.
	CourierUoW interface {
		TxManager
		CourierRepoFactory
	}

	CourierUoWFactory interface {
		Create() CourierUoW
	}

	// UoW spans couriers, orders and cash transactions. Assignment and the
	// cash ledger need all three in one transaction.
	//
	// Example:
	//   uow := factory.Create()
	//   if err := uow.Begin(ctx); err != nil {
	//       return err
	//   }
	//   defer func() { _ = uow.Rollback(ctx) }()
	//
	//   o, err := uow.OrderRepository().Get(ctx, orderID)
	//   // ... mutate aggregates, Update them
	//
	//   return uow.Commit(ctx)
	UoW interface {
		TxManager
		CourierRepoFactory
		OrderRepoFactory
		CashTransactionRepoFactory
	}

	UoWFactory interface {
		Create() UoW
	}
)

// Adapters from ports.UnitOfWorkFactory to the narrower factories above.
type (
	FuncUoWFactory        func() UoW
	FuncCourierUoWFactory func() CourierUoW
	FuncOrderUoWFactory   func() OrderUoW
)

func (f FuncUoWFactory) Create() UoW               { return f() }
func (f FuncCourierUoWFactory) Create() CourierUoW { return f() }
func (f FuncOrderUoWFactory) Create() OrderUoW     { return f() }

// FromPorts exposes a ports.UnitOfWorkFactory as every factory the handlers need.
func FromPorts(f ports.UnitOfWorkFactory) (UoWFactory, CourierUoWFactory, OrderUoWFactory) {
	return FuncUoWFactory(func() UoW { return f.Create() }),
		FuncCourierUoWFactory(func() CourierUoW { return f.Create() }),
		FuncOrderUoWFactory(func() OrderUoW { return f.Create() })
}
