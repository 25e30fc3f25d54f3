package ports

import (
	"context"

	"dispatch/internal/core/domain/model/cashtx"
	"dispatch/internal/core/domain/model/kernel"
)

// CashTransactionRepository defines the persistence contract for cash transactions.
type CashTransactionRepository interface {
	Add(ctx context.Context, tx *cashtx.CashTransaction) error

	// Update persists a status change guarded by the transaction's version.
	Update(ctx context.Context, tx *cashtx.CashTransaction) error

	// Get retrieves a transaction or fails with errs.ErrObjectNotFound.
	Get(ctx context.Context, id kernel.UUID) (*cashtx.CashTransaction, error)

	// GetByOrder returns every transaction of an order, oldest first, cancelled ones included.
	GetByOrder(ctx context.Context, orderID kernel.UUID) ([]*cashtx.CashTransaction, error)
}
