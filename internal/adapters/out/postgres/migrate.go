package postgres

import (
	"context"

	"dispatch/internal/adapters/out/postgres/cashtxrepo"
	"dispatch/internal/adapters/out/postgres/courierrepo"
	"dispatch/internal/adapters/out/postgres/orderrepo"

	"gorm.io/gorm"
)

// Migrate creates or updates the couriers, orders and cash_transactions tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(
		&courierrepo.CourierDTO{},
		&orderrepo.OrderDTO{},
		&cashtxrepo.CashTransactionDTO{},
	)
}
