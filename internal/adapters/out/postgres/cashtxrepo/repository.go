package cashtxrepo

import (
	"context"
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/cashtx"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormCashTransactionRepository implements ports.CashTransactionRepository using GORM.
//
// The database must be opened with gorm.Config{TranslateError: true} so a
// second active leg of the same type is reported as TransactionStateConflict
// instead of a raw driver error.
type GormCashTransactionRepository struct {
	db *gorm.DB
}

func NewGormCashTransactionRepository(db *gorm.DB) *GormCashTransactionRepository {
	return &GormCashTransactionRepository{db: db}
}

func (r *GormCashTransactionRepository) Add(ctx context.Context, tx *cashtx.CashTransaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	dto := fromDomain(tx)
	err := r.db.WithContext(ctx).Create(&dto).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.NewBusinessErrorWithCause(errs.CodeTransactionStateConflict,
			fmt.Sprintf("order %s already has an active %s transaction", tx.OrderID(), tx.Type()), err)
	}
	return err
}

// Update persists the status change of a transaction guarded by its version.
// Amount and parties are fixed at creation and never written again.
func (r *GormCashTransactionRepository) Update(ctx context.Context, tx *cashtx.CashTransaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	dto := fromDomain(tx)
	result := r.db.WithContext(ctx).
		Model(&CashTransactionDTO{}).
		Where("id = ? AND version = ?", dto.ID, dto.Version).
		Updates(map[string]any{
			"status":         dto.Status,
			"completed_at":   dto.CompletedAt,
			"cancelled_at":   dto.CancelledAt,
			"notes":          dto.Notes,
			"applied_amount": dto.AppliedAmount,
			"version":        dto.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&CashTransactionDTO{}).
			Where("id = ?", dto.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NewObjectNotFoundError("cashTransaction", tx.ID().String())
		}
		return errs.NewVersionIsInvalidError("cashTransaction")
	}

	tx.AdvanceVersion()
	return nil
}

func (r *GormCashTransactionRepository) Get(ctx context.Context, id kernel.UUID) (*cashtx.CashTransaction, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto CashTransactionDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("cashTransaction", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetByOrder returns every transaction of the order, oldest first.
func (r *GormCashTransactionRepository) GetByOrder(
	ctx context.Context,
	orderID kernel.UUID,
) ([]*cashtx.CashTransaction, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dtos []CashTransactionDTO
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("created_at, id").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	txs := make([]*cashtx.CashTransaction, 0, len(dtos))
	for _, dto := range dtos {
		tx, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	return txs, nil
}
