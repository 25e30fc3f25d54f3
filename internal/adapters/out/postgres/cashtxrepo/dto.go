// Package cashtxrepo persists cash-on-delivery transactions.
package cashtxrepo

import (
	"time"

	"dispatch/internal/core/domain/model/cashtx"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashTransactionDTO represents the database structure for persisting cash transactions.
// The partial unique index on (order_id, type) allows one non-cancelled leg
// per order and type.
type CashTransactionDTO struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID           `gorm:"type:uuid;not null;index:idx_cash_transactions_active_leg,unique,priority:1,where:status <> 'Cancelled'"`
	CourierID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	RestaurantID  uuid.UUID           `gorm:"type:uuid;not null"`
	Type          string              `gorm:"type:varchar(32);not null;index:idx_cash_transactions_active_leg,unique,priority:2,where:status <> 'Cancelled'"`
	Amount        decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	Status        string              `gorm:"type:varchar(16);not null"`
	CreatedAt     time.Time           `gorm:"not null"`
	CompletedAt   *time.Time
	CancelledAt   *time.Time
	Notes         *string             `gorm:"type:text"`
	AppliedAmount decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	Version       int64               `gorm:"not null;default:0"`
}

func (CashTransactionDTO) TableName() string {
	return "cash_transactions"
}

func fromDomain(tx *cashtx.CashTransaction) CashTransactionDTO {
	dto := CashTransactionDTO{
		ID:           tx.ID().Bytes(),
		OrderID:      tx.OrderID().Bytes(),
		CourierID:    tx.CourierID().Bytes(),
		RestaurantID: tx.RestaurantID().Bytes(),
		Type:         tx.Type().String(),
		Amount:       tx.Amount(),
		Status:       tx.Status().String(),
		CreatedAt:    tx.CreatedAt().UTC(),
		Version:      tx.Version(),
	}

	if at, ok := tx.CompletedAt().Get(); ok {
		at = at.UTC()
		dto.CompletedAt = &at
	}
	if at, ok := tx.CancelledAt().Get(); ok {
		at = at.UTC()
		dto.CancelledAt = &at
	}
	if notes, ok := tx.Notes().Get(); ok {
		dto.Notes = &notes
	}
	if applied, ok := tx.AppliedAmount().Get(); ok {
		dto.AppliedAmount = decimal.NewNullDecimal(applied)
	}

	return dto
}

func toDomain(dto CashTransactionDTO) (*cashtx.CashTransaction, error) {
	var parties cashtx.Parties
	var err error
	if parties.OrderID, err = kernel.UUIDFromBytes(dto.OrderID[:]); err != nil {
		return nil, err
	}
	if parties.CourierID, err = kernel.UUIDFromBytes(dto.CourierID[:]); err != nil {
		return nil, err
	}
	if parties.RestaurantID, err = kernel.UUIDFromBytes(dto.RestaurantID[:]); err != nil {
		return nil, err
	}

	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	txType, err := cashtx.ParseType(dto.Type)
	if err != nil {
		return nil, err
	}
	status, err := cashtx.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	snap := cashtx.Snapshot{
		ID:            id,
		Type:          txType,
		Parties:       parties,
		Amount:        dto.Amount,
		Status:        status,
		CreatedAt:     dto.CreatedAt.UTC(),
		CompletedAt:   kernel.None[time.Time](),
		CancelledAt:   kernel.None[time.Time](),
		Notes:         kernel.None[string](),
		AppliedAmount: kernel.None[decimal.Decimal](),
		Version:       dto.Version,
	}
	if dto.CompletedAt != nil {
		snap.CompletedAt = kernel.Some(dto.CompletedAt.UTC())
	}
	if dto.CancelledAt != nil {
		snap.CancelledAt = kernel.Some(dto.CancelledAt.UTC())
	}
	if dto.Notes != nil {
		snap.Notes = kernel.Some(*dto.Notes)
	}
	if dto.AppliedAmount.Valid {
		snap.AppliedAmount = kernel.Some(dto.AppliedAmount.Decimal)
	}

	return cashtx.RestoreCashTransaction(snap)
}
