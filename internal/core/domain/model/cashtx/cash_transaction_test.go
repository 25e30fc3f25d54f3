package cashtx_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/cashtx"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func parties() cashtx.Parties {
	return cashtx.Parties{OrderID: kernel.NewUUID(), CourierID: kernel.NewUUID(), RestaurantID: kernel.NewUUID()}
}

func newTx(t *testing.T, txType cashtx.Type, amount string) *cashtx.CashTransaction {
	t.Helper()
	tx, err := cashtx.NewCashTransaction(kernel.NewUUID(), txType, parties(), decimal.RequireFromString(amount), now)
	require.NoError(t, err)
	return tx
}

func TestNewCashTransaction(t *testing.T) {
	t.Run("should create pending transaction", func(t *testing.T) {
		tx := newTx(t, cashtx.DriverToRestaurant, "45")

		require.NoError(t, tx.Validate())
		assert.Equal(t, cashtx.Pending, tx.Status())
		assert.Equal(t, cashtx.DriverToRestaurant, tx.Type())
		assert.True(t, tx.IsActive())
		assert.False(t, tx.CompletedAt().IsPresent())
		assert.False(t, tx.AppliedAmount().IsPresent())
	})

	t.Run("should reject non positive amount", func(t *testing.T) {
		for _, amount := range []string{"0", "-5"} {
			_, err := cashtx.NewCashTransaction(kernel.NewUUID(), cashtx.CustomerToDriver, parties(),
				decimal.RequireFromString(amount), now)

			require.ErrorIs(t, err, errs.ErrValueIsOutOfRange, amount)
		}
	})

	t.Run("should reject unknown type and missing parties", func(t *testing.T) {
		_, err := cashtx.NewCashTransaction(kernel.NewUUID(), cashtx.UnknownType, cashtx.Parties{},
			decimal.NewFromInt(1), now)

		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
	})
}

func TestCashTransaction_SettlementDelta(t *testing.T) {
	t.Run("driver to restaurant adds the amount", func(t *testing.T) {
		tx := newTx(t, cashtx.DriverToRestaurant, "45")

		delta, err := tx.SettlementDelta(decimal.Zero)

		require.NoError(t, err)
		assert.True(t, delta.Equal(decimal.NewFromInt(45)))
	})

	t.Run("customer to driver subtracts the amount", func(t *testing.T) {
		tx := newTx(t, cashtx.CustomerToDriver, "30")

		delta, err := tx.SettlementDelta(decimal.NewFromInt(80))

		require.NoError(t, err)
		assert.True(t, delta.Equal(decimal.NewFromInt(-30)))
	})

	t.Run("customer to driver is capped at the balance held", func(t *testing.T) {
		tx := newTx(t, cashtx.CustomerToDriver, "50")

		delta, err := tx.SettlementDelta(decimal.NewFromInt(45))

		require.NoError(t, err)
		assert.True(t, delta.Equal(decimal.NewFromInt(-45)))
	})
}

func TestCashTransaction_Complete(t *testing.T) {
	t.Run("should complete pending transaction once", func(t *testing.T) {
		tx := newTx(t, cashtx.DriverToRestaurant, "45")

		require.NoError(t, tx.Complete(now, kernel.Some("paid at counter"), decimal.NewFromInt(45)))

		assert.Equal(t, cashtx.Completed, tx.Status())
		assert.Equal(t, now, tx.CompletedAt().OrElse(time.Time{}))
		assert.Equal(t, "paid at counter", tx.Notes().OrElse(""))
		assert.True(t, tx.AppliedAmount().OrElse(decimal.Zero).Equal(decimal.NewFromInt(45)))

		err := tx.Complete(now, kernel.None[string](), decimal.NewFromInt(45))
		require.ErrorIs(t, err, errs.ErrTransactionStateConflict)

		_, err = tx.SettlementDelta(decimal.Zero)
		require.ErrorIs(t, err, errs.ErrTransactionStateConflict)
	})

	t.Run("should not cancel a completed transaction", func(t *testing.T) {
		tx := newTx(t, cashtx.CustomerToDriver, "50")
		require.NoError(t, tx.Complete(now, kernel.None[string](), decimal.NewFromInt(-45)))

		err := tx.Cancel(now, "customer refused")

		require.ErrorIs(t, err, errs.ErrTransactionStateConflict)
		assert.Equal(t, cashtx.Completed, tx.Status())
	})
}

func TestCashTransaction_Cancel(t *testing.T) {
	t.Run("should cancel pending transaction with reason", func(t *testing.T) {
		tx := newTx(t, cashtx.DriverToRestaurant, "45")

		require.NoError(t, tx.Cancel(now, "order released"))

		assert.Equal(t, cashtx.Cancelled, tx.Status())
		assert.False(t, tx.IsActive())
		assert.Equal(t, "order released", tx.Notes().OrElse(""))
		assert.ErrorIs(t, tx.Cancel(now, "again"), errs.ErrTransactionStateConflict)
		assert.ErrorIs(t, tx.Complete(now, kernel.None[string](), decimal.Zero), errs.ErrTransactionStateConflict)
	})
}

func TestRestoreCashTransaction(t *testing.T) {
	t.Run("should restore completed transaction", func(t *testing.T) {
		tx := newTx(t, cashtx.DriverToRestaurant, "45")
		require.NoError(t, tx.Complete(now, kernel.None[string](), decimal.NewFromInt(45)))
		s := tx.Snapshot()
		s.Version = 2

		restored, err := cashtx.RestoreCashTransaction(s)

		require.NoError(t, err)
		assert.Equal(t, cashtx.Completed, restored.Status())
		assert.Equal(t, int64(2), restored.Version())
		assert.True(t, restored.ID().IsEqual(tx.ID()))
	})

	t.Run("should reject completed transaction without applied amount", func(t *testing.T) {
		s := newTx(t, cashtx.DriverToRestaurant, "45").Snapshot()
		s.Status = cashtx.Completed
		s.CompletedAt = kernel.Some(now)

		_, err := cashtx.RestoreCashTransaction(s)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should reject cancelled transaction without timestamp", func(t *testing.T) {
		s := newTx(t, cashtx.DriverToRestaurant, "45").Snapshot()
		s.Status = cashtx.Cancelled

		_, err := cashtx.RestoreCashTransaction(s)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestParse(t *testing.T) {
	t.Run("should parse stored names", func(t *testing.T) {
		txType, err := cashtx.ParseType("CustomerToDriver")
		require.NoError(t, err)
		assert.Equal(t, cashtx.CustomerToDriver, txType)

		status, err := cashtx.ParseStatus("Cancelled")
		require.NoError(t, err)
		assert.Equal(t, cashtx.Cancelled, status)

		_, err = cashtx.ParseStatus("Refunded")
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}
