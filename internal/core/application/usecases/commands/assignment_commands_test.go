package commands_test

import (
	"math"
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAssignNearestCommand(t *testing.T) {
	t.Run("should keep the order and radius", func(t *testing.T) {
		orderID := kernel.NewUUID()

		cmd, err := commands.NewAssignNearestCommand(orderID, 7.5)

		require.NoError(t, err)
		require.NoError(t, cmd.Validate())
		assert.True(t, cmd.OrderID().IsEqual(orderID))
		assert.InDelta(t, 7.5, cmd.MaxRadiusKm(), 1e-9)
	})

	t.Run("should reject radii that are not positive and finite", func(t *testing.T) {
		for _, radius := range []float64{0, -1, math.NaN(), math.Inf(1)} {
			_, err := commands.NewAssignNearestCommand(kernel.NewUUID(), radius)
			require.ErrorIs(t, err, errs.ErrValueIsOutOfRange, "radius %v", radius)
		}
	})

	t.Run("should reject an empty order id", func(t *testing.T) {
		_, err := commands.NewAssignNearestCommand(kernel.UUID{}, 5)

		require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
	})
}

func TestNewManualAssignCommand(t *testing.T) {
	t.Run("should keep both ids", func(t *testing.T) {
		orderID, courierID := kernel.NewUUID(), kernel.NewUUID()

		cmd, err := commands.NewManualAssignCommand(orderID, courierID)

		require.NoError(t, err)
		assert.True(t, cmd.OrderID().IsEqual(orderID))
		assert.True(t, cmd.CourierID().IsEqual(courierID))
	})

	t.Run("should reject empty ids", func(t *testing.T) {
		_, err := commands.NewManualAssignCommand(kernel.NewUUID(), kernel.UUID{})
		require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)

		require.ErrorIs(t, commands.ManualAssignCommand{}.Validate(), commands.ErrManualAssignCommandIsNotConstructed)
	})
}

func TestNewReleaseOrderCommand(t *testing.T) {
	t.Run("should default the reason", func(t *testing.T) {
		cmd, err := commands.NewReleaseOrderCommand(kernel.NewUUID(), "")

		require.NoError(t, err)
		assert.Equal(t, "order released", cmd.Reason())
	})

	t.Run("should keep a given reason", func(t *testing.T) {
		cmd, err := commands.NewReleaseOrderCommand(kernel.NewUUID(), "courier went offline")

		require.NoError(t, err)
		assert.Equal(t, "courier went offline", cmd.Reason())
	})

	t.Run("should not validate when built by hand", func(t *testing.T) {
		require.ErrorIs(t, commands.ReleaseOrderCommand{}.Validate(), commands.ErrReleaseOrderCommandIsNotConstructed)
	})
}

func TestNewAssignPendingOrdersCommand(t *testing.T) {
	t.Run("should keep radius and batch size", func(t *testing.T) {
		cmd, err := commands.NewAssignPendingOrdersCommand(5, 50)

		require.NoError(t, err)
		assert.InDelta(t, 5.0, cmd.RadiusKm(), 1e-9)
		assert.Equal(t, 50, cmd.BatchSize())
	})

	t.Run("should report every invalid argument", func(t *testing.T) {
		_, err := commands.NewAssignPendingOrdersCommand(-1, 0)

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
		assert.Contains(t, err.Error(), "radiusKm")
		assert.Contains(t, err.Error(), "batchSize")
	})
}
