package commands_test

import (
	"context"
	"errors"
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNearestAssigner struct{ mock.Mock }

func (m *MockNearestAssigner) AssignNearest(
	ctx context.Context,
	cmd commands.AssignNearestCommand,
) (commands.AssignmentResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.AssignmentResult), args.Error(1)
}

func TestAssignPendingOrdersCommandHandler_Handle(t *testing.T) {
	t.Run("should assign what it can and count the rest by code", func(t *testing.T) {
		env := newDispatchEnv(t, nil)
		env.addCourier(t, courierSpec{location: nearDamascus, available: true})
		reachable := env.addOrder(t, damascus, 45, 5, false)
		remote := env.addOrder(t, homs, 30, 5, false)
		_, _, orderFactory := commands.FromPorts(env.store)
		handler := commands.NewAssignPendingOrdersCommandHandler(orderFactory, env.coordinator)
		cmd, err := commands.NewAssignPendingOrdersCommand(5, 10)
		require.NoError(t, err)

		summary, err := handler.Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, 2, summary.Scanned)
		assert.Equal(t, 1, summary.Assigned)
		assert.Equal(t, map[errs.Code]int{errs.CodeNoCourierAvailable: 1}, summary.Skipped)
		assert.Equal(t, order.Assigned, env.store.Order(reachable.ID()).State())
		assert.Equal(t, order.Unassigned, env.store.Order(remote.ID()).State())
	})

	t.Run("should report an empty backlog", func(t *testing.T) {
		env := newDispatchEnv(t, nil)
		_, _, orderFactory := commands.FromPorts(env.store)
		handler := commands.NewAssignPendingOrdersCommandHandler(orderFactory, env.coordinator)
		cmd, err := commands.NewAssignPendingOrdersCommand(5, 10)
		require.NoError(t, err)

		_, err = handler.Handle(t.Context(), cmd)

		require.ErrorIs(t, err, commands.ErrNoOrderFound)
	})

	t.Run("should stop the batch on the first error", func(t *testing.T) {
		env := newDispatchEnv(t, nil)
		env.addOrder(t, damascus, 45, 5, false)
		env.addOrder(t, damascus, 60, 5, false)
		_, _, orderFactory := commands.FromPorts(env.store)
		assigner := &MockNearestAssigner{}
		unavailable := errors.New("database is unavailable")
		assigner.On("AssignNearest", mock.Anything, mock.Anything).
			Return(commands.AssignmentResult{}, unavailable).Once()
		handler := commands.NewAssignPendingOrdersCommandHandler(orderFactory, assigner)
		cmd, err := commands.NewAssignPendingOrdersCommand(5, 10)
		require.NoError(t, err)

		summary, err := handler.Handle(t.Context(), cmd)

		require.ErrorIs(t, err, unavailable)
		assert.Equal(t, 1, summary.Scanned)
		assert.Zero(t, summary.Assigned)
		assigner.AssertExpectations(t)
	})

	t.Run("should honour the batch size", func(t *testing.T) {
		env := newDispatchEnv(t, nil)
		for range 3 {
			env.addOrder(t, damascus, 45, 5, false)
		}
		_, _, orderFactory := commands.FromPorts(env.store)
		assigner := &MockNearestAssigner{}
		assigner.On("AssignNearest", mock.Anything, mock.Anything).
			Return(commands.AssignmentResult{
				Method:     commands.MethodAuto,
				Assignment: kernel.None[commands.DeliveryAssignment](),
				ErrorCode:  kernel.Some(errs.CodeAssignmentInProgress),
			}, nil).Twice()
		handler := commands.NewAssignPendingOrdersCommandHandler(orderFactory, assigner)
		cmd, err := commands.NewAssignPendingOrdersCommand(5, 2)
		require.NoError(t, err)

		summary, err := handler.Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, 2, summary.Scanned)
		assert.Equal(t, 2, summary.Skipped[errs.CodeAssignmentInProgress])
		assigner.AssertExpectations(t)
	})

	t.Run("should not run an unconstructed command", func(t *testing.T) {
		handler := commands.NewAssignPendingOrdersCommandHandler(&MockOrderUoWFactory{}, &MockNearestAssigner{})

		_, err := handler.Handle(t.Context(), commands.AssignPendingOrdersCommand{})

		require.ErrorIs(t, err, commands.ErrAssignPendingOrdersCommandIsNotConstructed)
	})
}
