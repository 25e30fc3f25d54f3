package commands_test

import (
	"errors"
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCreateCourierCommand(t *testing.T) commands.CreateCourierCommand {
	t.Helper()
	cmd, err := commands.NewCreateCourierCommand("Alice Johnson", kernel.MustGeoPoint(33.5138, 36.2765),
		true, decimal.NewFromInt(150))
	require.NoError(t, err)
	return cmd
}

func TestCreateCourierCommandHandler_Handle(t *testing.T) {
	t.Run("should persist courier with its cash preferences", func(t *testing.T) {
		ctx := t.Context()
		cmd := newCreateCourierCommand(t)

		var captured *courier.Courier
		mockRepo := new(MockCourierRepository)
		mockUoW := new(MockCourierUoW)
		mockFactory := new(MockCourierUoWFactory)

		mock.InOrder(
			mockUoW.On("Begin", ctx).Return(nil).Once(),
			mockUoW.On("CourierRepository").Return(mockRepo).Once(),
			mockRepo.On("Add", ctx, mock.MatchedBy(func(c *courier.Courier) bool {
				captured = c
				return true
			})).Return(nil).Once(),
			mockUoW.On("Commit", ctx).Return(nil).Once(),
			mockUoW.On("Rollback", ctx).Return(nil).Once(),
		)
		mockFactory.On("Create").Return(mockUoW).Once()

		handler := commands.NewCreateCourierCommandHandler(mockFactory, clock)

		err := handler.Handle(ctx, cmd)

		require.NoError(t, err)
		require.NotNil(t, captured)
		assert.True(t, captured.ID().IsEqual(cmd.CourierID()))
		assert.Equal(t, "Alice Johnson", captured.Name())
		assert.Equal(t, fixedNow, captured.LocationUpdatedAt())
		assert.True(t, captured.AcceptsCOD())
		assert.True(t, captured.MaxCashLimit().Equal(decimal.NewFromInt(150)))
		assert.True(t, captured.CashBalance().IsZero())
		mockFactory.AssertExpectations(t)
		mockUoW.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})

	t.Run("should reject zero value command without touching storage", func(t *testing.T) {
		mockFactory := new(MockCourierUoWFactory)
		handler := commands.NewCreateCourierCommandHandler(mockFactory, clock)

		err := handler.Handle(t.Context(), commands.CreateCourierCommand{})

		require.ErrorIs(t, err, commands.ErrCreateCourierCommandIsNotConstructed)
		mockFactory.AssertNotCalled(t, "Create")
	})

	t.Run("should return begin error", func(t *testing.T) {
		ctx := t.Context()
		beginErr := errors.New("connection refused")
		mockUoW := new(MockCourierUoW)
		mockFactory := new(MockCourierUoWFactory)
		mockUoW.On("Begin", ctx).Return(beginErr).Once()
		mockFactory.On("Create").Return(mockUoW).Once()

		handler := commands.NewCreateCourierCommandHandler(mockFactory, clock)

		err := handler.Handle(ctx, newCreateCourierCommand(t))

		require.ErrorIs(t, err, beginErr)
		mockUoW.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("should roll back when add fails", func(t *testing.T) {
		ctx := t.Context()
		addErr := errors.New("duplicate key")
		mockRepo := new(MockCourierRepository)
		mockUoW := new(MockCourierUoW)
		mockFactory := new(MockCourierUoWFactory)

		mockUoW.On("Begin", ctx).Return(nil).Once()
		mockUoW.On("CourierRepository").Return(mockRepo).Once()
		mockRepo.On("Add", ctx, mock.Anything).Return(addErr).Once()
		mockUoW.On("Rollback", ctx).Return(nil).Once()
		mockFactory.On("Create").Return(mockUoW).Once()

		handler := commands.NewCreateCourierCommandHandler(mockFactory, clock)

		err := handler.Handle(ctx, newCreateCourierCommand(t))

		require.ErrorIs(t, err, addErr)
		mockUoW.AssertNotCalled(t, "Commit", mock.Anything)
		mockUoW.AssertExpectations(t)
	})

	t.Run("should return commit error, not the rollback error", func(t *testing.T) {
		ctx := t.Context()
		commitErr := errors.New("serialization failure")
		mockRepo := new(MockCourierRepository)
		mockUoW := new(MockCourierUoW)
		mockFactory := new(MockCourierUoWFactory)

		mockUoW.On("Begin", ctx).Return(nil).Once()
		mockUoW.On("CourierRepository").Return(mockRepo).Once()
		mockRepo.On("Add", ctx, mock.Anything).Return(nil).Once()
		mockUoW.On("Commit", ctx).Return(commitErr).Once()
		mockUoW.On("Rollback", ctx).Return(errors.New("no transaction")).Once()
		mockFactory.On("Create").Return(mockUoW).Once()

		handler := commands.NewCreateCourierCommandHandler(mockFactory, clock)

		err := handler.Handle(ctx, newCreateCourierCommand(t))

		assert.Equal(t, commitErr, err)
	})
}
