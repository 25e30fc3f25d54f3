package cashtxrepo_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/postgres/cashtxrepo"
	"dispatch/internal/core/domain/model/cashtx"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/testutil/pgtest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

var createdAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type CashTransactionRepositoryIntegrationTestSuite struct {
	suite.Suite
	database   *pgtest.Database
	repository *cashtxrepo.GormCashTransactionRepository
	parties    cashtx.Parties
}

func (suite *CashTransactionRepositoryIntegrationTestSuite) SetupSuite() {
	database, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.database = database
}

func (suite *CashTransactionRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.database.Truncate(context.Background()))
	suite.repository = cashtxrepo.NewGormCashTransactionRepository(suite.database.Gorm)
	suite.parties = cashtx.Parties{
		OrderID:      kernel.NewUUID(),
		CourierID:    kernel.NewUUID(),
		RestaurantID: kernel.NewUUID(),
	}
}

func (suite *CashTransactionRepositoryIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.database.Terminate(context.Background()))
}

func (suite *CashTransactionRepositoryIntegrationTestSuite) TestAdd_PendingTransaction_RoundTrips() {
	ctx := context.Background()
	tx := suite.newTransaction(cashtx.DriverToRestaurant, "45.00", createdAt)

	suite.Require().NoError(suite.repository.Add(ctx, tx))

	stored, err := suite.repository.Get(ctx, tx.ID())
	suite.Require().NoError(err)
	suite.Equal(cashtx.DriverToRestaurant, stored.Type())
	suite.Equal(cashtx.Pending, stored.Status())
	suite.True(stored.OrderID().IsEqual(suite.parties.OrderID))
	suite.True(stored.CourierID().IsEqual(suite.parties.CourierID))
	suite.True(stored.RestaurantID().IsEqual(suite.parties.RestaurantID))
	suite.Equal("45.00", stored.Amount().StringFixed(2))
	suite.True(stored.CreatedAt().Equal(createdAt))
	suite.False(stored.CompletedAt().IsPresent())
	suite.False(stored.AppliedAmount().IsPresent())
	suite.False(stored.Notes().IsPresent())
}

func (suite *CashTransactionRepositoryIntegrationTestSuite) TestUpdate_Completion_StoresAppliedAmountAndNotes() {
	ctx := context.Background()
	tx := suite.newTransaction(cashtx.CustomerToDriver, "50.00", createdAt)
	suite.Require().NoError(suite.repository.Add(ctx, tx))

	completedAt := createdAt.Add(30 * time.Minute)
	suite.Require().NoError(tx.Complete(completedAt, kernel.Some("paid in cash"), decimal.RequireFromString("-45.00")))
	suite.Require().NoError(suite.repository.Update(ctx, tx))

	stored, err := suite.repository.Get(ctx, tx.ID())
	suite.Require().NoError(err)
	suite.Equal(cashtx.Completed, stored.Status())
	at, ok := stored.CompletedAt().Get()
	suite.Require().True(ok)
	suite.True(at.Equal(completedAt))
	applied, ok := stored.AppliedAmount().Get()
	suite.Require().True(ok)
	suite.Equal("-45.00", applied.StringFixed(2))
	notes, _ := stored.Notes().Get()
	suite.Equal("paid in cash", notes)
	suite.Equal(int64(1), stored.Version())
}

func (suite *CashTransactionRepositoryIntegrationTestSuite) TestUpdate_StaleVersion_ReturnsVersionIsInvalid() {
	ctx := context.Background()
	tx := suite.newTransaction(cashtx.DriverToRestaurant, "45.00", createdAt)
	suite.Require().NoError(suite.repository.Add(ctx, tx))

	first, err := suite.repository.Get(ctx, tx.ID())
	suite.Require().NoError(err)
	second, err := suite.repository.Get(ctx, tx.ID())
	suite.Require().NoError(err)

	suite.Require().NoError(first.Cancel(createdAt, "order released"))
	suite.Require().NoError(suite.repository.Update(ctx, first))

	suite.Require().NoError(second.Complete(createdAt, kernel.None[string](), decimal.RequireFromString("45.00")))
	err = suite.repository.Update(ctx, second)

	suite.Require().ErrorIs(err, errs.ErrVersionIsInvalid)
	stored, err := suite.repository.Get(ctx, tx.ID())
	suite.Require().NoError(err)
	suite.Equal(cashtx.Cancelled, stored.Status())
}

func (suite *CashTransactionRepositoryIntegrationTestSuite) TestAdd_SecondActiveLeg_ReturnsTransactionStateConflict() {
	ctx := context.Background()
	first := suite.newTransaction(cashtx.DriverToRestaurant, "45.00", createdAt)
	suite.Require().NoError(suite.repository.Add(ctx, first))

	err := suite.repository.Add(ctx, suite.newTransaction(cashtx.DriverToRestaurant, "45.00", createdAt))

	suite.Require().ErrorIs(err, errs.ErrTransactionStateConflict)
}

func (suite *CashTransactionRepositoryIntegrationTestSuite) TestAdd_AfterCancellation_AllowsNewLeg() {
	ctx := context.Background()
	first := suite.newTransaction(cashtx.DriverToRestaurant, "45.00", createdAt)
	suite.Require().NoError(suite.repository.Add(ctx, first))
	suite.Require().NoError(first.Cancel(createdAt, "wrong amount"))
	suite.Require().NoError(suite.repository.Update(ctx, first))

	second := suite.newTransaction(cashtx.DriverToRestaurant, "47.00", createdAt.Add(time.Minute))
	suite.Require().NoError(suite.repository.Add(ctx, second))
	other := suite.newTransaction(cashtx.CustomerToDriver, "52.00", createdAt.Add(2*time.Minute))
	suite.Require().NoError(suite.repository.Add(ctx, other))

	legs, err := suite.repository.GetByOrder(ctx, suite.parties.OrderID)
	suite.Require().NoError(err)
	suite.Require().Len(legs, 3)
	suite.True(legs[0].ID().IsEqual(first.ID()))
	suite.Equal(cashtx.Cancelled, legs[0].Status())
	suite.True(legs[1].ID().IsEqual(second.ID()))
	suite.True(legs[2].ID().IsEqual(other.ID()))
}

func (suite *CashTransactionRepositoryIntegrationTestSuite) TestGet_NonExistentTransaction_ReturnsNotFoundError() {
	_, err := suite.repository.Get(context.Background(), kernel.NewUUID())

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *CashTransactionRepositoryIntegrationTestSuite) newTransaction(
	txType cashtx.Type,
	amount string,
	at time.Time,
) *cashtx.CashTransaction {
	tx, err := cashtx.NewCashTransaction(kernel.NewUUID(), txType, suite.parties, decimal.RequireFromString(amount), at)
	suite.Require().NoError(err)
	return tx
}

func TestCashTransactionRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(CashTransactionRepositoryIntegrationTestSuite))
}
