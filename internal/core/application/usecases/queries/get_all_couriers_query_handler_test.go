package queries_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/postgres/courierrepo"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/testutil/pgtest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

var seenAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type GetAllCouriersQueryHandlerTestSuite struct {
	suite.Suite
	database *pgtest.Database
	handler  queries.GetAllCouriersQueryHandler
	repo     *courierrepo.GormCourierRepository
}

func (suite *GetAllCouriersQueryHandlerTestSuite) SetupSuite() {
	database, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.database = database
	suite.handler = queries.NewGetAllCouriersQueryHandler(database.Gorm)
	suite.repo = courierrepo.NewGormCourierRepository(database.Gorm)
}

func (suite *GetAllCouriersQueryHandlerTestSuite) TearDownSuite() {
	if suite.database != nil {
		suite.Require().NoError(suite.database.Terminate(context.Background()))
	}
}

func (suite *GetAllCouriersQueryHandlerTestSuite) SetupTest() {
	suite.Require().NoError(suite.database.Truncate(context.Background()))
}

func (suite *GetAllCouriersQueryHandlerTestSuite) TestHandle_EmptyDatabase_ReturnsEmptySlice() {
	result, err := suite.handler.Handle(context.Background(), queries.NewGetAllCouriersQuery())

	suite.Require().NoError(err)
	suite.NotNil(result)
	suite.Empty(result)
}

func (suite *GetAllCouriersQueryHandlerTestSuite) TestHandle_WithCouriers_ReturnsAllCouriersOrderedByName() {
	charlie := suite.addCourier("Charlie", kernel.MustGeoPoint(33.5400, 36.3000))
	alice := suite.addCourier("Alice", kernel.MustGeoPoint(33.5138, 36.2765))
	bob := suite.addCourier("Bob", kernel.MustGeoPoint(34.7324, 36.7137))

	result, err := suite.handler.Handle(context.Background(), queries.NewGetAllCouriersQuery())

	suite.Require().NoError(err)
	suite.Require().Len(result, 3)
	suite.Equal([]string{"Alice", "Bob", "Charlie"}, []string{result[0].Name, result[1].Name, result[2].Name})
	suite.Equal(alice.ID(), result[0].ID)
	suite.Equal(bob.ID(), result[1].ID)
	suite.Equal(charlie.ID(), result[2].ID)
	suite.True(alice.Location().IsEqual(result[0].Location))
	suite.True(seenAt.Equal(result[0].LocationUpdatedAt))
}

func (suite *GetAllCouriersQueryHandlerTestSuite) TestHandle_MapsAvailabilityAndCash() {
	c := suite.addCourier("Dana", kernel.MustGeoPoint(33.5138, 36.2765))
	suite.Require().NoError(c.SetCODPreferences(true, decimal.RequireFromString("150.50")))
	c.SetAvailability(false)
	suite.Require().NoError(suite.repo.Update(context.Background(), c))

	result, err := suite.handler.Handle(context.Background(), queries.NewGetAllCouriersQuery())

	suite.Require().NoError(err)
	suite.Require().Len(result, 1)
	suite.False(result[0].IsAvailable)
	suite.True(result[0].AcceptsCOD)
	suite.Equal(0, result[0].ActiveOrderCount)
	suite.Equal("150.50", result[0].MaxCashLimit.StringFixed(2))
	suite.True(result[0].CashBalance.IsZero())
}

func (suite *GetAllCouriersQueryHandlerTestSuite) TestHandle_InvalidQuery_ReturnsError() {
	result, err := suite.handler.Handle(context.Background(), queries.GetAllCouriersQuery{})

	suite.Require().Error(err)
	suite.Nil(result)
	suite.Contains(err.Error(), "must be created via NewGetAllCouriersQuery constructor")
}

func (suite *GetAllCouriersQueryHandlerTestSuite) TestHandle_ContextCancellation_ReturnsError() {
	for range 20 {
		suite.addCourier("Courier", kernel.MustGeoPoint(33.5138, 36.2765))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := suite.handler.Handle(ctx, queries.NewGetAllCouriersQuery())

	suite.Require().Error(err)
	suite.Nil(result)
}

func (suite *GetAllCouriersQueryHandlerTestSuite) addCourier(name string, location kernel.GeoPoint) *courier.Courier {
	c, err := courier.NewCourier(kernel.NewUUID(), name, location, seenAt)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repo.Add(context.Background(), c))
	return c
}

func TestGetAllCouriersQueryHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(GetAllCouriersQueryHandlerTestSuite))
}
