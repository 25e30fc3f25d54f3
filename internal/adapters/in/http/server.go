// Package http exposes the dispatch use cases over REST with echo. The API is
// described by the embedded openapi.yaml, which also validates every request.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/cashtx"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

type CourierCreator interface {
	Handle(ctx context.Context, cmd commands.CreateCourierCommand) error
}

type LocationUpdater interface {
	Handle(ctx context.Context, cmd commands.UpdateCourierLocationCommand) (bool, error)
}

type OrderCreator interface {
	Handle(ctx context.Context, cmd commands.CreateOrderCommand) (services.FeeBreakdown, error)
}

type Assigner interface {
	AssignNearest(ctx context.Context, cmd commands.AssignNearestCommand) (commands.AssignmentResult, error)
	ManualAssign(ctx context.Context, cmd commands.ManualAssignCommand) (commands.AssignmentResult, error)
	Release(ctx context.Context, cmd commands.ReleaseOrderCommand) (bool, error)
}

type Ledger interface {
	ProcessCODPayment(ctx context.Context, orderID, courierID kernel.UUID) (commands.CODPaymentResult, error)
	CompleteTransaction(ctx context.Context, transactionID kernel.UUID, notes kernel.Optional[string]) (*cashtx.CashTransaction, error)
	CancelTransaction(ctx context.Context, transactionID kernel.UUID, reason string) error
	SetPreferences(ctx context.Context, courierID kernel.UUID, acceptsCOD bool, maxCashLimit decimal.Decimal) error
}

type CourierLister interface {
	Handle(ctx context.Context, query queries.GetAllCouriersQuery) ([]queries.GetAllCouriersQueryResponse, error)
}

type UnassignedOrderLister interface {
	Handle(ctx context.Context, query queries.GetUnassignedOrdersQuery) ([]queries.GetUnassignedOrdersQueryResponse, error)
}

type CashTransactionLister interface {
	Handle(
		ctx context.Context,
		query queries.GetOrderCashTransactionsQuery,
	) ([]queries.GetOrderCashTransactionsQueryResponse, error)
}

type FeeQuoter interface {
	Handle(ctx context.Context, query queries.CalculateFeeQuery) (services.FeeBreakdown, error)
}

// Handlers groups the use cases the server delegates to.
type Handlers struct {
	CreateCourier         CourierCreator
	UpdateCourierLocation LocationUpdater
	CreateOrder           OrderCreator
	Assignments           Assigner
	Ledger                Ledger
	Couriers              CourierLister
	UnassignedOrders      UnassignedOrderLister
	CashTransactions      CashTransactionLister
	Fees                  FeeQuoter
}

// Server adapts HTTP requests to the use cases. Business failures of the
// assignment and COD endpoints keep their typed result body and only change
// the status code.
type Server struct {
	h      Handlers
	logger *slog.Logger
}

func NewServer(h Handlers, logger *slog.Logger) *Server {
	return &Server{h: h, logger: logger.With("component", "http")}
}

// Register mounts every API route on e.
func (s *Server) Register(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.GET("/couriers", s.GetCouriers)
	api.POST("/couriers", s.CreateCourier)
	api.PUT("/couriers/:courierId/location", s.UpdateCourierLocation)
	api.PUT("/couriers/:courierId/cod-preferences", s.SetCODPreferences)

	api.POST("/orders", s.CreateOrder)
	api.GET("/orders/unassigned", s.GetUnassignedOrders)
	api.POST("/orders/:orderId/assignments/nearest", s.AssignNearest)
	api.POST("/orders/:orderId/assignments/manual", s.ManualAssign)
	api.POST("/orders/:orderId/release", s.ReleaseOrder)
	api.POST("/orders/:orderId/cod-payment", s.ProcessCODPayment)
	api.GET("/orders/:orderId/cash-transactions", s.GetOrderCashTransactions)

	api.POST("/cash-transactions/:transactionId/complete", s.CompleteCashTransaction)
	api.POST("/cash-transactions/:transactionId/cancel", s.CancelCashTransaction)

	api.POST("/fees/quote", s.CalculateFee)
}

// GetCouriers handles GET /api/v1/couriers.
func (s *Server) GetCouriers(ctx echo.Context) error {
	couriers, err := s.h.Couriers.Handle(ctx.Request().Context(), queries.NewGetAllCouriersQuery())
	if err != nil {
		return s.fail(ctx, err)
	}

	response := make([]Courier, len(couriers))
	for i, c := range couriers {
		response[i] = courierOf(c)
	}
	return ctx.JSON(http.StatusOK, response)
}

// CreateCourier handles POST /api/v1/couriers.
func (s *Server) CreateCourier(ctx echo.Context) error {
	var body NewCourier
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	location, err := body.Location.toDomain()
	if err != nil {
		return s.fail(ctx, err)
	}
	limit := decimal.Zero
	if body.MaxCashLimit != nil {
		limit = *body.MaxCashLimit
	}

	cmd, err := commands.NewCreateCourierCommand(body.Name, location, body.AcceptsCod, limit)
	if err != nil {
		return s.fail(ctx, err)
	}
	if err := s.h.CreateCourier.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, Created{Id: cmd.CourierID().Bytes()})
}

// UpdateCourierLocation handles PUT /api/v1/couriers/{courierId}/location.
func (s *Server) UpdateCourierLocation(ctx echo.Context) error {
	courierID, err := pathUUID(ctx, "courierId")
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	var body LocationUpdate
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	location, err := body.Location.toDomain()
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewUpdateCourierLocationCommand(courierID, location, body.ReportedAt,
		kernel.FromPtr(body.IsAvailable))
	if err != nil {
		return s.fail(ctx, err)
	}
	applied, err := s.h.UpdateCourierLocation.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, Applied{Applied: applied})
}

// SetCODPreferences handles PUT /api/v1/couriers/{courierId}/cod-preferences.
func (s *Server) SetCODPreferences(ctx echo.Context) error {
	courierID, err := pathUUID(ctx, "courierId")
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	var body CODPreferences
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	if err := s.h.Ledger.SetPreferences(ctx.Request().Context(), courierID, body.AcceptsCod, body.MaxCashLimit); err != nil {
		return s.fail(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var body NewOrder
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	restaurantID, err := kernel.UUIDFromGoogle(body.RestaurantId)
	if err != nil {
		return s.fail(ctx, err)
	}
	restaurant, err := body.RestaurantLocation.toDomain()
	if err != nil {
		return s.fail(ctx, err)
	}
	customer, err := body.CustomerLocation.toDomain()
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), restaurantID, restaurant, customer,
		body.RestaurantAmount, body.IsCod, body.IsRush)
	if err != nil {
		return s.fail(ctx, err)
	}
	breakdown, err := s.h.CreateOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, PlacedOrder{Id: cmd.OrderID().Bytes(), Fee: feeBreakdownOf(breakdown)})
}

// GetUnassignedOrders handles GET /api/v1/orders/unassigned.
func (s *Server) GetUnassignedOrders(ctx echo.Context) error {
	var limit int
	if err := runtime.BindQueryParameter("form", true, false, "limit", ctx.QueryParams(), &limit); err != nil {
		return badRequest(ctx, "Invalid format for parameter limit: "+err.Error())
	}

	query, err := queries.NewGetUnassignedOrdersQuery(limit)
	if err != nil {
		return s.fail(ctx, err)
	}
	orders, err := s.h.UnassignedOrders.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := make([]Order, len(orders))
	for i, o := range orders {
		response[i] = orderOf(o)
	}
	return ctx.JSON(http.StatusOK, response)
}

// AssignNearest handles POST /api/v1/orders/{orderId}/assignments/nearest.
func (s *Server) AssignNearest(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "orderId")
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	var body AssignNearestRequest
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewAssignNearestCommand(orderID, body.MaxRadiusKm)
	if err != nil {
		return s.fail(ctx, err)
	}
	res, err := s.h.Assignments.AssignNearest(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	out := assignmentResultOf(res)
	return ctx.JSON(StatusOfResult(out.Success, out.ErrorCode), out)
}

// ManualAssign handles POST /api/v1/orders/{orderId}/assignments/manual.
func (s *Server) ManualAssign(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "orderId")
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	var body CourierRef
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	courierID, err := kernel.UUIDFromGoogle(body.CourierId)
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewManualAssignCommand(orderID, courierID)
	if err != nil {
		return s.fail(ctx, err)
	}
	res, err := s.h.Assignments.ManualAssign(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	out := assignmentResultOf(res)
	return ctx.JSON(StatusOfResult(out.Success, out.ErrorCode), out)
}

// ReleaseOrder handles POST /api/v1/orders/{orderId}/release.
func (s *Server) ReleaseOrder(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "orderId")
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	var body ReleaseRequest
	if ctx.Request().ContentLength != 0 {
		if err := ctx.Bind(&body); err != nil {
			return badRequest(ctx, "Invalid request body")
		}
	}

	cmd, err := commands.NewReleaseOrderCommand(orderID, strings.TrimSpace(body.Reason))
	if err != nil {
		return s.fail(ctx, err)
	}
	released, err := s.h.Assignments.Release(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, Released{Released: released})
}

// ProcessCODPayment handles POST /api/v1/orders/{orderId}/cod-payment.
func (s *Server) ProcessCODPayment(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "orderId")
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	var body CourierRef
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	courierID, err := kernel.UUIDFromGoogle(body.CourierId)
	if err != nil {
		return s.fail(ctx, err)
	}

	res, err := s.h.Ledger.ProcessCODPayment(ctx.Request().Context(), orderID, courierID)
	if err != nil {
		return s.fail(ctx, err)
	}

	out := codPaymentResultOf(res)
	return ctx.JSON(StatusOfResult(out.Success, out.ErrorCode), out)
}

// GetOrderCashTransactions handles GET /api/v1/orders/{orderId}/cash-transactions.
func (s *Server) GetOrderCashTransactions(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "orderId")
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	query, err := queries.NewGetOrderCashTransactionsQuery(orderID)
	if err != nil {
		return s.fail(ctx, err)
	}
	legs, err := s.h.CashTransactions.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := make([]CashTransaction, len(legs))
	for i, leg := range legs {
		response[i] = cashLegOf(leg)
		id := orderID.Bytes()
		response[i].OrderId = &id
	}
	return ctx.JSON(http.StatusOK, response)
}

// CompleteCashTransaction handles POST /api/v1/cash-transactions/{transactionId}/complete.
func (s *Server) CompleteCashTransaction(ctx echo.Context) error {
	transactionID, err := pathUUID(ctx, "transactionId")
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	var body CompleteRequest
	if ctx.Request().ContentLength != 0 {
		if err := ctx.Bind(&body); err != nil {
			return badRequest(ctx, "Invalid request body")
		}
	}

	tx, err := s.h.Ledger.CompleteTransaction(ctx.Request().Context(), transactionID, kernel.FromPtr(body.Notes))
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, cashTransactionOf(tx))
}

// CancelCashTransaction handles POST /api/v1/cash-transactions/{transactionId}/cancel.
func (s *Server) CancelCashTransaction(ctx echo.Context) error {
	transactionID, err := pathUUID(ctx, "transactionId")
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	var body CancelRequest
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	if err := s.h.Ledger.CancelTransaction(ctx.Request().Context(), transactionID, body.Reason); err != nil {
		return s.fail(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// CalculateFee handles POST /api/v1/fees/quote.
func (s *Server) CalculateFee(ctx echo.Context) error {
	var body FeeRequest
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	restaurant, err := body.RestaurantLocation.toDomain()
	if err != nil {
		return s.fail(ctx, err)
	}
	customer, err := body.CustomerLocation.toDomain()
	if err != nil {
		return s.fail(ctx, err)
	}

	query, err := queries.NewCalculateFeeQuery(restaurant, customer, body.OrderAmount, body.IsRush)
	if err != nil {
		return s.fail(ctx, err)
	}
	breakdown, err := s.h.Fees.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, feeBreakdownOf(breakdown))
}

func pathUUID(ctx echo.Context, name string) (kernel.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return kernel.UUID{}, err
	}
	return kernel.UUIDFromGoogle(id)
}
