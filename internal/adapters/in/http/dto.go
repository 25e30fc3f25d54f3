package http

import (
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/cashtx"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

// Wire types of openapi.yaml. Money travels as a decimal string.

type Error struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode,omitempty"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (l Location) toDomain() (kernel.GeoPoint, error) {
	return kernel.NewGeoPoint(l.Lat, l.Lon)
}

func locationOf(p kernel.GeoPoint) Location {
	return Location{Lat: p.Lat(), Lon: p.Lon()}
}

type Created struct {
	Id openapi_types.UUID `json:"id"`
}

type NewCourier struct {
	Name         string           `json:"name"`
	Location     Location         `json:"location"`
	AcceptsCod   bool             `json:"acceptsCod"`
	MaxCashLimit *decimal.Decimal `json:"maxCashLimit,omitempty"`
}

type Courier struct {
	Id                openapi_types.UUID `json:"id"`
	Name              string             `json:"name"`
	Location          Location           `json:"location"`
	LocationUpdatedAt time.Time          `json:"locationUpdatedAt"`
	IsAvailable       bool               `json:"isAvailable"`
	ActiveOrderCount  int                `json:"activeOrderCount"`
	AcceptsCod        bool               `json:"acceptsCod"`
	CashBalance       string             `json:"cashBalance"`
	MaxCashLimit      string             `json:"maxCashLimit"`
}

func courierOf(c queries.GetAllCouriersQueryResponse) Courier {
	return Courier{
		Id:                c.ID.Bytes(),
		Name:              c.Name,
		Location:          locationOf(c.Location),
		LocationUpdatedAt: c.LocationUpdatedAt,
		IsAvailable:       c.IsAvailable,
		ActiveOrderCount:  c.ActiveOrderCount,
		AcceptsCod:        c.AcceptsCOD,
		CashBalance:       money(c.CashBalance),
		MaxCashLimit:      money(c.MaxCashLimit),
	}
}

type LocationUpdate struct {
	Location    Location  `json:"location"`
	ReportedAt  time.Time `json:"reportedAt"`
	IsAvailable *bool     `json:"isAvailable,omitempty"`
}

type Applied struct {
	Applied bool `json:"applied"`
}

type CODPreferences struct {
	AcceptsCod   bool            `json:"acceptsCod"`
	MaxCashLimit decimal.Decimal `json:"maxCashLimit"`
}

type NewOrder struct {
	RestaurantId       openapi_types.UUID `json:"restaurantId"`
	RestaurantLocation Location           `json:"restaurantLocation"`
	CustomerLocation   Location           `json:"customerLocation"`
	RestaurantAmount   decimal.Decimal    `json:"restaurantAmount"`
	IsCod              bool               `json:"isCod"`
	IsRush             bool               `json:"isRush"`
}

type PlacedOrder struct {
	Id  openapi_types.UUID `json:"id"`
	Fee FeeBreakdown       `json:"fee"`
}

type Order struct {
	Id                 openapi_types.UUID `json:"id"`
	RestaurantId       openapi_types.UUID `json:"restaurantId"`
	RestaurantLocation Location           `json:"restaurantLocation"`
	CustomerLocation   Location           `json:"customerLocation"`
	RestaurantAmount   string             `json:"restaurantAmount"`
	DeliveryFee        string             `json:"deliveryFee"`
	IsCod              bool               `json:"isCod"`
	IsRush             bool               `json:"isRush"`
	CreatedAt          time.Time          `json:"createdAt"`
}

func orderOf(o queries.GetUnassignedOrdersQueryResponse) Order {
	return Order{
		Id:                 o.ID.Bytes(),
		RestaurantId:       o.RestaurantID.Bytes(),
		RestaurantLocation: locationOf(o.RestaurantLocation),
		CustomerLocation:   locationOf(o.CustomerLocation),
		RestaurantAmount:   money(o.RestaurantAmount),
		DeliveryFee:        money(o.DeliveryFee),
		IsCod:              o.IsCOD,
		IsRush:             o.IsRush,
		CreatedAt:          o.CreatedAt,
	}
}

type AssignNearestRequest struct {
	MaxRadiusKm float64 `json:"maxRadiusKm"`
}

type CourierRef struct {
	CourierId openapi_types.UUID `json:"courierId"`
}

type ReleaseRequest struct {
	Reason string `json:"reason"`
}

type Released struct {
	Released bool `json:"released"`
}

type AssignmentResult struct {
	Success    bool                `json:"success"`
	Method     string              `json:"method,omitempty"`
	CourierId  *openapi_types.UUID `json:"courierId,omitempty"`
	DistanceKm *float64            `json:"distanceKm,omitempty"`
	ErrorCode  string              `json:"errorCode,omitempty"`
	Reason     string              `json:"reason,omitempty"`
}

func assignmentResultOf(r commands.AssignmentResult) AssignmentResult {
	out := AssignmentResult{
		Success:    r.Success,
		Method:     string(r.Method),
		DistanceKm: r.DistanceKm().Ptr(),
		Reason:     r.Reason,
	}
	if id, ok := r.CourierID().Get(); ok {
		u := id.Bytes()
		out.CourierId = &u
	}
	if code, ok := r.ErrorCode.Get(); ok {
		out.ErrorCode = string(code)
	}
	return out
}

type CODPaymentResult struct {
	Success                bool                `json:"success"`
	DriverToRestaurantTxId *openapi_types.UUID `json:"driverToRestaurantTxId,omitempty"`
	CustomerToDriverTxId   *openapi_types.UUID `json:"customerToDriverTxId,omitempty"`
	BalanceBefore          string              `json:"balanceBefore"`
	BalanceAfter           string              `json:"balanceAfter"`
	Profit                 string              `json:"profit"`
	ErrorCode              string              `json:"errorCode,omitempty"`
	Reason                 string              `json:"reason,omitempty"`
}

func codPaymentResultOf(r commands.CODPaymentResult) CODPaymentResult {
	out := CODPaymentResult{
		Success:                r.Success,
		DriverToRestaurantTxId: uuidPtr(r.DriverToRestaurantTxID),
		CustomerToDriverTxId:   uuidPtr(r.CustomerToDriverTxID),
		BalanceBefore:          money(r.BalanceBefore),
		BalanceAfter:           money(r.BalanceAfter),
		Profit:                 money(r.Profit),
		Reason:                 r.Reason,
	}
	if code, ok := r.ErrorCode.Get(); ok {
		out.ErrorCode = string(code)
	}
	return out
}

type CompleteRequest struct {
	Notes *string `json:"notes,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type CashTransaction struct {
	Id            openapi_types.UUID  `json:"id"`
	OrderId       *openapi_types.UUID `json:"orderId,omitempty"`
	CourierId     openapi_types.UUID  `json:"courierId"`
	Type          string              `json:"type"`
	Status        string              `json:"status"`
	Amount        string              `json:"amount"`
	AppliedAmount *string             `json:"appliedAmount,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	CompletedAt   *time.Time          `json:"completedAt,omitempty"`
	CancelledAt   *time.Time          `json:"cancelledAt,omitempty"`
}

func cashTransactionOf(tx *cashtx.CashTransaction) CashTransaction {
	orderID := tx.OrderID().Bytes()
	return CashTransaction{
		Id:            tx.ID().Bytes(),
		OrderId:       &orderID,
		CourierId:     tx.CourierID().Bytes(),
		Type:          tx.Type().String(),
		Status:        tx.Status().String(),
		Amount:        money(tx.Amount()),
		AppliedAmount: moneyPtr(tx.AppliedAmount()),
		Notes:         tx.Notes().Ptr(),
		CreatedAt:     tx.CreatedAt(),
		CompletedAt:   tx.CompletedAt().Ptr(),
		CancelledAt:   tx.CancelledAt().Ptr(),
	}
}

func cashLegOf(leg queries.GetOrderCashTransactionsQueryResponse) CashTransaction {
	return CashTransaction{
		Id:            leg.ID.Bytes(),
		CourierId:     leg.CourierID.Bytes(),
		Type:          leg.Type,
		Status:        leg.Status,
		Amount:        money(leg.Amount),
		AppliedAmount: moneyPtr(leg.AppliedAmount),
		Notes:         leg.Notes.Ptr(),
		CreatedAt:     leg.CreatedAt,
		CompletedAt:   leg.CompletedAt.Ptr(),
		CancelledAt:   leg.CancelledAt.Ptr(),
	}
}

type FeeRequest struct {
	RestaurantLocation Location        `json:"restaurantLocation"`
	CustomerLocation   Location        `json:"customerLocation"`
	OrderAmount        decimal.Decimal `json:"orderAmount"`
	IsRush             bool            `json:"isRush"`
}

type FeeBreakdown struct {
	DistanceKm         float64 `json:"distanceKm"`
	CityType           string  `json:"cityType"`
	BaseFee            string  `json:"baseFee"`
	DistanceFee        string  `json:"distanceFee"`
	RushSurcharge      string  `json:"rushSurcharge"`
	CalculatedFee      string  `json:"calculatedFee"`
	Fee                string  `json:"fee"`
	IsFreeDelivery     bool    `json:"isFreeDelivery"`
	FreeDeliveryReason *string `json:"freeDeliveryReason,omitempty"`
}

func feeBreakdownOf(b services.FeeBreakdown) FeeBreakdown {
	return FeeBreakdown{
		DistanceKm:         b.DistanceKm,
		CityType:           b.CityType.String(),
		BaseFee:            money(b.BaseFee),
		DistanceFee:        money(b.DistanceFee),
		RushSurcharge:      money(b.RushSurcharge),
		CalculatedFee:      money(b.CalculatedFee),
		Fee:                money(b.Fee),
		IsFreeDelivery:     b.IsFreeDelivery,
		FreeDeliveryReason: b.FreeDeliveryReason.Ptr(),
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func moneyPtr(d kernel.Optional[decimal.Decimal]) *string {
	v, ok := d.Get()
	if !ok {
		return nil
	}
	s := money(v)
	return &s
}

func uuidPtr(id kernel.Optional[kernel.UUID]) *openapi_types.UUID {
	v, ok := id.Get()
	if !ok {
		return nil
	}
	u := v.Bytes()
	return &u
}
