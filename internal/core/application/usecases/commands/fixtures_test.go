package commands_test

import (
	"testing"
	"time"

	"dispatch/internal/adapters/out/keylock"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/testutil/memstore"
	"dispatch/internal/testutil/testlog"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	damascus     = kernel.MustGeoPoint(33.5138, 36.2765)
	nearDamascus = kernel.MustGeoPoint(33.5150, 36.2780)
	midDamascus  = kernel.MustGeoPoint(33.5400, 36.3000)
	homs         = kernel.MustGeoPoint(34.7324, 36.7137)
)

// dispatchEnv wires the ledger and the coordinator to an in-memory store.
type dispatchEnv struct {
	store       *memstore.Store
	locker      *keylock.Locker
	notifier    *recordingNotifier
	logs        *testlog.Recorder
	ledger      *commands.CashLedger
	coordinator *commands.AssignmentCoordinator
	uowFactory  commands.UoWFactory
}

func newDispatchEnv(t *testing.T, notifyErr error) *dispatchEnv {
	t.Helper()

	env := &dispatchEnv{
		store:    memstore.New(),
		locker:   keylock.New(),
		notifier: newRecordingNotifier(notifyErr),
		logs:     testlog.New(),
	}
	env.uowFactory, _, _ = commands.FromPorts(env.store)
	env.ledger = commands.NewCashLedger(env.uowFactory, env.locker, env.notifier, ports.NopMetrics{},
		env.logs.Logger(), clock)
	env.coordinator = commands.NewAssignmentCoordinator(env.uowFactory, env.locker, env.ledger, env.notifier,
		ports.NopMetrics{}, env.logs.Logger(), clock, commands.AssignmentConfig{
			MaxAttempts:     50,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
		})
	return env
}

type courierSpec struct {
	location    kernel.GeoPoint
	available   bool
	acceptsCOD  bool
	balance     int64
	limit       int64
	activeCount int
	seenAt      time.Time
}

func (e *dispatchEnv) addCourier(t *testing.T, spec courierSpec) *courier.Courier {
	t.Helper()
	if spec.seenAt.IsZero() {
		spec.seenAt = fixedNow
	}

	c, err := courier.RestoreCourier(courier.Snapshot{
		ID:                kernel.NewUUID(),
		Name:              "courier",
		Location:          spec.location,
		LocationUpdatedAt: spec.seenAt,
		IsAvailable:       spec.available,
		ActiveOrderCount:  spec.activeCount,
		AcceptsCOD:        spec.acceptsCOD,
		CashBalance:       decimal.NewFromInt(spec.balance),
		MaxCashLimit:      decimal.NewFromInt(spec.limit),
	})
	require.NoError(t, err)
	e.store.PutCourier(c)
	return c
}

func (e *dispatchEnv) addOrder(t *testing.T, restaurant kernel.GeoPoint, subtotal, fee int64, isCOD bool) *order.Order {
	t.Helper()

	o, err := order.NewOrder(order.Placement{
		ID:                 kernel.NewUUID(),
		RestaurantID:       kernel.NewUUID(),
		RestaurantLocation: restaurant,
		CustomerLocation:   kernel.MustGeoPoint(33.5200, 36.2900),
		RestaurantAmount:   decimal.NewFromInt(subtotal),
		DeliveryFee:        decimal.NewFromInt(fee),
		IsCOD:              isCOD,
		CreatedAt:          fixedNow,
	})
	require.NoError(t, err)
	e.store.PutOrder(o)
	return o
}

// addAssignedOrder stores a COD order already bound to c.
func (e *dispatchEnv) addAssignedOrder(t *testing.T, c *courier.Courier, subtotal, fee int64) *order.Order {
	t.Helper()

	o, err := order.RestoreOrder(order.Snapshot{
		Placement: order.Placement{
			ID:                 kernel.NewUUID(),
			RestaurantID:       kernel.NewUUID(),
			RestaurantLocation: damascus,
			CustomerLocation:   kernel.MustGeoPoint(33.5200, 36.2900),
			RestaurantAmount:   decimal.NewFromInt(subtotal),
			DeliveryFee:        decimal.NewFromInt(fee),
			IsCOD:              true,
			CreatedAt:          fixedNow,
		},
		State:     order.Assigned,
		CourierID: kernel.Some(c.ID()),
	})
	require.NoError(t, err)
	e.store.PutOrder(o)
	return o
}

func mustAssignNearest(t *testing.T, orderID kernel.UUID, radiusKm float64) commands.AssignNearestCommand {
	t.Helper()
	cmd, err := commands.NewAssignNearestCommand(orderID, radiusKm)
	require.NoError(t, err)
	return cmd
}

func mustManualAssign(t *testing.T, orderID, courierID kernel.UUID) commands.ManualAssignCommand {
	t.Helper()
	cmd, err := commands.NewManualAssignCommand(orderID, courierID)
	require.NoError(t, err)
	return cmd
}

func mustRelease(t *testing.T, orderID kernel.UUID) commands.ReleaseOrderCommand {
	t.Helper()
	cmd, err := commands.NewReleaseOrderCommand(orderID, "customer cancelled")
	require.NoError(t, err)
	return cmd
}
