package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/feeconfig"
	"dispatch/internal/adapters/out/keylock"
	"dispatch/internal/adapters/out/notify"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/prommetrics"
	"dispatch/internal/adapters/out/redislock"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CompositionRoot owns every long lived dependency of the process.
type CompositionRoot struct {
	cfg    Config
	gormDB *gorm.DB
	logger *slog.Logger

	uowFactory        commands.UoWFactory
	courierUoWFactory commands.CourierUoWFactory
	orderUoWFactory   commands.OrderUoWFactory

	registry *prometheus.Registry
	metrics  *prommetrics.Metrics
	locker   ports.Locker
	notifier *notify.Async
	fees     *feeconfig.FileProvider

	ledger      *commands.CashLedger
	coordinator *commands.AssignmentCoordinator

	closers []func(context.Context) error
}

func NewCompositionRoot(ctx context.Context, cfg Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:      cfg,
		gormDB:   gormDB,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		metrics:  prommetrics.New(),
		fees:     feeconfig.NewFileProvider(cfg.FeeConfigPath, logger),
	}
	c.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.metrics.MustRegister(c.registry)
	c.uowFactory, c.courierUoWFactory, c.orderUoWFactory = commands.FromPorts(postgres.NewGormUnitOfWorkFactory(gormDB))

	var redisClient redis.UniversalClient
	if cfg.UsesRedis() {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		redisClient = client
		c.closers = append(c.closers, func(context.Context) error { return client.Close() })
	}

	switch cfg.LockDriver {
	case LockDriverRedis:
		c.locker = redislock.New(redisClient, redislock.DefaultConfig())
	default:
		c.locker = keylock.New()
	}

	fanout := notify.NewFanout(c.metrics)
	for _, driver := range cfg.NotifyDrivers {
		switch driver {
		case NotifyDriverLog:
			fanout.Add(driver, notify.NewLogNotifier(logger))
		case NotifyDriverRedis:
			fanout.Add(driver, notify.NewRedisNotifier(redisClient, cfg.RedisChannel))
		case NotifyDriverPostgres:
			pg, err := notify.OpenPostgresNotifier(cfg.DSN(), cfg.PgChannel)
			if err != nil {
				_ = c.Close(ctx)
				return nil, err
			}
			fanout.Add(driver, pg)
			c.closers = append(c.closers, func(context.Context) error { return pg.Close() })
		}
	}
	c.notifier = notify.NewAsync(fanout, cfg.NotifyQueue, logger)
	// Drain queued events before the sinks above are closed.
	c.closers = append([]func(context.Context) error{c.notifier.Close}, c.closers...)

	if err := c.fees.Reload(ctx); err != nil {
		logger.WarnContext(ctx, "Starting without a fee configuration", "path", cfg.FeeConfigPath, "error", err)
	}

	c.ledger = commands.NewCashLedger(c.uowFactory, c.locker, c.notifier, c.metrics, logger, time.Now)
	assignCfg := commands.DefaultAssignmentConfig()
	assignCfg.MaxAttempts = cfg.AssignMaxAttempts
	c.coordinator = commands.NewAssignmentCoordinator(c.uowFactory, c.locker, c.ledger, c.notifier, c.metrics,
		logger, time.Now, assignCfg)

	return c, nil
}

// Close releases external connections in reverse order of use.
func (c *CompositionRoot) Close(ctx context.Context) error {
	var errs []error
	for _, closeFn := range c.closers {
		errs = append(errs, closeFn(ctx))
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *CompositionRoot) Registry() *prometheus.Registry {
	return c.registry
}

func (c *CompositionRoot) FeeProvider() *feeconfig.FileProvider {
	return c.fees
}

func (c *CompositionRoot) CreateCreateCourierCommandHandler() *commands.CreateCourierCommandHandler {
	h := commands.NewCreateCourierCommandHandler(c.courierUoWFactory, time.Now)
	return &h
}

func (c *CompositionRoot) CreateUpdateCourierLocationCommandHandler() commands.UpdateCourierLocationCommandHandler {
	return commands.NewUpdateCourierLocationCommandHandler(c.courierUoWFactory)
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orderUoWFactory, c.fees, time.Now)
}

func (c *CompositionRoot) CreateAssignPendingOrdersCommandHandler() commands.AssignPendingOrdersCommandHandler {
	return commands.NewAssignPendingOrdersCommandHandler(c.orderUoWFactory, c.coordinator)
}

func (c *CompositionRoot) CreateGetAllCouriersQueryHandler() queries.GetAllCouriersQueryHandler {
	return queries.NewGetAllCouriersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetUnassignedOrdersQueryHandler() queries.GetUnassignedOrdersQueryHandler {
	return queries.NewGetUnassignedOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetOrderCashTransactionsQueryHandler() queries.GetOrderCashTransactionsQueryHandler {
	return queries.NewGetOrderCashTransactionsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateCalculateFeeQueryHandler() queries.CalculateFeeQueryHandler {
	return queries.NewCalculateFeeQueryHandler(c.fees)
}

func (c *CompositionRoot) CreateServer() *httpin.Server {
	return httpin.NewServer(httpin.Handlers{
		CreateCourier:         c.CreateCreateCourierCommandHandler(),
		UpdateCourierLocation: c.CreateUpdateCourierLocationCommandHandler(),
		CreateOrder:           c.CreateCreateOrderCommandHandler(),
		Assignments:           c.coordinator,
		Ledger:                c.ledger,
		Couriers:              c.CreateGetAllCouriersQueryHandler(),
		UnassignedOrders:      c.CreateGetUnassignedOrdersQueryHandler(),
		CashTransactions:      c.CreateGetOrderCashTransactionsQueryHandler(),
		Fees:                  c.CreateCalculateFeeQueryHandler(),
	}, c.logger)
}

// CreateJobManager schedules the jobs whose schedule is configured.
func (c *CompositionRoot) CreateJobManager() (*jobs.JobManager, error) {
	manager := jobs.NewJobManager()

	if c.cfg.AutoAssignSchedule != "" {
		cmd, err := commands.NewAssignPendingOrdersCommand(c.cfg.AutoAssignRadiusKm, c.cfg.AutoAssignBatchSize)
		if err != nil {
			return nil, err
		}
		manager.Add("order assignment", jobs.NewOrderAssignmentJob(c.CreateAssignPendingOrdersCommandHandler(), cmd,
			c.cfg.AutoAssignSchedule, c.cfg.OperationTimeout, c.logger))
	}
	if c.cfg.FeeReloadSchedule != "" {
		manager.Add("fee config reload", jobs.NewFeeConfigReloadJob(c.fees, c.cfg.FeeReloadSchedule, c.logger))
	}

	return manager, nil
}
