package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// PendingOrdersAssigner runs one batch of automatic assignment.
type PendingOrdersAssigner interface {
	Handle(ctx context.Context, cmd commands.AssignPendingOrdersCommand) (commands.AssignPendingOrdersSummary, error)
}

// OrderAssignmentJob periodically offers unassigned orders to the nearest
// eligible courier. Orders nobody can take stay unassigned for the next run.
type OrderAssignmentJob struct {
	handler  PendingOrdersAssigner
	cmd      commands.AssignPendingOrdersCommand
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewOrderAssignmentJob creates the job. schedule is a six field cron
// expression and timeout bounds a single batch.
func NewOrderAssignmentJob(
	handler PendingOrdersAssigner,
	cmd commands.AssignPendingOrdersCommand,
	schedule string,
	timeout time.Duration,
	logger *slog.Logger,
) *OrderAssignmentJob {
	return &OrderAssignmentJob{
		handler:  handler,
		cmd:      cmd,
		schedule: schedule,
		timeout:  timeout,
		cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   logger.With("component", "order_assignment_job"),
	}
}

// Start schedules the job.
func (j *OrderAssignmentJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.Run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Order assignment job started", "schedule", j.schedule)
	return nil
}

// Run executes a single batch.
func (j *OrderAssignmentJob) Run(ctx context.Context) {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	summary, err := j.handler.Handle(ctx, j.cmd)
	if err != nil {
		// An empty queue is the normal idle state
		if !errors.Is(err, commands.ErrNoOrderFound) {
			j.logger.ErrorContext(ctx, "Order assignment job failed", "error", err, "scanned", summary.Scanned)
		}
		return
	}

	if summary.Assigned > 0 || len(summary.Skipped) > 0 {
		j.logger.InfoContext(ctx, "Pending orders processed",
			"scanned", summary.Scanned,
			"assigned", summary.Assigned,
			"skipped", summary.Skipped)
	}
}

// Stop waits for a running batch to finish.
func (j *OrderAssignmentJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Order assignment job stopped")
}
