package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// FeeConfigReloader re-reads the fee configuration from its source.
type FeeConfigReloader interface {
	Reload(ctx context.Context) error
}

// FeeConfigReloadJob picks up fee configuration changes without a restart.
// A failed reload keeps the last good configuration in place.
type FeeConfigReloadJob struct {
	reloader FeeConfigReloader
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewFeeConfigReloadJob(reloader FeeConfigReloader, schedule string, logger *slog.Logger) *FeeConfigReloadJob {
	return &FeeConfigReloadJob{
		reloader: reloader,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "fee_config_reload_job"),
	}
}

// Start schedules the job.
func (j *FeeConfigReloadJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.Run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Fee config reload job started", "schedule", j.schedule)
	return nil
}

// Run reloads once.
func (j *FeeConfigReloadJob) Run(ctx context.Context) {
	if err := j.reloader.Reload(ctx); err != nil {
		j.logger.WarnContext(ctx, "Fee config reload job failed", "error", err)
	}
}

// Stop stops the fee config reload job.
func (j *FeeConfigReloadJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Fee config reload job stopped")
}
