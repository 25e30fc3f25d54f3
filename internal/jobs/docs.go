// Package jobs provides scheduled background tasks for the dispatch service.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3.
// Schedules use six fields, seconds first.
//
// # Available Jobs
//
// 1. OrderAssignmentJob - offers unassigned orders to the nearest eligible courier
// 2. FeeConfigReloadJob - re-reads the fee configuration file
//
// # Usage
//
//	jobManager := jobs.NewJobManager().
//		Add("order assignment", jobs.NewOrderAssignmentJob(handler, cmd, "*/5 * * * * *", 10*time.Second, logger)).
//		Add("fee config reload", jobs.NewFeeConfigReloadJob(provider, "0 * * * * *", logger))
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// - The assignment job ignores an empty queue and logs every other failure
// - A failed reload keeps the previous fee configuration
// - Failed job starts will stop any already running jobs
package jobs
