package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"dispatch/cmd"
	httpin "dispatch/internal/adapters/in/http"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("migrate", false, "Migrate the schema before serving")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the scheduled jobs",
	RunE:  runServe,
}

func runServe(c *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configs, err := getConfigs()
	if err != nil {
		return err
	}
	logger := newLogger(configs.LogLevel)

	db, err := openDatabase(configs)
	if err != nil {
		return err
	}
	defer closeDatabase(ctx, db, logger)

	if migrate, _ := c.Flags().GetBool("migrate"); migrate {
		if err := migrateDatabase(ctx, db); err != nil {
			return err
		}
	}

	app, err := cmd.NewCompositionRoot(ctx, configs, db, logger)
	if err != nil {
		return err
	}
	// Close is idempotent, the normal shutdown path below closes it first
	defer func() {
		if err := app.Close(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to close application", "error", err)
		}
	}()

	jobManager, err := app.CreateJobManager()
	if err != nil {
		return err
	}
	if err := jobManager.StartAll(); err != nil {
		return err
	}

	e, err := httpin.NewRouter(ctx, app.CreateServer(), app.Registry(), logger)
	if err != nil {
		jobManager.StopAll()
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "HTTP server started", "port", configs.HTTPPort)
		serveErr <- e.Start(fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort))
	}()

	select {
	case err = <-serveErr:
	case <-ctx.Done():
	}
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	logger.InfoContext(shutdownCtx, "Shutting down")
	jobManager.StopAll()
	return errors.Join(err, e.Shutdown(shutdownCtx), app.Close(shutdownCtx))
}
