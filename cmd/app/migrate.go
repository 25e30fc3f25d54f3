package main

import (
	"context"
	"fmt"
	"log/slog"

	"dispatch/cmd"
	"dispatch/internal/adapters/out/postgres"

	"github.com/spf13/cobra"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(c *cobra.Command, _ []string) error {
		configs, err := getConfigs()
		if err != nil {
			return err
		}

		db, err := openDatabase(configs)
		if err != nil {
			return err
		}
		defer closeDatabase(c.Context(), db, newLogger(configs.LogLevel))
		if err := migrateDatabase(c.Context(), db); err != nil {
			return err
		}

		fmt.Fprintln(c.OutOrStdout(), "Schema is up to date")
		return nil
	},
}

func openDatabase(configs cmd.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgresdriver.Open(configs.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func closeDatabase(ctx context.Context, db *gorm.DB, logger *slog.Logger) {
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.Close()
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to close database", "error", err)
	}
}

func migrateDatabase(ctx context.Context, db *gorm.DB) error {
	if err := postgres.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
