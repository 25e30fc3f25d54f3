package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"dispatch/cmd"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "dispatch",
	Short:         "Courier dispatch and cash-on-delivery ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	loadDotEnv()

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("dispatch: %v", err)
	}
}

// loadDotEnv reads .env when present. Variables already set in the
// environment win.
func loadDotEnv() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}
}

func getConfigs() (cmd.Config, error) {
	return cmd.ConfigFromEnv()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
