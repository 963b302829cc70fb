package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"travelkeep/internal/app"
	"travelkeep/internal/platform/config"
	"travelkeep/internal/platform/logger"
)

var Version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}
	build := func(ctx context.Context) (*app.App, error) {
		cfg := config.FromEnv()
		return app.Build(ctx, cfg, logger.NewWithWriter(os.Stderr, cfg.LogLevel))
	}
	if err := newRootCmd(build).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
