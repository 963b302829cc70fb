package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"travelkeep/internal/app"
	jwttoken "travelkeep/internal/jwt_token"
	"travelkeep/internal/platform/config"
	"travelkeep/internal/platform/httpserver"
	"travelkeep/internal/platform/logger"
	"travelkeep/internal/platform/metrics"
	httptransport "travelkeep/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("close failed", "error", err)
		}
	}()

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)
	handler := httptransport.New(a.Service, jwttoken.NewJWTServiceAdapter(jwtService), log, metrics.New(a.Registry), cfg.Server.RequestTimeout)
	router := httptransport.NewRouter(handler, a.Registry)

	srv := httpserver.New(cfg.Server.Addr, router)
	return httpserver.Run(ctx, srv, 10*time.Second, log)
}
