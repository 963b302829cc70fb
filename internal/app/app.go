// Package app assembles the process from configuration: storage adapter,
// legacy reader, audit file tree, event bridge, metrics and the data
// service. Both binaries build through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"travelkeep/internal/audit"
	"travelkeep/internal/platform/config"
	redisclient "travelkeep/internal/platform/redis"
	"travelkeep/internal/profile/events"
	"travelkeep/internal/profile/events/kafka"
	"travelkeep/internal/profile/legacy"
	legacyredis "travelkeep/internal/profile/legacy/redis"
	"travelkeep/internal/profile/metrics"
	"travelkeep/internal/profile/service"
	"travelkeep/internal/profile/store"
	"travelkeep/internal/profile/store/memory"
	"travelkeep/internal/profile/store/sqlstore"
	"travelkeep/pkg/platform/blob/core"
	"travelkeep/pkg/platform/blob/fs"
	blobmem "travelkeep/pkg/platform/blob/memory"
	"travelkeep/pkg/platform/blob/s3"
)

// App holds the wired components. Close releases them in reverse order.
type App struct {
	Config   config.Config
	Service  *service.Service
	Audit    *audit.Service
	Registry *prometheus.Registry
	Logger   *slog.Logger

	closers []func() error
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// Build wires every component cfg enables. On error, whatever was already
// opened is closed.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(a.Registry)

	adapter, err := a.openAdapter(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	blobs, err := openBlobs(ctx, cfg.Blob)
	if err != nil {
		return nil, err
	}
	reader, err := a.openLegacy(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	sink, _ := adapter.(store.AuditSink)
	hostname, _ := os.Hostname()
	a.Audit = audit.New(sink, blobs,
		audit.WithLogger(logger),
		audit.WithMetrics(m),
		audit.WithAppVersion(cfg.AppVersion),
		audit.WithHostname(hostname),
	)

	bus := events.NewBus(events.WithLogger(logger))
	if err := a.attachKafka(ctx, cfg.Kafka, bus); err != nil {
		return nil, err
	}

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(m),
		service.WithBus(bus),
		service.WithAudit(a.Audit),
	}
	if reader != nil {
		opts = append(opts, service.WithLegacyReader(reader))
	}
	a.Service = service.New(adapter, opts...)

	logger.InfoContext(ctx, "app wired",
		"storage_driver", cfg.Storage.Driver,
		"blob_driver", cfg.Blob.Driver,
		"legacy_reader", reader != nil,
		"kafka_enabled", len(cfg.Kafka.Brokers) > 0,
	)
	return a, nil
}

func (a *App) openAdapter(ctx context.Context, cfg config.Storage) (store.Adapter, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, errors.New("postgres storage requires TRAVELKEEP_POSTGRES_DSN")
		}
		s, err := sqlstore.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	case "sqlite", "":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		s, err := sqlstore.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func openBlobs(ctx context.Context, cfg config.Blob) (core.Store, error) {
	switch cfg.Driver {
	case "memory":
		return blobmem.New(), nil
	case "s3":
		return s3.New(ctx, s3.Config{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			PathStyle:       cfg.S3PathStyle,
		})
	case "fs", "":
		return fs.New(cfg.Root)
	}
	return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
}

// openLegacy returns nil when no Redis URL is configured.
func (a *App) openLegacy(ctx context.Context, cfg config.RedisConfig) (legacy.Reader, error) {
	client, err := redisclient.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, nil
	}
	a.closers = append(a.closers, client.Close)
	return legacyredis.New(client, cfg.KeyPrefix), nil
}

func (a *App) attachKafka(ctx context.Context, cfg config.Kafka, bus *events.Bus) error {
	if len(cfg.Brokers) == 0 {
		return nil
	}
	client, err := kafka.NewClient(cfg)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := client.Flush(flushCtx)
		client.Close()
		return err
	})
	if err := kafka.EnsureTopic(ctx, client, cfg.Topic, 3, 1); err != nil {
		a.Logger.WarnContext(ctx, "kafka topic check failed", "topic", cfg.Topic, "error", err)
	}
	detach := kafka.NewBridge(client, cfg.Topic, kafka.WithLogger(a.Logger)).Attach(bus)
	a.closers = append(a.closers, func() error { detach(); return nil })
	return nil
}
