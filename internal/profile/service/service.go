// Package service is the data service façade: the one entry point through
// which transports and tools read and write traveler profile data.
//
// Reads are served from the cache and fall through to the storage adapter.
// Writes go through the batch coordinator, invalidate the cache before
// returning, publish a data_changed event and re-run the resubmission
// check against every submitted entry pack of the user. Legacy data is
// migrated at most once per user per process, on first touch.
package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"travelkeep/internal/audit"
	"travelkeep/internal/profile/batch"
	"travelkeep/internal/profile/cache"
	"travelkeep/internal/profile/conflict"
	"travelkeep/internal/profile/events"
	"travelkeep/internal/profile/legacy"
	"travelkeep/internal/profile/metrics"
	"travelkeep/internal/profile/migration"
	"travelkeep/internal/profile/models"
	"travelkeep/internal/profile/resubmission"
	"travelkeep/internal/profile/store"
	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
)

const tracerName = "travelkeep/internal/profile/service"

type Service struct {
	adapter   store.Adapter
	reader    legacy.Reader
	cache     *cache.Cache
	bus       *events.Bus
	audit     *audit.Service
	batch     *batch.Coordinator
	migration *migration.Engine
	conflicts *conflict.Detector
	resub     *resubmission.Engine
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time

	migrateOnce sync.Map // id.UserID -> *sync.Once
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLegacyReader enables migration and conflict detection.
func WithLegacyReader(r legacy.Reader) Option {
	return func(s *Service) { s.reader = r }
}

func WithCache(c *cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithBus(b *events.Bus) Option {
	return func(s *Service) { s.bus = b }
}

func WithAudit(a *audit.Service) Option {
	return func(s *Service) { s.audit = a }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func New(adapter store.Adapter, opts ...Option) *Service {
	s := &Service{
		adapter: adapter,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.cache == nil {
		s.cache = cache.New(cache.WithMetrics(s.metrics))
	}
	if s.bus == nil {
		s.bus = events.NewBus(events.WithLogger(s.logger))
	}
	if s.audit == nil {
		sink, _ := adapter.(store.AuditSink)
		s.audit = audit.New(sink, nil, audit.WithLogger(s.logger), audit.WithMetrics(s.metrics), audit.WithClock(s.now))
	}

	s.batch = batch.New(adapter,
		batch.WithInvalidator(s.cache),
		batch.WithLogger(s.logger),
		batch.WithMetrics(s.metrics),
		batch.WithClock(s.now),
	)
	s.resub = resubmission.New(s.batch, adapter,
		resubmission.WithAuditor(s.audit),
		resubmission.WithPublisher(s.bus),
		resubmission.WithLogger(s.logger),
		resubmission.WithMetrics(s.metrics),
		resubmission.WithClock(s.now),
	)
	if s.reader != nil {
		s.migration = migration.New(adapter, s.reader,
			migration.WithLogger(s.logger),
			migration.WithMetrics(s.metrics),
			migration.WithClock(s.now),
		)
		s.conflicts = conflict.New(adapter, s.reader,
			conflict.WithLogger(s.logger),
			conflict.WithMetrics(s.metrics),
			conflict.WithRefresher(s.refresh),
		)
	}
	return s
}

// Audit exposes the audit service for administrative tools.
func (s *Service) Audit() *audit.Service { return s.audit }

// AddDataChangeListener subscribes cb to every profile event.
func (s *Service) AddDataChangeListener(cb events.Listener) (unsubscribe func()) {
	return s.bus.Subscribe(cb)
}

func (s *Service) CacheStats() cache.Stats { return s.cache.Stats() }

// span starts a traced, timed operation. The returned func ends it.
func (s *Service) span(ctx context.Context, op string, userID id.UserID) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "profile."+op, trace.WithAttributes(attribute.String("user_id", userID.String())))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, dErrors.MessageOf(err))
		}
		span.End()
		s.metrics.ObserveOperation(op, start)
	}
}

// refresh drops cached state for one family and reloads it.
func (s *Service) refresh(ctx context.Context, entityType models.EntityType, userID id.UserID) error {
	s.cache.Invalidate(entityType, userID)
	var err error
	switch entityType {
	case models.EntityPassport:
		_, err = s.passport(ctx, userID)
	case models.EntityPersonalInfo:
		_, err = s.personalInfo(ctx, userID)
	case models.EntityFundItem:
		_, err = s.fundItems(ctx, userID)
	case models.EntityTravelInfo:
		_, err = s.travelInfos(ctx, userID)
	case models.EntityEntryInfo:
		_, err = s.entryInfos(ctx, userID)
	}
	return err
}

// ensureMigrated runs the legacy import once per user per process.
// Failures are logged; the import is retried on the next process start.
func (s *Service) ensureMigrated(ctx context.Context, userID id.UserID) {
	if s.migration == nil {
		return
	}
	once, _ := s.migrateOnce.LoadOrStore(userID, &sync.Once{})
	once.(*sync.Once).Do(func() {
		if _, err := s.runMigration(ctx, userID); err != nil {
			s.logger.WarnContext(ctx, "legacy migration failed", "user_id", userID, "error", err)
		}
	})
}

func (s *Service) runMigration(ctx context.Context, userID id.UserID) (migration.Result, error) {
	res, err := s.migration.Migrate(ctx, userID)
	if err != nil {
		return res, err
	}
	if res.Migrated {
		s.cache.InvalidateUser(userID)
		if res.Passport || res.PersonalInfo || res.FundItems {
			if _, err := s.batch.Apply(ctx, userID, noChange); err != nil {
				s.logger.WarnContext(ctx, "entry pack refresh after migration failed", "user_id", userID, "error", err)
			}
		}
		s.bus.Publish(events.Event{Kind: events.KindMigrationCompleted, UserID: userID, OccurredAt: s.now().UTC()})
	}
	return res, nil
}
