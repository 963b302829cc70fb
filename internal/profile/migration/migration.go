// Package migration copies legacy key-value data into the storage adapter
// exactly once per user.
//
// Completion is marked only after every available entity was saved, so a
// failed run is retried in full next time. Entities already present in the
// adapter are never overwritten: the adapter is authoritative.
package migration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"travelkeep/internal/profile/legacy"
	"travelkeep/internal/profile/metrics"
	"travelkeep/internal/profile/models"
	"travelkeep/internal/profile/store"
	id "travelkeep/pkg/domain"
)

// Result reports what a run did. The per-entity flags are true when that
// entity was written from legacy data.
type Result struct {
	Migrated     bool   `json:"migrated"`
	Passport     bool   `json:"passport"`
	PersonalInfo bool   `json:"personalInfo"`
	FundItems    bool   `json:"fundItems"`
	Reason       string `json:"reason,omitempty"`
}

const (
	ReasonAlreadyCompleted = "already completed"
	ReasonNoLegacyData     = "no legacy data"
)

type Engine struct {
	adapter store.Adapter
	reader  legacy.Reader
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(adapter store.Adapter, reader legacy.Reader, opts ...Option) *Engine {
	e := &Engine{
		adapter: adapter,
		reader:  reader,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Migrate runs the legacy import for userID.
func (e *Engine) Migrate(ctx context.Context, userID id.UserID) (Result, error) {
	needs, err := e.adapter.NeedsMigration(ctx, userID)
	if err != nil {
		e.metrics.IncMigration("failed")
		return Result{}, fmt.Errorf("check migration state: %w", err)
	}
	if !needs {
		e.metrics.IncMigration("skipped")
		return Result{Reason: ReasonAlreadyCompleted}, nil
	}

	res, err := e.run(ctx, userID)
	if err != nil {
		e.metrics.IncMigration("failed")
		e.logger.ErrorContext(ctx, "legacy migration failed", "user_id", userID, "error", err)
		return Result{}, err
	}
	if err := e.adapter.MarkMigrationComplete(ctx, userID); err != nil {
		e.metrics.IncMigration("failed")
		return Result{}, fmt.Errorf("mark migration complete: %w", err)
	}
	res.Migrated = true
	if !res.Passport && !res.PersonalInfo && !res.FundItems {
		res.Reason = ReasonNoLegacyData
	}
	e.metrics.IncMigration("migrated")
	e.logger.InfoContext(ctx, "legacy migration completed",
		"user_id", userID,
		"passport", res.Passport,
		"personal_info", res.PersonalInfo,
		"fund_items", res.FundItems,
	)
	return res, nil
}

func (e *Engine) run(ctx context.Context, userID id.UserID) (Result, error) {
	now := e.now().UTC()
	var res Result

	raw, found, err := e.read(ctx, legacy.KeyPassport, userID)
	if err != nil {
		return Result{}, err
	}
	if found {
		p, err := legacy.DecodePassport(raw, userID, now)
		if err != nil {
			return Result{}, err
		}
		if res.Passport, err = e.saveIfAbsent(ctx, p); err != nil {
			return Result{}, err
		}
	}

	raw, found, err = e.read(ctx, legacy.KeyPersonalInfo, userID)
	if err != nil {
		return Result{}, err
	}
	if found {
		pi, err := legacy.DecodePersonalInfo(raw, userID, now)
		if err != nil {
			return Result{}, err
		}
		if res.PersonalInfo, err = e.saveIfAbsent(ctx, pi); err != nil {
			return Result{}, err
		}
	}

	raw, found, err = e.read(ctx, legacy.KeyFundItems, userID)
	if err != nil {
		return Result{}, err
	}
	if found {
		items, err := legacy.DecodeFundItems(raw, userID, now)
		if err != nil {
			return Result{}, err
		}
		if res.FundItems, err = e.saveFundItems(ctx, userID, items); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

func (e *Engine) read(ctx context.Context, base string, userID id.UserID) (string, bool, error) {
	raw, key, found, err := legacy.Lookup(ctx, e.reader, base, userID)
	if err != nil {
		return "", false, err
	}
	if found {
		e.logger.DebugContext(ctx, "legacy key found", "user_id", userID, "key", key)
	}
	return raw, found, nil
}

// saveIfAbsent writes a singleton entity unless the adapter already has one.
func (e *Engine) saveIfAbsent(ctx context.Context, entity models.Entity) (bool, error) {
	existing, err := e.adapter.Load(ctx, entity.Kind(), entity.Owner())
	if err != nil {
		return false, fmt.Errorf("load %s: %w", entity.Kind(), err)
	}
	if len(existing) > 0 {
		e.logger.InfoContext(ctx, "adapter already holds entity, legacy copy skipped",
			"user_id", entity.Owner(), "entity_type", entity.Kind())
		return false, nil
	}
	return e.save(ctx, entity)
}

func (e *Engine) saveFundItems(ctx context.Context, userID id.UserID, items []*models.FundItem) (bool, error) {
	existing, err := e.adapter.Load(ctx, models.EntityFundItem, userID)
	if err != nil {
		return false, fmt.Errorf("load fund items: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, r := range existing {
		have[r.ID] = true
	}
	wrote := false
	for _, item := range items {
		if have[item.Key()] {
			continue
		}
		saved, err := e.save(ctx, item)
		if err != nil {
			return false, err
		}
		wrote = wrote || saved
	}
	return wrote, nil
}

// save writes a legacy entity after dropping fields current validation
// rejects. An entity that is still invalid is skipped, so later partial
// updates never trip over migrated data.
func (e *Engine) save(ctx context.Context, entity models.Entity) (bool, error) {
	if cleared := legacy.Sanitize(entity); len(cleared) > 0 {
		e.logger.WarnContext(ctx, "invalid legacy fields dropped",
			"user_id", entity.Owner(), "entity_type", entity.Kind(), "fields", cleared)
	}
	if v, ok := entity.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			e.logger.WarnContext(ctx, "invalid legacy entity skipped",
				"user_id", entity.Owner(), "entity_type", entity.Kind(), "error", err)
			return false, nil
		}
	}
	rec, err := models.ToRecord(entity)
	if err != nil {
		return false, err
	}
	if err := e.adapter.Save(ctx, rec); err != nil {
		return false, fmt.Errorf("save migrated %s: %w", entity.Kind(), err)
	}
	return true, nil
}
