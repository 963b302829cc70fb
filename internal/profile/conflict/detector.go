// Package conflict finds divergence between the storage adapter and the
// legacy store. The adapter is always authoritative: resolution never
// merges or prompts, it only logs and refreshes cached state from the
// adapter.
package conflict

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

// Conflicts holds a comparison per conflicted entity; nil means none.
type Conflicts struct {
	Passport     *Comparison `json:"passport,omitempty"`
	PersonalInfo *Comparison `json:"personalInfo,omitempty"`
}

type Report struct {
	HasConflicts bool      `json:"hasConflicts"`
	Conflicts    Conflicts `json:"conflicts"`
}

type Resolution struct {
	HadConflicts bool                `json:"hadConflicts"`
	Conflicts    Conflicts           `json:"conflicts"`
	Refreshed    []models.EntityType `json:"refreshed"`
}

// Refresher drops cached state for an entity and reloads it from the
// adapter.
type Refresher func(ctx context.Context, entityType models.EntityType, userID id.UserID) error

type Detector struct {
	adapter store.Adapter
	reader  legacy.Reader
	refresh Refresher
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Detector)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) { d.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Detector) { d.metrics = m }
}

// WithRefresher sets the cache refresh hook used by Resolve.
func WithRefresher(r Refresher) Option {
	return func(d *Detector) { d.refresh = r }
}

func New(adapter store.Adapter, reader legacy.Reader, opts ...Option) *Detector {
	d := &Detector{
		adapter: adapter,
		reader:  reader,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect compares passport and personal info across backends. Errors are
// logged and reported as no conflicts.
func (d *Detector) Detect(ctx context.Context, userID id.UserID) Report {
	var report Report

	if cmp, err := d.comparePassport(ctx, userID); err != nil {
		d.logger.WarnContext(ctx, "passport conflict detection failed", "user_id", userID, "error", err)
	} else if cmp != nil {
		report.Conflicts.Passport = cmp
	}

	if cmp, err := d.comparePersonalInfo(ctx, userID); err != nil {
		d.logger.WarnContext(ctx, "personal info conflict detection failed", "user_id", userID, "error", err)
	} else if cmp != nil {
		report.Conflicts.PersonalInfo = cmp
	}

	report.HasConflicts = report.Conflicts.Passport != nil || report.Conflicts.PersonalInfo != nil
	return report
}

// Resolve detects conflicts and refreshes every conflicted type from the
// adapter.
func (d *Detector) Resolve(ctx context.Context, userID id.UserID) (Resolution, error) {
	report := d.Detect(ctx, userID)
	res := Resolution{HadConflicts: report.HasConflicts, Conflicts: report.Conflicts, Refreshed: []models.EntityType{}}
	if !report.HasConflicts {
		return res, nil
	}

	var conflicted []models.EntityType
	if report.Conflicts.Passport != nil {
		conflicted = append(conflicted, models.EntityPassport)
	}
	if report.Conflicts.PersonalInfo != nil {
		conflicted = append(conflicted, models.EntityPersonalInfo)
	}
	for _, t := range conflicted {
		d.metrics.IncConflict(string(t))
		d.logger.WarnContext(ctx, "data conflict resolved in favor of storage adapter",
			"user_id", userID, "entity_type", t, "fields", len(d.diffFor(report, t).Differences))
		if d.refresh != nil {
			if err := d.refresh(ctx, t, userID); err != nil {
				return res, fmt.Errorf("refresh %s: %w", t, err)
			}
		}
		res.Refreshed = append(res.Refreshed, t)
	}
	return res, nil
}

func (d *Detector) diffFor(r Report, t models.EntityType) *Comparison {
	if t == models.EntityPassport {
		return r.Conflicts.Passport
	}
	return r.Conflicts.PersonalInfo
}

func (d *Detector) comparePassport(ctx context.Context, userID id.UserID) (*Comparison, error) {
	records, err := d.adapter.Load(ctx, models.EntityPassport, userID)
	if err != nil {
		return nil, err
	}
	current, err := models.LatestAs[models.Passport](records)
	if err != nil || current == nil {
		return nil, err
	}
	raw, _, found, err := legacy.Lookup(ctx, d.reader, legacy.KeyPassport, userID)
	if err != nil || !found {
		return nil, err
	}
	old, err := legacy.DecodePassport(raw, userID, d.now())
	if err != nil {
		return nil, err
	}
	return differing(CompareData(current.Fields(), old.Fields())), nil
}

func (d *Detector) comparePersonalInfo(ctx context.Context, userID id.UserID) (*Comparison, error) {
	records, err := d.adapter.Load(ctx, models.EntityPersonalInfo, userID)
	if err != nil {
		return nil, err
	}
	current, err := models.LatestAs[models.PersonalInfo](records)
	if err != nil || current == nil {
		return nil, err
	}
	raw, _, found, err := legacy.Lookup(ctx, d.reader, legacy.KeyPersonalInfo, userID)
	if err != nil || !found {
		return nil, err
	}
	old, err := legacy.DecodePersonalInfo(raw, userID, d.now())
	if err != nil {
		return nil, err
	}
	return differing(CompareData(current.Fields(), old.Fields())), nil
}

func differing(c Comparison) *Comparison {
	if !c.HasDifferences {
		return nil
	}
	return &c
}
