// Package httptransport exposes the data service over HTTP. Handlers decode
// requests, call the service and translate domain errors; they hold no
// business logic.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"travelkeep/internal/audit"
	"travelkeep/internal/platform/metrics"
	"travelkeep/internal/profile/batch"
	"travelkeep/internal/profile/conflict"
	"travelkeep/internal/profile/migration"
	"travelkeep/internal/profile/models"
	"travelkeep/internal/profile/service"
	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
	authmw "travelkeep/pkg/platform/middleware/auth"
	"travelkeep/pkg/platform/middleware/metadata"
	request "travelkeep/pkg/platform/middleware/request"
	"travelkeep/pkg/requestcontext"
)

// Service is the part of the data service the HTTP surface uses.
type Service interface {
	GetAllUserData(ctx context.Context, userID id.UserID, opts service.GetOptions) (*models.UserData, error)
	SavePassport(ctx context.Context, in *models.Passport, userID id.UserID) (*models.Passport, error)
	SavePersonalInfo(ctx context.Context, in *models.PersonalInfo, userID id.UserID) (*models.PersonalInfo, error)
	SaveFundItem(ctx context.Context, in *models.FundItem, userID id.UserID) (*models.FundItem, error)
	DeleteFundItem(ctx context.Context, userID id.UserID, itemID id.EntityID) error
	SaveTravelInfo(ctx context.Context, in *models.TravelInfo, userID id.UserID) (*models.TravelInfo, error)
	BatchUpdate(ctx context.Context, userID id.UserID, u batch.Updates) (*models.UserData, error)
	SaveEntryForm(ctx context.Context, userID id.UserID, form service.EntryForm) (service.FormResult, error)

	EnsureEntryInfo(ctx context.Context, userID id.UserID, destinationID id.DestinationID) (*models.EntryInfo, error)
	ListEntryInfos(ctx context.Context, userID id.UserID) ([]*models.EntryInfo, error)
	GetEntryInfo(ctx context.Context, userID id.UserID, entryID id.EntityID) (*models.EntryInfo, error)
	RecordSubmission(ctx context.Context, userID id.UserID, entryID id.EntityID) (*models.Snapshot, error)
	GetSnapshot(ctx context.Context, userID id.UserID, snapshotID id.SnapshotID) (*models.Snapshot, error)
	GetPendingResubmissionWarnings(ctx context.Context, userID id.UserID) ([]*models.ResubmissionWarning, error)
	ClearResubmissionWarning(ctx context.Context, userID id.UserID, warningID id.EntityID, resolution models.WarningResolution) (*models.ResubmissionWarning, error)

	MigrateFromLegacy(ctx context.Context, userID id.UserID) (migration.Result, error)
	DetectDataConflicts(ctx context.Context, userID id.UserID) (conflict.Report, error)
	ResolveDataConflicts(ctx context.Context, userID id.UserID) (conflict.Resolution, error)
	GetAuditLog(ctx context.Context, userID id.UserID, snapshotID id.SnapshotID) (audit.Log, error)
	VerifyAuditIntegrity(ctx context.Context, userID id.UserID, snapshotID id.SnapshotID) (audit.IntegrityReport, error)
	ExportAuditLog(ctx context.Context, userID id.UserID, snapshotID id.SnapshotID, format audit.Format) (audit.Export, error)
}

// maxBodyBytes bounds request bodies; profile forms are small.
const maxBodyBytes = 1 << 20

type Handler struct {
	svc          Service
	logger       *slog.Logger
	metrics      *metrics.Metrics
	jwtValidator authmw.JWTValidator
	timeout      time.Duration
}

// New creates a Handler. A zero timeout disables the request deadline.
func New(svc Service, jwtValidator authmw.JWTValidator, logger *slog.Logger, m *metrics.Metrics, timeout time.Duration) *Handler {
	return &Handler{
		svc:          svc,
		logger:       logger,
		metrics:      m,
		jwtValidator: jwtValidator,
		timeout:      timeout,
	}
}

// NewRouter mounts the API plus the unauthenticated health and metrics
// endpoints.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(h.logger))
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(request.Logger(h.logger))
	r.Use(request.Latency(h.metrics))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	h.Register(r)
	return r
}

// Register mounts the authenticated /v1 routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(request.Timeout(h.timeout))
		v1.Use(metadata.ClientMetadata)
		v1.Use(request.ContentTypeJSON)
		v1.Use(authmw.RequireAuth(h.jwtValidator, h.logger))

		v1.Route("/me", func(me chi.Router) {
			me.Get("/data", h.handleGetData)
			me.Patch("/", h.handleBatchUpdate)
			me.Put("/passport", h.handleSavePassport)
			me.Put("/personal-info", h.handleSavePersonalInfo)
			me.Post("/fund-items", h.handleSaveFundItem)
			me.Delete("/fund-items/{id}", h.handleDeleteFundItem)
			me.Put("/travel/{destinationID}", h.handleSaveTravelInfo)

			me.Put("/destinations/{destinationID}/form", h.handleSaveEntryForm)
			me.Post("/destinations/{destinationID}/entry", h.handleEnsureEntry)
			me.Get("/entries", h.handleListEntries)
			me.Get("/entries/{entryID}", h.handleGetEntry)
			me.Post("/entries/{entryID}/submission", h.handleRecordSubmission)
			me.Get("/snapshots/{snapshotID}", h.handleGetSnapshot)
			me.Get("/warnings", h.handleListWarnings)
			me.Delete("/warnings/{id}", h.handleClearWarning)

			me.Post("/migration", h.handleMigrate)
			me.Get("/conflicts", h.handleDetectConflicts)
			me.Post("/conflicts/resolve", h.handleResolveConflicts)
		})

		v1.Route("/audit/{snapshotID}", func(a chi.Router) {
			a.Get("/", h.handleGetAuditLog)
			a.Get("/integrity", h.handleVerifyIntegrity)
			a.Post("/export", h.handleExport)
		})
	})
}

// userID returns the authenticated user. RequireAuth guarantees it is set.
func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	userID := requestcontext.UserID(r.Context())
	if userID.IsNil() {
		h.logger.ErrorContext(r.Context(), "userID missing from context despite auth middleware",
			"request_id", request.GetRequestID(r.Context()),
		)
		WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return "", false
	}
	return userID, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"request_id", request.GetRequestID(r.Context()),
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

// fail logs server-side failures and writes err.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	if StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", request.GetRequestID(ctx),
			"user_id", requestcontext.UserID(ctx),
			"error", err,
		)
	}
	WriteError(w, err)
}
