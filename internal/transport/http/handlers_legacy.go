package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"travelkeep/internal/audit"
	id "travelkeep/pkg/domain"
)

func (h *Handler) handleMigrate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.MigrateFromLegacy(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "migrate from legacy", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleDetectConflicts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	report, err := h.svc.DetectDataConflicts(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "detect conflicts", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleResolveConflicts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.ResolveDataConflicts(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "resolve conflicts", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func snapshotParam(r *http.Request) (id.SnapshotID, error) {
	return id.ParseSnapshotID(chi.URLParam(r, "snapshotID"))
}

func (h *Handler) handleGetAuditLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	snapshotID, err := snapshotParam(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	log, err := h.svc.GetAuditLog(r.Context(), userID, snapshotID)
	if err != nil {
		h.fail(w, r, "get audit log", err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (h *Handler) handleVerifyIntegrity(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	snapshotID, err := snapshotParam(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	report, err := h.svc.VerifyAuditIntegrity(r.Context(), userID, snapshotID)
	if err != nil {
		h.fail(w, r, "verify audit integrity", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleExport writes an export file; ?format=csv selects CSV.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	snapshotID, err := snapshotParam(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	format, err := audit.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		WriteError(w, err)
		return
	}
	export, err := h.svc.ExportAuditLog(r.Context(), userID, snapshotID, format)
	if err != nil {
		h.fail(w, r, "export audit log", err)
		return
	}
	writeJSON(w, http.StatusCreated, export)
}
