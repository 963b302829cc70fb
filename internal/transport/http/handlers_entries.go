package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"travelkeep/internal/profile/models"
	id "travelkeep/pkg/domain"
)

type clearWarningRequest struct {
	Resolution string `json:"resolution"`
}

func (h *Handler) handleEnsureEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	destinationID, err := id.ParseDestinationID(chi.URLParam(r, "destinationID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	entry, err := h.svc.EnsureEntryInfo(r.Context(), userID, destinationID)
	if err != nil {
		h.fail(w, r, "ensure entry info", err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleListEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	entries, err := h.svc.ListEntryInfos(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "list entry infos", err)
		return
	}
	if entries == nil {
		entries = []*models.EntryInfo{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	entryID, err := id.ParseEntityID(chi.URLParam(r, "entryID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	entry, err := h.svc.GetEntryInfo(r.Context(), userID, entryID)
	if err != nil {
		h.fail(w, r, "get entry info", err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleRecordSubmission is called by the app after the portal accepted
// the pack. It answers with the snapshot taken.
func (h *Handler) handleRecordSubmission(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	entryID, err := id.ParseEntityID(chi.URLParam(r, "entryID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	snap, err := h.svc.RecordSubmission(r.Context(), userID, entryID)
	if err != nil {
		h.fail(w, r, "record submission", err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (h *Handler) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	snapshotID, err := id.ParseSnapshotID(chi.URLParam(r, "snapshotID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	snap, err := h.svc.GetSnapshot(r.Context(), userID, snapshotID)
	if err != nil {
		h.fail(w, r, "get snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleListWarnings(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	ws, err := h.svc.GetPendingResubmissionWarnings(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "list warnings", err)
		return
	}
	if ws == nil {
		ws = []*models.ResubmissionWarning{}
	}
	writeJSON(w, http.StatusOK, ws)
}

func (h *Handler) handleClearWarning(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	warningID, err := id.ParseEntityID(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	var req clearWarningRequest
	if !h.decode(w, r, &req) {
		return
	}
	resolution, err := models.ParseWarningResolution(req.Resolution)
	if err != nil {
		WriteError(w, err)
		return
	}
	cleared, err := h.svc.ClearResubmissionWarning(r.Context(), userID, warningID, resolution)
	if err != nil {
		h.fail(w, r, "clear warning", err)
		return
	}
	writeJSON(w, http.StatusOK, cleared)
}
