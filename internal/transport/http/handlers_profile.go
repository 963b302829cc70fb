package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"travelkeep/internal/profile/batch"
	"travelkeep/internal/profile/models"
	"travelkeep/internal/profile/service"
	id "travelkeep/pkg/domain"
)

// handleGetData returns every profile entity. ?batch=true reads in one
// storage round trip instead of through the cache.
func (h *Handler) handleGetData(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	opts := service.GetOptions{UseBatchLoad: r.URL.Query().Get("batch") == "true"}
	data, err := h.svc.GetAllUserData(r.Context(), userID, opts)
	if err != nil {
		h.fail(w, r, "get user data", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *Handler) handleSavePassport(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var in models.Passport
	if !h.decode(w, r, &in) {
		return
	}
	out, err := h.svc.SavePassport(r.Context(), &in, userID)
	if err != nil {
		h.fail(w, r, "save passport", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleSavePersonalInfo(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var in models.PersonalInfo
	if !h.decode(w, r, &in) {
		return
	}
	out, err := h.svc.SavePersonalInfo(r.Context(), &in, userID)
	if err != nil {
		h.fail(w, r, "save personal info", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleSaveFundItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var in models.FundItem
	if !h.decode(w, r, &in) {
		return
	}
	status := http.StatusCreated
	if !in.ID.IsNil() {
		status = http.StatusOK
	}
	out, err := h.svc.SaveFundItem(r.Context(), &in, userID)
	if err != nil {
		h.fail(w, r, "save fund item", err)
		return
	}
	writeJSON(w, status, out)
}

func (h *Handler) handleDeleteFundItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	itemID, err := id.ParseEntityID(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := h.svc.DeleteFundItem(r.Context(), userID, itemID); err != nil {
		h.fail(w, r, "delete fund item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSaveTravelInfo(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	destinationID, err := id.ParseDestinationID(chi.URLParam(r, "destinationID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	var in models.TravelInfo
	if !h.decode(w, r, &in) {
		return
	}
	in.DestinationID = destinationID
	out, err := h.svc.SaveTravelInfo(r.Context(), &in, userID)
	if err != nil {
		h.fail(w, r, "save travel info", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleBatchUpdate applies several partial updates atomically.
func (h *Handler) handleBatchUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var u batch.Updates
	if !h.decode(w, r, &u) {
		return
	}
	data, err := h.svc.BatchUpdate(r.Context(), userID, u)
	if err != nil {
		h.fail(w, r, "batch update", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// handleSaveEntryForm saves the sections of one destination form. A
// partially saved form answers 200 with the failed sections listed.
func (h *Handler) handleSaveEntryForm(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	destinationID, err := id.ParseDestinationID(chi.URLParam(r, "destinationID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	var form service.EntryForm
	if !h.decode(w, r, &form) {
		return
	}
	form.DestinationID = destinationID
	res, err := h.svc.SaveEntryForm(r.Context(), userID, form)
	if err != nil {
		h.fail(w, r, "save entry form", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
