package handler

import (
	"net/http"

	"github.com/templui/babybook/internal/i18n"
	"github.com/templui/babybook/internal/model"
	"github.com/templui/babybook/internal/service"
)

type GrowthHandler struct {
	growthService *service.GrowthService
}

func NewGrowthHandler(growthService *service.GrowthService) *GrowthHandler {
	return &GrowthHandler{
		growthService: growthService,
	}
}

func (h *GrowthHandler) List(w http.ResponseWriter, r *http.Request) {
	babyID := r.URL.Query().Get("babyId")

	records, err := h.growthService.List(babyID)
	if err != nil {
		handleError(w, r, err, i18n.MsgGrowthNotFound, "failed to list growth records", "baby_id", babyID)
		return
	}

	w.Header().Set("Cache-Control", listCacheControl)
	writeJSON(w, http.StatusOK, records)
}

func (h *GrowthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	babyID := r.URL.Query().Get("babyId")

	stats, err := h.growthService.Stats(babyID)
	if err != nil {
		handleError(w, r, err, i18n.MsgGrowthNotFound, "failed to compute growth stats", "baby_id", babyID)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *GrowthHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.GrowthInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, i18n.MsgInvalidBody)
		return
	}

	record, err := h.growthService.Create(in)
	if err != nil {
		handleError(w, r, err, i18n.MsgBabyNotFound, "failed to create growth record", "baby_id", in.BabyID)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func (h *GrowthHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	record, err := h.growthService.Get(id)
	if err != nil {
		handleError(w, r, err, i18n.MsgGrowthNotFound, "failed to get growth record", "record_id", id)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (h *GrowthHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var in model.GrowthInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, i18n.MsgInvalidBody)
		return
	}

	record, err := h.growthService.Update(id, in)
	if err != nil {
		handleError(w, r, err, i18n.MsgGrowthNotFound, "failed to update growth record", "record_id", id)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (h *GrowthHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.growthService.Delete(id); err != nil {
		handleError(w, r, err, i18n.MsgGrowthNotFound, "failed to delete growth record", "record_id", id)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: i18n.T(r, i18n.MsgDeleted)})
}
