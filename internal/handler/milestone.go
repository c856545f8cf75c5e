package handler

import (
	"net/http"

	"github.com/templui/babybook/internal/i18n"
	"github.com/templui/babybook/internal/model"
	"github.com/templui/babybook/internal/service"
)

type MilestoneHandler struct {
	milestoneService *service.MilestoneService
}

func NewMilestoneHandler(milestoneService *service.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{
		milestoneService: milestoneService,
	}
}

func (h *MilestoneHandler) List(w http.ResponseWriter, r *http.Request) {
	babyID := r.URL.Query().Get("babyId")

	milestones, err := h.milestoneService.List(babyID)
	if err != nil {
		handleError(w, r, err, i18n.MsgMilestoneNotFound, "failed to list milestones", "baby_id", babyID)
		return
	}

	w.Header().Set("Cache-Control", listCacheControl)
	writeJSON(w, http.StatusOK, milestones)
}

func (h *MilestoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.MilestoneInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, i18n.MsgInvalidBody)
		return
	}

	milestone, err := h.milestoneService.Create(in)
	if err != nil {
		handleError(w, r, err, i18n.MsgBabyNotFound, "failed to create milestone", "baby_id", in.BabyID)
		return
	}

	writeJSON(w, http.StatusCreated, milestone)
}

func (h *MilestoneHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	milestone, err := h.milestoneService.Get(id)
	if err != nil {
		handleError(w, r, err, i18n.MsgMilestoneNotFound, "failed to get milestone", "milestone_id", id)
		return
	}

	writeJSON(w, http.StatusOK, milestone)
}

func (h *MilestoneHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var in model.MilestoneInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, i18n.MsgInvalidBody)
		return
	}

	milestone, err := h.milestoneService.Update(id, in)
	if err != nil {
		handleError(w, r, err, i18n.MsgMilestoneNotFound, "failed to update milestone", "milestone_id", id)
		return
	}

	writeJSON(w, http.StatusOK, milestone)
}

func (h *MilestoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.milestoneService.Delete(id); err != nil {
		handleError(w, r, err, i18n.MsgMilestoneNotFound, "failed to delete milestone", "milestone_id", id)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: i18n.T(r, i18n.MsgDeleted)})
}
