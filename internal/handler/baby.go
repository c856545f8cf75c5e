package handler

import (
	"net/http"

	"github.com/templui/babybook/internal/i18n"
	"github.com/templui/babybook/internal/model"
	"github.com/templui/babybook/internal/service"
)

type BabyHandler struct {
	babyService *service.BabyService
}

func NewBabyHandler(babyService *service.BabyService) *BabyHandler {
	return &BabyHandler{
		babyService: babyService,
	}
}

func (h *BabyHandler) List(w http.ResponseWriter, r *http.Request) {
	babies, err := h.babyService.List()
	if err != nil {
		handleError(w, r, err, i18n.MsgBabyNotFound, "failed to list babies")
		return
	}

	w.Header().Set("Cache-Control", listCacheControl)
	writeJSON(w, http.StatusOK, babies)
}

// Get returns ?id=, or the first baby when id is omitted.
func (h *BabyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")

	baby, err := h.babyService.Get(id)
	if err != nil {
		handleError(w, r, err, i18n.MsgBabyNotFound, "failed to get baby", "baby_id", id)
		return
	}

	w.Header().Set("Cache-Control", listCacheControl)
	writeJSON(w, http.StatusOK, baby)
}

func (h *BabyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.BabyInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, i18n.MsgInvalidBody)
		return
	}

	baby, err := h.babyService.Create(in)
	if err != nil {
		handleError(w, r, err, i18n.MsgBabyNotFound, "failed to create baby")
		return
	}

	writeJSON(w, http.StatusCreated, baby)
}

// Update applies the fields present in the body to the baby named by body.id.
func (h *BabyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in model.BabyInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, i18n.MsgInvalidBody)
		return
	}

	baby, err := h.babyService.Update(in)
	if err != nil {
		handleError(w, r, err, i18n.MsgBabyNotFound, "failed to update baby", "baby_id", in.ID)
		return
	}

	writeJSON(w, http.StatusOK, baby)
}

func (h *BabyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")

	if err := h.babyService.Delete(r.Context(), id); err != nil {
		handleError(w, r, err, i18n.MsgBabyNotFound, "failed to delete baby", "baby_id", id)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: i18n.T(r, i18n.MsgDeleted)})
}
