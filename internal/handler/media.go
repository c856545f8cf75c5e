package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/templui/babybook/internal/i18n"
	"github.com/templui/babybook/internal/model"
	"github.com/templui/babybook/internal/service"
)

type MediaHandler struct {
	mediaService *service.MediaService
}

func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
	}
}

// List serves ?babyId=&page=&limit= as {items, pagination}.
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	babyID := q.Get("babyId")
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.mediaService.List(babyID, page, limit)
	if err != nil {
		handleError(w, r, err, i18n.MsgMediaNotFound, "failed to list media", "baby_id", babyID)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *MediaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.MediaInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, i18n.MsgInvalidBody)
		return
	}

	item, err := h.mediaService.Create(in)
	if err != nil {
		handleError(w, r, err, i18n.MsgBabyNotFound, "failed to create media item")
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

type batchRequest struct {
	Items []model.MediaInput `json:"items"`
}

type batchResponse struct {
	Success bool               `json:"success"`
	Count   int                `json:"count"`
	Items   []*model.MediaItem `json:"items"`
}

// Batch creates every item or none.
func (h *MediaHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, i18n.MsgInvalidBody)
		return
	}

	items, err := h.mediaService.CreateBatch(req.Items)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			writeError(w, r, http.StatusBadRequest, ve.Key, ve.Args...)
			return
		}
		slog.Error("failed to create media batch", "count", len(req.Items), "error", err)
		writeErrorDetails(w, r, http.StatusInternalServerError, err.Error(), i18n.MsgBatchFailed)
		return
	}

	writeJSON(w, http.StatusCreated, batchResponse{
		Success: true,
		Count:   len(items),
		Items:   items,
	})
}

func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	item, err := h.mediaService.Get(id)
	if err != nil {
		handleError(w, r, err, i18n.MsgMediaNotFound, "failed to get media item", "media_id", id)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *MediaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var in model.MediaInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, i18n.MsgInvalidBody)
		return
	}

	item, err := h.mediaService.Update(id, in)
	if err != nil {
		handleError(w, r, err, i18n.MsgMediaNotFound, "failed to update media item", "media_id", id)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// Delete removes the row; stored objects are cleaned up best effort.
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.mediaService.Delete(r.Context(), id); err != nil {
		handleError(w, r, err, i18n.MsgMediaNotFound, "failed to delete media item", "media_id", id)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: i18n.T(r, i18n.MsgDeleted)})
}
