package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/templui/babybook/internal/i18n"
	"github.com/templui/babybook/internal/media"
	"github.com/templui/babybook/internal/model"
	"github.com/templui/babybook/internal/service"
	"github.com/templui/babybook/internal/storage"
)

// multipartOverhead is the slack allowed on top of the file limit for form boundaries and fields.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	uploadService *service.UploadService
}

func NewUploadHandler(uploadService *service.UploadService) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
	}
}

// Upload is the proxied protocol: multipart field "file", converted and stored server side.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.uploadService.StorageConfigured() {
		slog.Error("upload rejected, storage not configured")
		writeError(w, r, http.StatusInternalServerError, i18n.MsgStorageNotConfigured)
		return
	}

	maxBytes := h.uploadService.MaxBytes()
	limit := humanize.IBytes(uint64(maxBytes))
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, r, http.StatusRequestEntityTooLarge, i18n.MsgFileTooLarge, limit)
			return
		}
		writeError(w, r, http.StatusBadRequest, i18n.MsgNoFile)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("failed to remove multipart temp files", "error", err)
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, i18n.MsgNoFile)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
			contentType = byExt
		}
	}

	res, err := h.uploadService.Upload(r.Context(), &service.UploadFile{
		Name:        header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.uploadError(w, r, err, contentType, limit)
		return
	}

	slog.Info("media uploaded", "url", res.URL, "media_type", res.MediaType, "format", res.Format, "size", header.Size)
	res.Message = i18n.T(r, res.Message)
	writeJSON(w, http.StatusCreated, res)
}

func (h *UploadHandler) uploadError(w http.ResponseWriter, r *http.Request, err error, contentType, limit string) {
	var toolErr *media.ToolError
	switch {
	case errors.Is(err, service.ErrStorageNotConfigured):
		writeError(w, r, http.StatusInternalServerError, i18n.MsgStorageNotConfigured)
	case errors.Is(err, service.ErrNoFile):
		writeError(w, r, http.StatusBadRequest, i18n.MsgNoFile)
	case errors.Is(err, service.ErrFileTooLarge):
		writeError(w, r, http.StatusRequestEntityTooLarge, i18n.MsgFileTooLarge, limit)
	case errors.Is(err, service.ErrUnsupportedType):
		writeError(w, r, http.StatusUnsupportedMediaType, i18n.MsgUnsupportedType, contentType)
	case errors.Is(err, service.ErrUnsupportedImage):
		writeError(w, r, http.StatusUnsupportedMediaType, i18n.MsgUnsupportedImage, contentType)
	case errors.Is(err, media.ErrBusy):
		w.Header().Set("Retry-After", "30")
		writeError(w, r, http.StatusServiceUnavailable, i18n.MsgProcessorBusy)
	case errors.As(err, &toolErr):
		slog.Error("video processing failed", "tool", toolErr.Tool, "detail", toolErr.Detail, "error", err)
		writeErrorDetails(w, r, http.StatusInternalServerError, toolErr.Detail, i18n.MsgVideoFailed)
	default:
		slog.Error("upload failed", "content_type", contentType, "error", err)
		writeErrorDetails(w, r, http.StatusInternalServerError, err.Error(), i18n.MsgUploadFailed)
	}
}

// Presign is the direct protocol: hand out URLs the client PUTs to.
func (h *UploadHandler) Presign(w http.ResponseWriter, r *http.Request) {
	var req model.PresignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, i18n.MsgInvalidBody)
		return
	}

	resp, err := h.uploadService.Presign(r.Context(), req)
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			writeError(w, r, http.StatusBadRequest, ve.Key, ve.Args...)
		case errors.Is(err, service.ErrStorageNotConfigured):
			writeError(w, r, http.StatusInternalServerError, i18n.MsgStorageNotConfigured)
		case errors.Is(err, service.ErrUnsupportedType):
			writeError(w, r, http.StatusUnsupportedMediaType, i18n.MsgUnsupportedType, req.ContentType)
		default:
			slog.Error("failed to presign upload", "filename", req.Filename, "error", err)
			writeErrorDetails(w, r, http.StatusInternalServerError, err.Error(), i18n.MsgPresignFailed)
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Proxy streams a stored object for browsers that cannot reach the bucket.
func (h *UploadHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("path")
	if key == "" {
		writeError(w, r, http.StatusBadRequest, i18n.MsgFilePathRequired)
		return
	}

	obj, err := h.uploadService.Open(r.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, r, http.StatusNotFound, i18n.MsgFileNotFound)
		case errors.Is(err, service.ErrStorageNotConfigured):
			writeError(w, r, http.StatusInternalServerError, i18n.MsgStorageNotConfigured)
		default:
			slog.Error("media proxy failed", "key", key, "error", err)
			writeError(w, r, http.StatusInternalServerError, i18n.MsgMediaFetchFailed)
		}
		return
	}
	defer obj.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", mediaCacheControl)
	if obj.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, obj.Body); err != nil {
		slog.Warn("media proxy stream interrupted", "key", key, "error", err)
	}
}
