package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/templui/babybook/internal/i18n"
	"github.com/templui/babybook/internal/media"
	"github.com/templui/babybook/internal/model"
	"github.com/templui/babybook/internal/storage"
)

// UploadFile is one file received by the proxied upload route.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadService stores media either by converting it server side (proxied upload)
// or by handing out presigned URLs for direct-to-storage uploads.
type UploadService struct {
	storage   storage.Storage
	processor *media.Processor
	maxBytes  int64
	recorder  Recorder
}

func NewUploadService(store storage.Storage, processor *media.Processor, maxBytes int64) *UploadService {
	return &UploadService{
		storage:   store,
		processor: processor,
		maxBytes:  maxBytes,
		recorder:  nopRecorder{},
	}
}

func (s *UploadService) SetRecorder(r Recorder) {
	if r != nil {
		s.recorder = r
	}
}

// StorageConfigured lets handlers reject uploads before reading the body.
func (s *UploadService) StorageConfigured() bool {
	return s.storage.IsConfigured()
}

func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// CheckFile applies the limits shared by both upload protocols.
func CheckFile(size, maxBytes int64, contentType string) error {
	if maxBytes > 0 && size > maxBytes {
		return ErrFileTooLarge
	}
	if model.ClassifyMIME(contentType) == "" {
		return ErrUnsupportedType
	}
	return nil
}

// Upload runs the proxied pipeline: validate, convert, store main object and thumbnail.
func (s *UploadService) Upload(ctx context.Context, f *UploadFile) (*model.UploadResult, error) {
	if !s.storage.IsConfigured() {
		return nil, ErrStorageNotConfigured
	}
	if f == nil || f.Body == nil {
		return nil, ErrNoFile
	}
	if err := CheckFile(f.Size, s.maxBytes, f.ContentType); err != nil {
		return nil, err
	}

	ct := model.BaseMIME(f.ContentType)
	id := uuid.New().String()
	res := &model.UploadResult{
		MediaType:      model.ClassifyMIME(ct),
		OriginalFormat: model.FileExtension(f.Name),
	}

	var err error
	if res.MediaType == model.MediaTypeVideo {
		err = s.uploadVideo(ctx, f, id, res)
	} else {
		err = s.uploadImage(ctx, f, ct, id, res)
	}
	if err != nil {
		return nil, err
	}

	s.recorder.RecordUpload(res.MediaType, "proxy")
	res.Message = i18n.MsgUploadSuccess
	return res, nil
}

func (s *UploadService) uploadImage(ctx context.Context, f *UploadFile, ct, id string, res *model.UploadResult) error {
	if ext, ok := model.PassthroughImages[ct]; ok {
		key := id + "." + ext
		up, err := s.storage.Upload(ctx, key, f.Body, f.Size, ct)
		if err != nil {
			return err
		}
		res.URL = up.URL
		res.Format = strings.TrimPrefix(ct, "image/")
		return nil
	}

	// HEIC/HEIF and anything else readable become JPEG.
	err := s.processor.ConvertImage(ctx, f.Body, f.Name, func(path string) error {
		up, err := s.uploadFile(ctx, path, id+".jpg", "image/jpeg")
		if err != nil {
			return err
		}
		res.URL = up.URL
		res.Format = "jpeg"
		return nil
	})
	if errors.Is(err, media.ErrUnsupportedImage) {
		slog.Warn("image conversion failed", "content_type", ct, "error", err)
		return ErrUnsupportedImage
	}
	return err
}

func (s *UploadService) uploadVideo(ctx context.Context, f *UploadFile, id string, res *model.UploadResult) error {
	err := s.processor.ProcessVideo(ctx, f.Body, f.Name, id, func(v *media.Video) error {
		thumbKey := "thumbnails/" + id + "_thumb.jpg"
		thumb, err := s.uploadFile(ctx, v.ThumbnailPath, thumbKey, "image/jpeg")
		if err != nil {
			return err
		}

		main, err := s.uploadFile(ctx, v.Path, id+".mp4", "video/mp4")
		if err != nil {
			if delErr := s.storage.Delete(ctx, thumbKey); delErr != nil {
				slog.Error("failed to delete thumbnail after upload failure", "key", thumbKey, "error", delErr)
			}
			return err
		}

		res.URL = main.URL
		res.Format = "mp4"
		res.ThumbnailURL = &thumb.URL
		res.Duration = v.Duration
		return nil
	})

	var toolErr *media.ToolError
	if errors.As(err, &toolErr) {
		return fmt.Errorf("%w: %w", ErrVideoProcessing, toolErr)
	}
	return err
}

func (s *UploadService) uploadFile(ctx context.Context, path, key, contentType string) (*storage.UploadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	return s.storage.Upload(ctx, key, file, info.Size(), contentType)
}

// Presign issues upload URLs for a direct-to-storage upload (plus one for the
// poster frame when the file is a video).
func (s *UploadService) Presign(ctx context.Context, req model.PresignRequest) (*model.PresignResponse, error) {
	if !s.storage.IsConfigured() {
		return nil, ErrStorageNotConfigured
	}
	if strings.TrimSpace(req.Filename) == "" || strings.TrimSpace(req.ContentType) == "" {
		return nil, invalid(i18n.MsgPresignFieldsMissing)
	}
	mediaType := model.ClassifyMIME(req.ContentType)
	if mediaType == "" {
		return nil, ErrUnsupportedType
	}

	norm := model.NormalizeContentType(req.ContentType, req.Filename)
	id := uuid.New().String()
	key := id + "." + norm.Extension

	main, err := s.storage.PresignUpload(ctx, key, norm.ContentType, 0)
	if err != nil {
		return nil, err
	}

	resp := &model.PresignResponse{
		Success:     true,
		UploadURL:   main.UploadURL,
		Key:         key,
		PublicURL:   main.PublicURL,
		MediaType:   mediaType,
		Format:      norm.Extension,
		ContentType: norm.ContentType,
	}

	if req.IsVideo || mediaType == model.MediaTypeVideo {
		thumbKey := "thumbnails/" + id + "_thumb.jpg"
		thumb, err := s.storage.PresignUpload(ctx, thumbKey, "image/jpeg", 0)
		if err != nil {
			return nil, err
		}
		resp.ThumbnailUploadURL = &thumb.UploadURL
		resp.ThumbnailKey = &thumbKey
		resp.ThumbnailPublicURL = &thumb.PublicURL
	}

	s.recorder.RecordUpload(mediaType, "direct")
	return resp, nil
}

// Open streams a stored object for the media proxy route.
func (s *UploadService) Open(ctx context.Context, key string) (*storage.Object, error) {
	if !s.storage.IsConfigured() {
		return nil, ErrStorageNotConfigured
	}
	return s.storage.Open(ctx, key)
}
