package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/babybook/internal/i18n"
	"github.com/templui/babybook/internal/model"
	"github.com/templui/babybook/internal/repository"
	"github.com/templui/babybook/internal/storage"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Recorder receives media events for metrics.
type Recorder interface {
	RecordUpload(mediaType, protocol string)
	RecordCleanupFailure()
}

type nopRecorder struct{}

func (nopRecorder) RecordUpload(string, string) {}
func (nopRecorder) RecordCleanupFailure()       {}

type MediaService struct {
	repo     repository.MediaItemRepository
	orphans  repository.OrphanedBlobRepository
	storage  storage.Storage
	recorder Recorder
}

func NewMediaService(repo repository.MediaItemRepository, orphans repository.OrphanedBlobRepository, store storage.Storage) *MediaService {
	return &MediaService{
		repo:     repo,
		orphans:  orphans,
		storage:  store,
		recorder: nopRecorder{},
	}
}

func (s *MediaService) SetRecorder(r Recorder) {
	if r != nil {
		s.recorder = r
	}
}

// List returns one page of a baby's media, newest first.
func (s *MediaService) List(babyID string, page, limit int) (*model.MediaPage, error) {
	if babyID == "" {
		return nil, invalid(i18n.MsgBabyIDRequired)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	items, total, err := s.repo.Page(babyID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}

	return &model.MediaPage{
		Items: items,
		Pagination: model.Pagination{
			Page:    page,
			Limit:   limit,
			Total:   total,
			HasMore: (page-1)*limit+len(items) < total,
		},
	}, nil
}

func (s *MediaService) Get(id string) (*model.MediaItem, error) {
	return s.repo.ByID(id)
}

func (s *MediaService) Create(in model.MediaInput) (*model.MediaItem, error) {
	if err := validateMedia(in, 0); err != nil {
		return nil, err
	}
	item, err := newMediaItem(in, 0)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(item); err != nil {
		return nil, fmt.Errorf("failed to create media item: %w", err)
	}
	return item, nil
}

// CreateBatch validates every item before writing any, then inserts them in one transaction.
func (s *MediaService) CreateBatch(in []model.MediaInput) ([]*model.MediaItem, error) {
	if len(in) == 0 {
		return nil, invalid(i18n.MsgItemsRequired)
	}

	items := make([]*model.MediaItem, 0, len(in))
	for i, input := range in {
		if err := validateMedia(input, i+1); err != nil {
			return nil, err
		}
		item, err := newMediaItem(input, i+1)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := s.repo.CreateBatch(items); err != nil {
		return nil, fmt.Errorf("failed to create media items: %w", err)
	}
	return items, nil
}

func (s *MediaService) Update(id string, in model.MediaInput) (*model.MediaItem, error) {
	item, err := s.repo.ByID(id)
	if err != nil {
		return nil, err
	}

	if in.Date.Set && in.Date.Get() != "" {
		date, err := model.ParseDate(in.Date.Get())
		if err != nil {
			return nil, invalid(i18n.MsgInvalidDate)
		}
		item.Date = date
	}
	if in.Title.Set {
		item.Title = strings.TrimSpace(in.Title.Get())
	}
	if in.Description.Set {
		item.Description = nonEmpty(in.Description.Value)
	}
	if in.URL.Set && in.URL.Get() != "" {
		item.URL = in.URL.Get()
	}
	if in.MediaType.Set && in.MediaType.Get() != "" {
		if !model.ValidMediaType(in.MediaType.Get()) {
			return nil, invalid(i18n.MsgInvalidMediaType)
		}
		item.MediaType = in.MediaType.Get()
	}
	if in.Format.Set {
		item.Format = nonEmpty(in.Format.Value)
	}
	if in.ThumbnailURL.Set {
		item.ThumbnailURL = nonEmpty(in.ThumbnailURL.Value)
	}
	if in.Duration.Set {
		item.Duration = roundDuration(in.Duration.Value)
	}

	if err := s.repo.Update(item); err != nil {
		return nil, fmt.Errorf("failed to update media item: %w", err)
	}
	return item, nil
}

// Delete removes the row first; the stored objects are cleaned up afterwards and
// a failed cleanup never fails the delete.
func (s *MediaService) Delete(ctx context.Context, id string) error {
	item, err := s.repo.ByID(id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		return err
	}

	s.cleanup(ctx, item)
	return nil
}

func (s *MediaService) cleanup(ctx context.Context, item *model.MediaItem) {
	urls := []string{item.URL}
	if item.ThumbnailURL != nil {
		urls = append(urls, *item.ThumbnailURL)
	}

	for _, u := range urls {
		key, ok := s.storage.KeyFromURL(u)
		if !ok {
			slog.Warn("cannot derive storage key from media url", "url", u, "media_id", item.ID)
			continue
		}
		s.deleteObject(ctx, key, item.ID)
	}
}

func (s *MediaService) deleteObject(ctx context.Context, key, mediaID string) {
	err := s.storage.Delete(ctx, key)
	if err == nil {
		return
	}

	slog.Warn("failed to delete media object, recording orphan", "key", key, "media_id", mediaID, "error", err)
	s.recorder.RecordCleanupFailure()

	orphan := &model.OrphanedBlob{
		ID:        uuid.New().String(),
		ObjectKey: key,
		Reason:    err.Error(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.orphans.Create(orphan); err != nil {
		slog.Error("failed to record orphaned blob", "key", key, "error", err)
	}
}

// SweepOrphans retries up to limit recorded deletes and returns how many objects were removed.
func (s *MediaService) SweepOrphans(ctx context.Context, limit int) (deleted, failed int, err error) {
	blobs, err := s.orphans.Pending(limit)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list orphaned blobs: %w", err)
	}

	for _, blob := range blobs {
		if ctx.Err() != nil {
			return deleted, failed, ctx.Err()
		}

		if delErr := s.storage.Delete(ctx, blob.ObjectKey); delErr != nil {
			failed++
			slog.Warn("orphan delete failed", "key", blob.ObjectKey, "attempts", blob.Attempts+1, "error", delErr)
			if err := s.orphans.MarkAttempt(blob.ID); err != nil {
				slog.Error("failed to mark orphan attempt", "id", blob.ID, "error", err)
			}
			continue
		}

		deleted++
		if err := s.orphans.Delete(blob.ID); err != nil {
			slog.Error("failed to remove orphan record", "id", blob.ID, "error", err)
		}
	}
	return deleted, failed, nil
}

// validateMedia checks required fields. index is the 1-based batch position, 0 for single creates.
func validateMedia(in model.MediaInput, index int) error {
	msg := func(single, batch string) error {
		if index == 0 {
			return invalid(single)
		}
		return invalid(batch, index)
	}

	if strings.TrimSpace(in.BabyID.Get()) == "" {
		return msg(i18n.MsgBabyIDRequired, i18n.MsgItemBabyID)
	}
	if strings.TrimSpace(in.URL.Get()) == "" {
		return msg(i18n.MsgURLRequired, i18n.MsgItemURL)
	}
	if in.MediaType.Get() == "" {
		return msg(i18n.MsgMediaTypeRequired, i18n.MsgItemMediaType)
	}
	if !model.ValidMediaType(in.MediaType.Get()) {
		return msg(i18n.MsgInvalidMediaType, i18n.MsgItemInvalidMediaType)
	}
	return nil
}

func newMediaItem(in model.MediaInput, index int) (*model.MediaItem, error) {
	now := time.Now().UTC()
	date := now
	if in.Date.Get() != "" {
		d, err := model.ParseDate(in.Date.Get())
		if err != nil {
			if index > 0 {
				return nil, invalid(i18n.MsgItemInvalidDate, index)
			}
			return nil, invalid(i18n.MsgInvalidDate)
		}
		date = d
	}

	return &model.MediaItem{
		ID:           uuid.New().String(),
		BabyID:       strings.TrimSpace(in.BabyID.Get()),
		Date:         date,
		Title:        strings.TrimSpace(in.Title.Get()),
		Description:  nonEmpty(in.Description.Value),
		URL:          in.URL.Get(),
		MediaType:    in.MediaType.Get(),
		Format:       nonEmpty(in.Format.Value),
		ThumbnailURL: nonEmpty(in.ThumbnailURL.Value),
		Duration:     roundDuration(in.Duration.Value),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func roundDuration(d *float64) *int {
	if d == nil || *d <= 0 || math.IsNaN(*d) {
		return nil
	}
	secs := int(math.Round(*d))
	return &secs
}
