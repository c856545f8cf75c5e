package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/babybook/internal/model"
)

var (
	ErrMediaItemNotFound = errors.New("media item not found")
)

type MediaItemRepository interface {
	Create(item *model.MediaItem) error
	CreateBatch(items []*model.MediaItem) error
	ByID(id string) (*model.MediaItem, error)
	// Page returns one page of a baby's items (newest first) and the baby's total count.
	Page(babyID string, limit, offset int) ([]*model.MediaItem, int, error)
	ByBaby(babyID string) ([]*model.MediaItem, error)
	Update(item *model.MediaItem) error
	Delete(id string) error
}

type mediaItemRepository struct {
	db *sqlx.DB
}

func NewMediaItemRepository(db *sqlx.DB) MediaItemRepository {
	return &mediaItemRepository{db: db}
}

const insertMediaItem = `INSERT INTO media_items (id, baby_id, date, title, description, url, media_type, format,
	thumbnail_url, duration, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

func mediaItemArgs(item *model.MediaItem) []any {
	return []any{
		item.ID,
		item.BabyID,
		item.Date,
		item.Title,
		item.Description,
		item.URL,
		item.MediaType,
		item.Format,
		item.ThumbnailURL,
		item.Duration,
		item.CreatedAt,
		item.UpdatedAt,
	}
}

func (r *mediaItemRepository) Create(item *model.MediaItem) error {
	_, err := r.db.Exec(insertMediaItem, mediaItemArgs(item)...)
	return err
}

// CreateBatch inserts all items in one transaction; any failure rolls back every row.
func (r *mediaItemRepository) CreateBatch(items []*model.MediaItem) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, item := range items {
		if _, err := tx.Exec(insertMediaItem, mediaItemArgs(item)...); err != nil {
			return fmt.Errorf("insert item %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

func (r *mediaItemRepository) ByID(id string) (*model.MediaItem, error) {
	item := &model.MediaItem{}
	query := `SELECT * FROM media_items WHERE id = $1`

	err := r.db.Get(item, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrMediaItemNotFound
	}

	return item, err
}

func (r *mediaItemRepository) Page(babyID string, limit, offset int) ([]*model.MediaItem, int, error) {
	items := []*model.MediaItem{}
	var total int

	if err := r.db.Get(&total, `SELECT COUNT(*) FROM media_items WHERE baby_id = $1`, babyID); err != nil {
		return nil, 0, err
	}
	err := r.db.Select(&items,
		`SELECT * FROM media_items WHERE baby_id = $1 ORDER BY date DESC, created_at DESC LIMIT $2 OFFSET $3`,
		babyID, limit, offset)
	return items, total, err
}

func (r *mediaItemRepository) ByBaby(babyID string) ([]*model.MediaItem, error) {
	items := []*model.MediaItem{}
	err := r.db.Select(&items, `SELECT * FROM media_items WHERE baby_id = $1`, babyID)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *mediaItemRepository) Update(item *model.MediaItem) error {
	query := `UPDATE media_items
	          SET date = $1, title = $2, description = $3, url = $4, media_type = $5, format = $6,
	              thumbnail_url = $7, duration = $8, updated_at = $9
	          WHERE id = $10`

	item.UpdatedAt = time.Now().UTC()
	result, err := r.db.Exec(query,
		item.Date,
		item.Title,
		item.Description,
		item.URL,
		item.MediaType,
		item.Format,
		item.ThumbnailURL,
		item.Duration,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		return err
	}

	return expectOneRow(result, ErrMediaItemNotFound)
}

func (r *mediaItemRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM media_items WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return expectOneRow(result, ErrMediaItemNotFound)
}
