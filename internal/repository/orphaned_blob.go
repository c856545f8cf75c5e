package repository

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/babybook/internal/model"
)

type OrphanedBlobRepository interface {
	Create(blob *model.OrphanedBlob) error
	// Pending returns up to limit blobs, least recently attempted first.
	Pending(limit int) ([]*model.OrphanedBlob, error)
	MarkAttempt(id string) error
	Delete(id string) error
}

type orphanedBlobRepository struct {
	db *sqlx.DB
}

func NewOrphanedBlobRepository(db *sqlx.DB) OrphanedBlobRepository {
	return &orphanedBlobRepository{db: db}
}

func (r *orphanedBlobRepository) Create(blob *model.OrphanedBlob) error {
	query := `INSERT INTO orphaned_blobs (id, object_key, reason, attempts, created_at, last_attempt_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(query,
		blob.ID,
		blob.ObjectKey,
		blob.Reason,
		blob.Attempts,
		blob.CreatedAt,
		blob.LastAttemptAt,
	)

	return err
}

func (r *orphanedBlobRepository) Pending(limit int) ([]*model.OrphanedBlob, error) {
	blobs := []*model.OrphanedBlob{}
	query := `SELECT * FROM orphaned_blobs ORDER BY COALESCE(last_attempt_at, created_at) ASC LIMIT $1`

	err := r.db.Select(&blobs, query, limit)
	if err != nil {
		return nil, err
	}

	return blobs, nil
}

func (r *orphanedBlobRepository) MarkAttempt(id string) error {
	query := `UPDATE orphaned_blobs SET attempts = attempts + 1, last_attempt_at = $1 WHERE id = $2`
	_, err := r.db.Exec(query, time.Now().UTC(), id)
	return err
}

func (r *orphanedBlobRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM orphaned_blobs WHERE id = $1`, id)
	return err
}
