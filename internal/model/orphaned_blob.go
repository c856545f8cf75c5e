package model

import (
	"time"
)

// OrphanedBlob records a storage object whose database row is already gone
// but whose delete from the bucket failed.
type OrphanedBlob struct {
	ID            string     `db:"id"`
	ObjectKey     string     `db:"object_key"`
	Reason        string     `db:"reason"`
	Attempts      int        `db:"attempts"`
	CreatedAt     time.Time  `db:"created_at"`
	LastAttemptAt *time.Time `db:"last_attempt_at"`
}
