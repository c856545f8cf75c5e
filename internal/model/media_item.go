package model

import (
	"time"
)

const (
	MediaTypeImage = "IMAGE"
	MediaTypeVideo = "VIDEO"
)

type MediaItem struct {
	ID           string    `db:"id" json:"id"`
	BabyID       string    `db:"baby_id" json:"babyId"`
	Date         time.Time `db:"date" json:"date"`
	Title        string    `db:"title" json:"title"`
	Description  *string   `db:"description" json:"description"`
	URL          string    `db:"url" json:"url"`
	MediaType    string    `db:"media_type" json:"mediaType"`
	Format       *string   `db:"format" json:"format"`
	ThumbnailURL *string   `db:"thumbnail_url" json:"thumbnailUrl"`
	Duration     *int      `db:"duration" json:"duration"` // seconds
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

func ValidMediaType(t string) bool {
	return t == MediaTypeImage || t == MediaTypeVideo
}

type Pagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

type MediaPage struct {
	Items      []*MediaItem `json:"items"`
	Pagination Pagination   `json:"pagination"`
}
